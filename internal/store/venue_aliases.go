// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "context"

// VenueAlias resolves a round's circuit name (the provider's token) to the
// release-scene alias the query builder should substitute (§9 Open
// Question iii, §4.4 alias resolver).
func (s *Store) VenueAlias(ctx context.Context, circuit string) (string, bool) {
	var alias string
	row := s.conn.QueryRowContext(ctx, `SELECT alias FROM venue_aliases WHERE circuit = ?`, circuit)
	if err := row.Scan(&alias); err != nil {
		return "", false
	}
	return alias, true
}

// SetVenueAlias creates or overwrites an alias mapping.
func (s *Store) SetVenueAlias(ctx context.Context, circuit, alias string) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `
			INSERT INTO venue_aliases (circuit, alias) VALUES (?, ?)
			ON CONFLICT (circuit) DO UPDATE SET alias = excluded.alias`, circuit, alias)
		return err
	})
}

// ListVenueAliases returns every operator-configured alias.
func (s *Store) ListVenueAliases(ctx context.Context) (map[string]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT circuit, alias FROM venue_aliases`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var circuit, alias string
		if err := rows.Scan(&circuit, &alias); err != nil {
			return nil, err
		}
		out[circuit] = alias
	}
	return out, rows.Err()
}
