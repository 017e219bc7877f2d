// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "context"

// nextID pulls the next value from a DuckDB sequence, used since DuckDB has
// no AUTOINCREMENT.
func (s *Store) nextID(ctx context.Context, seq string) (int64, error) {
	var id int64
	row := s.conn.QueryRowContext(ctx, "SELECT nextval('"+seq+"')")
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
