// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// UpsertRound inserts or updates a round keyed by (season_id, round_number),
// per C3's merge rules (§4.2): round payload wins over season payload, so
// this always overwrites name/circuit/country/circuit_tz on conflict.
func (s *Store) UpsertRound(ctx context.Context, r models.Round) (int64, error) {
	var id int64
	err := s.withWrite(func() error {
		row := s.conn.QueryRowContext(ctx,
			`SELECT id FROM rounds WHERE season_id = ? AND round_number = ?`, r.SeasonID, r.RoundNumber)
		err := row.Scan(&id)
		switch {
		case err == nil:
			_, execErr := s.conn.ExecContext(ctx,
				`UPDATE rounds SET name = ?, circuit = ?, country = ?, circuit_tz = ? WHERE id = ?`,
				r.Name, r.Circuit, r.Country, r.CircuitTZ, id)
			return execErr
		case errors.Is(err, sql.ErrNoRows):
			id, err = s.nextID(ctx, "rounds_id_seq")
			if err != nil {
				return err
			}
			_, execErr := s.conn.ExecContext(ctx,
				`INSERT INTO rounds (id, season_id, round_number, name, circuit, country, circuit_tz) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, r.SeasonID, r.RoundNumber, r.Name, r.Circuit, r.Country, r.CircuitTZ)
			return execErr
		default:
			return err
		}
	})
	return id, err
}

// GetRound fetches a round by id.
func (s *Store) GetRound(ctx context.Context, roundID int64) (models.Round, error) {
	var r models.Round
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, season_id, round_number, name, circuit, country, circuit_tz FROM rounds WHERE id = ?`, roundID)
	err := row.Scan(&r.ID, &r.SeasonID, &r.RoundNumber, &r.Name, &r.Circuit, &r.Country, &r.CircuitTZ)
	return r, err
}

// ListRoundsBySeason returns every round in a season, ordered by round number.
func (s *Store) ListRoundsBySeason(ctx context.Context, seasonID int64) ([]models.Round, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, season_id, round_number, name, circuit, country, circuit_tz FROM rounds WHERE season_id = ? ORDER BY round_number`, seasonID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Round
	for rows.Next() {
		var r models.Round
		if err := rows.Scan(&r.ID, &r.SeasonID, &r.RoundNumber, &r.Name, &r.Circuit, &r.Country, &r.CircuitTZ); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
