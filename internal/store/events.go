// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// UpsertEvent inserts or updates an event keyed by (round_id, type). Nil
// start/end times are tolerated (§4.2: missing Sprint/FP2/FP3 nulls).
func (s *Store) UpsertEvent(ctx context.Context, e models.Event) (int64, error) {
	var id int64
	err := s.withWrite(func() error {
		row := s.conn.QueryRowContext(ctx,
			`SELECT id FROM events WHERE round_id = ? AND type = ?`, e.RoundID, e.Type)
		err := row.Scan(&id)
		switch {
		case err == nil:
			_, execErr := s.conn.ExecContext(ctx,
				`UPDATE events SET start_time_utc = ?, end_time_utc = ? WHERE id = ?`,
				e.StartTimeUTC, e.EndTimeUTC, id)
			return execErr
		case errors.Is(err, sql.ErrNoRows):
			id, err = s.nextID(ctx, "events_id_seq")
			if err != nil {
				return err
			}
			_, execErr := s.conn.ExecContext(ctx,
				`INSERT INTO events (id, round_id, type, start_time_utc, end_time_utc) VALUES (?, ?, ?, ?, ?)`,
				id, e.RoundID, e.Type, e.StartTimeUTC, e.EndTimeUTC)
			return execErr
		default:
			return err
		}
	})
	return id, err
}

// GetEvent fetches an event by id.
func (s *Store) GetEvent(ctx context.Context, eventID int64) (models.Event, error) {
	var e models.Event
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, round_id, type, start_time_utc, end_time_utc FROM events WHERE id = ?`, eventID)
	err := row.Scan(&e.ID, &e.RoundID, &e.Type, &e.StartTimeUTC, &e.EndTimeUTC)
	return e, err
}

// ListEventsByRound returns every session in a round.
func (s *Store) ListEventsByRound(ctx context.Context, roundID int64) ([]models.Event, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, round_id, type, start_time_utc, end_time_utc FROM events WHERE round_id = ? ORDER BY type`, roundID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.RoundID, &e.Type, &e.StartTimeUTC, &e.EndTimeUTC); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
