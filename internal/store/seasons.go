// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// UpsertSeason inserts a season for year if absent, or returns the existing
// row's id. Used by the importer (C3) before upserting rounds/events.
func (s *Store) UpsertSeason(ctx context.Context, year int) (models.Season, error) {
	var out models.Season
	err := s.withWrite(func() error {
		row := s.conn.QueryRowContext(ctx, `SELECT id, year, last_refreshed, is_hidden FROM seasons WHERE year = ?`, year)
		var lastRefreshed sql.NullTime
		err := row.Scan(&out.ID, &out.Year, &lastRefreshed, &out.IsHidden)
		if err == nil {
			if lastRefreshed.Valid {
				out.LastRefreshed = lastRefreshed.Time
			}
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		id, err := s.nextID(ctx, "seasons_id_seq")
		if err != nil {
			return err
		}
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO seasons (id, year, last_refreshed, is_hidden) VALUES (?, ?, CURRENT_TIMESTAMP, false)`,
			id, year); err != nil {
			return err
		}
		out = models.Season{ID: id, Year: year, LastRefreshed: time.Now().UTC()}
		return nil
	})
	if err != nil {
		return models.Season{}, apperror.Configuration("upsert season", err)
	}
	return out, nil
}

// GetSeason looks up a single season by id.
func (s *Store) GetSeason(ctx context.Context, seasonID int64) (models.Season, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT id, year, last_refreshed, is_hidden FROM seasons WHERE id = ?`, seasonID)
	var out models.Season
	var lastRefreshed sql.NullTime
	if err := row.Scan(&out.ID, &out.Year, &lastRefreshed, &out.IsHidden); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Season{}, apperror.NotFound("season", seasonID)
		}
		return models.Season{}, err
	}
	if lastRefreshed.Valid {
		out.LastRefreshed = lastRefreshed.Time
	}
	return out, nil
}

// TouchSeasonRefreshed stamps last_refreshed to now, called after a
// successful RefreshSeason (C3) run.
func (s *Store) TouchSeasonRefreshed(ctx context.Context, seasonID int64) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `UPDATE seasons SET last_refreshed = CURRENT_TIMESTAMP WHERE id = ?`, seasonID)
		return err
	})
}

// SetSeasonHidden toggles is_hidden. Hiding force-pauses the season's
// scheduled entries (§3); unhiding resumes anything the operator hadn't
// already paused by hand, via a sentinel note in last_error.
func (s *Store) SetSeasonHidden(ctx context.Context, seasonID int64, hidden bool) error {
	return s.withWrite(func() error {
		if _, err := s.conn.ExecContext(ctx, `UPDATE seasons SET is_hidden = ? WHERE id = ?`, hidden, seasonID); err != nil {
			return err
		}
		if hidden {
			_, err := s.conn.ExecContext(ctx, `
				UPDATE scheduled_searches SET status = 'Paused', next_run_at = NULL, last_error = 'paused: season hidden'
				WHERE status = 'Scheduled' AND round_id IN (SELECT id FROM rounds WHERE season_id = ?)`, seasonID)
			return err
		}
		_, err := s.conn.ExecContext(ctx, `
			UPDATE scheduled_searches SET status = 'Scheduled', next_run_at = CURRENT_TIMESTAMP, last_error = ''
			WHERE status = 'Paused' AND last_error = 'paused: season hidden'
			AND round_id IN (SELECT id FROM rounds WHERE season_id = ?)`, seasonID)
		return err
	})
}

// DeleteSeason hard-deletes a season and cascades to rounds, events,
// scheduled_searches, and cached_round_search rows (§3 lifecycle).
func (s *Store) DeleteSeason(ctx context.Context, seasonID int64) error {
	return s.withWrite(func() error {
		tx, err := s.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cached_round_search WHERE round_id IN (SELECT id FROM rounds WHERE season_id = ?)`, seasonID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM scheduled_searches WHERE round_id IN (SELECT id FROM rounds WHERE season_id = ?)`, seasonID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM events WHERE round_id IN (SELECT id FROM rounds WHERE season_id = ?)`, seasonID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE season_id = ?`, seasonID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM seasons WHERE id = ?`, seasonID); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// ListSeasons returns every season ordered by year, including hidden ones.
func (s *Store) ListSeasons(ctx context.Context) ([]models.Season, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, year, last_refreshed, is_hidden FROM seasons ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Season
	for rows.Next() {
		var m models.Season
		var lastRefreshed sql.NullTime
		if err := rows.Scan(&m.ID, &m.Year, &lastRefreshed, &m.IsHidden); err != nil {
			return nil, err
		}
		if lastRefreshed.Valid {
			m.LastRefreshed = lastRefreshed.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
