// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// CreateScheduledSearch inserts a new watch entry for (round_id, event_type)
// in Scheduled status, next_run_at defaulting to now so the first tick picks
// it up immediately. Violates unique (round_id, event_type) with a
// StateConflict error if one already exists.
func (s *Store) CreateScheduledSearch(ctx context.Context, roundID int64, eventType models.SessionType, downloaderID *int64, overrides *models.QualityOverrides) (models.ScheduledSearch, error) {
	var out models.ScheduledSearch
	err := s.withWrite(func() error {
		var existing int64
		row := s.conn.QueryRowContext(ctx, `SELECT id FROM scheduled_searches WHERE round_id = ? AND event_type = ?`, roundID, eventType)
		if scanErr := row.Scan(&existing); scanErr == nil {
			return apperror.StateConflict("scheduled search already exists for this round and event type")
		} else if !errors.Is(scanErr, sql.ErrNoRows) {
			return scanErr
		}

		id, err := s.nextID(ctx, "scheduled_searches_id_seq")
		if err != nil {
			return err
		}

		var overridesJSON sql.NullString
		if overrides != nil {
			b, err := json.Marshal(overrides)
			if err != nil {
				return err
			}
			overridesJSON = sql.NullString{String: string(b), Valid: true}
		}

		if _, err := s.conn.ExecContext(ctx, `
			INSERT INTO scheduled_searches
				(id, round_id, event_type, status, downloader_id, quality_overrides, next_run_at)
			VALUES (?, ?, ?, 'Scheduled', ?, ?, CURRENT_TIMESTAMP)`,
			id, roundID, eventType, downloaderID, overridesJSON); err != nil {
			return err
		}

		out, err = s.getScheduledSearchTx(ctx, id)
		return err
	})
	if err != nil {
		var appErr *apperror.Error
		if apperror.As(err, &appErr) {
			return models.ScheduledSearch{}, err
		}
		return models.ScheduledSearch{}, apperror.Configuration("create scheduled search", err)
	}
	return out, nil
}

func (s *Store) getScheduledSearchTx(ctx context.Context, id int64) (models.ScheduledSearch, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, round_id, event_type, status, downloader_id, quality_overrides,
		       added_at, last_searched_at, next_run_at, last_error, attempts, chosen_nzb, dispatch_token
		FROM scheduled_searches WHERE id = ?`, id)
	return scanScheduledSearch(row)
}

// GetScheduledSearch fetches a watch entry by id.
func (s *Store) GetScheduledSearch(ctx context.Context, id int64) (models.ScheduledSearch, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, round_id, event_type, status, downloader_id, quality_overrides,
		       added_at, last_searched_at, next_run_at, last_error, attempts, chosen_nzb, dispatch_token
		FROM scheduled_searches WHERE id = ?`, id)
	return scanScheduledSearch(row)
}

func scanScheduledSearch(row *sql.Row) (models.ScheduledSearch, error) {
	var m models.ScheduledSearch
	var overridesJSON sql.NullString
	var chosenNZB sql.NullString
	if err := row.Scan(
		&m.ID, &m.RoundID, &m.EventType, &m.Status, &m.DownloaderID, &overridesJSON,
		&m.AddedAt, &m.LastSearchedAt, &m.NextRunAt, &m.LastError, &m.Attempts, &chosenNZB, &m.DispatchToken,
	); err != nil {
		return models.ScheduledSearch{}, err
	}
	if overridesJSON.Valid && overridesJSON.String != "" {
		var o models.QualityOverrides
		if err := json.Unmarshal([]byte(overridesJSON.String), &o); err != nil {
			return models.ScheduledSearch{}, err
		}
		m.QualityOverrides = &o
	}
	if chosenNZB.Valid {
		v := chosenNZB.String
		m.ChosenNZB = &v
	}
	return m, nil
}

// DuePending returns Scheduled entries whose next_run_at <= now, ordered
// ascending by next_run_at, for the tick loop to dispatch (§4.9).
func (s *Store) DuePending(ctx context.Context) ([]models.ScheduledSearch, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, round_id, event_type, status, downloader_id, quality_overrides,
		       added_at, last_searched_at, next_run_at, last_error, attempts, chosen_nzb, dispatch_token
		FROM scheduled_searches
		WHERE status = 'Scheduled' AND next_run_at IS NOT NULL AND next_run_at <= CURRENT_TIMESTAMP
		ORDER BY next_run_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScheduledSearch
	for rows.Next() {
		m, err := scanScheduledSearchRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanScheduledSearchRows(rows *sql.Rows) (models.ScheduledSearch, error) {
	var m models.ScheduledSearch
	var overridesJSON sql.NullString
	var chosenNZB sql.NullString
	if err := rows.Scan(
		&m.ID, &m.RoundID, &m.EventType, &m.Status, &m.DownloaderID, &overridesJSON,
		&m.AddedAt, &m.LastSearchedAt, &m.NextRunAt, &m.LastError, &m.Attempts, &chosenNZB, &m.DispatchToken,
	); err != nil {
		return models.ScheduledSearch{}, err
	}
	if overridesJSON.Valid && overridesJSON.String != "" {
		var o models.QualityOverrides
		if err := json.Unmarshal([]byte(overridesJSON.String), &o); err != nil {
			return models.ScheduledSearch{}, err
		}
		m.QualityOverrides = &o
	}
	if chosenNZB.Valid {
		v := chosenNZB.String
		m.ChosenNZB = &v
	}
	return m, nil
}

// ClaimForRun transitions an entry from Scheduled to Running, stamping a
// fresh dispatch token. The compare-and-swap on status prevents two ticks
// (or a tick racing an operator run-now) from claiming the same entry (§5).
func (s *Store) ClaimForRun(ctx context.Context, id int64, dispatchToken string) (bool, error) {
	var claimed bool
	err := s.withWrite(func() error {
		res, err := s.conn.ExecContext(ctx, `
			UPDATE scheduled_searches
			SET status = 'Running', dispatch_token = ?, last_searched_at = CURRENT_TIMESTAMP
			WHERE id = ? AND status = 'Scheduled'`, dispatchToken, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		claimed = n == 1
		return nil
	})
	return claimed, err
}

// CompleteRun records the outcome of a run if the dispatch token still
// matches and the entry is still in flight (Running or WaitingDownload);
// this guards against a stale late completion clobbering a newer run
// started after a restart, and against completing the same run twice (§5).
func (s *Store) CompleteRun(ctx context.Context, id int64, dispatchToken string, newStatus models.ScheduledSearchStatus, nextRunAt *time.Time, lastError string, chosenNZB *string) error {
	return s.withWrite(func() error {
		res, err := s.conn.ExecContext(ctx, `
			UPDATE scheduled_searches
			SET status = ?, next_run_at = ?, last_error = ?, chosen_nzb = ?, attempts = attempts + 1
			WHERE id = ? AND dispatch_token = ? AND status IN ('Running', 'WaitingDownload')`,
			newStatus, nextRunAt, lastError, chosenNZB, id, dispatchToken)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.StateConflict("dispatch token mismatch; a newer run already completed")
		}
		return nil
	})
}

// Pause sets status to Paused and clears next_run_at.
func (s *Store) Pause(ctx context.Context, id int64) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `UPDATE scheduled_searches SET status = 'Paused', next_run_at = NULL WHERE id = ?`, id)
		return err
	})
}

// Resume sets status back to Scheduled with next_run_at = now.
func (s *Store) Resume(ctx context.Context, id int64) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `UPDATE scheduled_searches SET status = 'Scheduled', next_run_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'Paused'`, id)
		return err
	})
}

// ListScheduledSearches returns every watch entry, optionally filtered by round.
func (s *Store) ListScheduledSearches(ctx context.Context, roundID *int64) ([]models.ScheduledSearch, error) {
	var rows *sql.Rows
	var err error
	if roundID != nil {
		rows, err = s.conn.QueryContext(ctx, `
			SELECT id, round_id, event_type, status, downloader_id, quality_overrides,
			       added_at, last_searched_at, next_run_at, last_error, attempts, chosen_nzb, dispatch_token
			FROM scheduled_searches WHERE round_id = ? ORDER BY id`, *roundID)
	} else {
		rows, err = s.conn.QueryContext(ctx, `
			SELECT id, round_id, event_type, status, downloader_id, quality_overrides,
			       added_at, last_searched_at, next_run_at, last_error, attempts, chosen_nzb, dispatch_token
			FROM scheduled_searches ORDER BY id`)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScheduledSearch
	for rows.Next() {
		m, err := scanScheduledSearchRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
