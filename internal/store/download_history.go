// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// InsertDownloadHistory appends a new acquisition attempt row (§3: append-only).
func (s *Store) InsertDownloadHistory(ctx context.Context, h models.DownloadHistory) (int64, error) {
	var id int64
	err := s.withWrite(func() error {
		var genErr error
		id, genErr = s.nextID(ctx, "download_history_id_seq")
		if genErr != nil {
			return genErr
		}
		_, err := s.conn.ExecContext(ctx, `
			INSERT INTO download_history
				(id, event_id, indexer_id, downloader_id, acquisition_id, nzb_title, nzb_url, score, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			id, h.EventID, h.IndexerID, h.DownloaderID, h.AcquisitionID, h.NZBTitle, h.NZBURL, h.Score, h.Status)
		return err
	})
	return id, err
}

// UpdateDownloadStatus records a post-send status poll result (C7/C9).
func (s *Store) UpdateDownloadStatus(ctx context.Context, id int64, status models.DownloadStatus) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `
			UPDATE download_history SET status = ?, last_polled_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, id)
		return err
	})
}

// GetDownloadHistory fetches one row by id.
func (s *Store) GetDownloadHistory(ctx context.Context, id int64) (models.DownloadHistory, error) {
	var h models.DownloadHistory
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, event_id, indexer_id, downloader_id, acquisition_id, nzb_title, nzb_url, score, status, last_polled_at, created_at, updated_at
		FROM download_history WHERE id = ?`, id)
	err := row.Scan(&h.ID, &h.EventID, &h.IndexerID, &h.DownloaderID, &h.AcquisitionID, &h.NZBTitle, &h.NZBURL, &h.Score, &h.Status, &h.LastPolledAt, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

// ListDownloadHistoryByEvent returns every attempt recorded for an event,
// newest first.
func (s *Store) ListDownloadHistoryByEvent(ctx context.Context, eventID int64) ([]models.DownloadHistory, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, event_id, indexer_id, downloader_id, acquisition_id, nzb_title, nzb_url, score, status, last_polled_at, created_at, updated_at
		FROM download_history WHERE event_id = ? ORDER BY created_at DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.DownloadHistory
	for rows.Next() {
		var h models.DownloadHistory
		if err := rows.Scan(&h.ID, &h.EventID, &h.IndexerID, &h.DownloaderID, &h.AcquisitionID, &h.NZBTitle, &h.NZBURL, &h.Score, &h.Status, &h.LastPolledAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListPendingPolls returns Sent/Downloading rows, the set the scheduler's
// WaitingDownload poll loop needs to re-check (§4.9).
func (s *Store) ListPendingPolls(ctx context.Context) ([]models.DownloadHistory, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, event_id, indexer_id, downloader_id, acquisition_id, nzb_title, nzb_url, score, status, last_polled_at, created_at, updated_at
		FROM download_history WHERE status IN ('Sent', 'Downloading') ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.DownloadHistory
	for rows.Next() {
		var h models.DownloadHistory
		if err := rows.Scan(&h.ID, &h.EventID, &h.IndexerID, &h.DownloaderID, &h.AcquisitionID, &h.NZBTitle, &h.NZBURL, &h.Score, &h.Status, &h.LastPolledAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
