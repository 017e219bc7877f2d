// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// CreateDownloader inserts a new downloader configuration.
func (s *Store) CreateDownloader(ctx context.Context, d models.Downloader) (int64, error) {
	var id int64
	err := s.withWrite(func() error {
		var genErr error
		id, genErr = s.nextID(ctx, "downloaders_id_seq")
		if genErr != nil {
			return genErr
		}
		_, err := s.conn.ExecContext(ctx,
			`INSERT INTO downloaders (id, name, kind, base_url, api_key, category, priority, enabled, last_error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, d.Name, d.Kind, d.BaseURL, d.APIKey, d.Category, d.Priority, d.Enabled, d.LastError)
		return err
	})
	return id, err
}

// UpdateDownloader replaces a downloader row in full.
func (s *Store) UpdateDownloader(ctx context.Context, d models.Downloader) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx,
			`UPDATE downloaders SET name = ?, kind = ?, base_url = ?, api_key = ?, category = ?, priority = ?, enabled = ?, last_error = ? WHERE id = ?`,
			d.Name, d.Kind, d.BaseURL, d.APIKey, d.Category, d.Priority, d.Enabled, d.LastError, d.ID)
		return err
	})
}

// SetDownloaderLastError records the most recent failure reason.
func (s *Store) SetDownloaderLastError(ctx context.Context, id int64, msg string) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `UPDATE downloaders SET last_error = ? WHERE id = ?`, msg, id)
		return err
	})
}

// DeleteDownloader removes a downloader configuration.
func (s *Store) DeleteDownloader(ctx context.Context, id int64) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `DELETE FROM downloaders WHERE id = ?`, id)
		return err
	})
}

// GetDownloader fetches a single downloader by id.
func (s *Store) GetDownloader(ctx context.Context, id int64) (models.Downloader, error) {
	var d models.Downloader
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, kind, base_url, api_key, category, priority, enabled, last_error FROM downloaders WHERE id = ?`, id)
	err := row.Scan(&d.ID, &d.Name, &d.Kind, &d.BaseURL, &d.APIKey, &d.Category, &d.Priority, &d.Enabled, &d.LastError)
	return d, err
}

// ListDownloaders returns every configured downloader.
func (s *Store) ListDownloaders(ctx context.Context) ([]models.Downloader, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, kind, base_url, api_key, category, priority, enabled, last_error FROM downloaders ORDER BY priority DESC, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Downloader
	for rows.Next() {
		var d models.Downloader
		if err := rows.Scan(&d.ID, &d.Name, &d.Kind, &d.BaseURL, &d.APIKey, &d.Category, &d.Priority, &d.Enabled, &d.LastError); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
