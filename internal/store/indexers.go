// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"strings"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// CreateIndexer inserts a new indexer configuration and returns its id.
func (s *Store) CreateIndexer(ctx context.Context, idx models.Indexer) (int64, error) {
	var id int64
	err := s.withWrite(func() error {
		var genErr error
		id, genErr = s.nextID(ctx, "indexers_id_seq")
		if genErr != nil {
			return genErr
		}
		_, err := s.conn.ExecContext(ctx,
			`INSERT INTO indexers (id, name, kind, base_url, api_key, category_ids, priority, enabled, last_error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, idx.Name, idx.Kind, idx.BaseURL, idx.APIKey, strings.Join(idx.CategoryIDs, ","), idx.Priority, idx.Enabled, idx.LastError)
		return err
	})
	return id, err
}

// UpdateIndexer replaces an indexer row in full.
func (s *Store) UpdateIndexer(ctx context.Context, idx models.Indexer) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx,
			`UPDATE indexers SET name = ?, kind = ?, base_url = ?, api_key = ?, category_ids = ?, priority = ?, enabled = ?, last_error = ? WHERE id = ?`,
			idx.Name, idx.Kind, idx.BaseURL, idx.APIKey, strings.Join(idx.CategoryIDs, ","), idx.Priority, idx.Enabled, idx.LastError, idx.ID)
		return err
	})
}

// SetIndexerLastError records the most recent failure reason for one
// indexer. The Newznab client (C4) does not call it; its failures are only
// logged.
func (s *Store) SetIndexerLastError(ctx context.Context, id int64, msg string) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `UPDATE indexers SET last_error = ? WHERE id = ?`, msg, id)
		return err
	})
}

// DeleteIndexer removes an indexer configuration.
func (s *Store) DeleteIndexer(ctx context.Context, id int64) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `DELETE FROM indexers WHERE id = ?`, id)
		return err
	})
}

// ListIndexers returns every configured indexer.
func (s *Store) ListIndexers(ctx context.Context) ([]models.Indexer, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, kind, base_url, api_key, category_ids, priority, enabled, last_error FROM indexers ORDER BY priority DESC, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Indexer
	for rows.Next() {
		var idx models.Indexer
		var categoryIDs string
		if err := rows.Scan(&idx.ID, &idx.Name, &idx.Kind, &idx.BaseURL, &idx.APIKey, &categoryIDs, &idx.Priority, &idx.Enabled, &idx.LastError); err != nil {
			return nil, err
		}
		if categoryIDs != "" {
			idx.CategoryIDs = strings.Split(categoryIDs, ",")
		}
		out = append(out, idx)
	}
	return out, rows.Err()
}

// ListEnabledIndexers returns only indexers with enabled = true, the set the
// query fan-out (C5) dispatches against.
func (s *Store) ListEnabledIndexers(ctx context.Context) ([]models.Indexer, error) {
	all, err := s.ListIndexers(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Indexer
	for _, idx := range all {
		if idx.Enabled {
			out = append(out, idx)
		}
	}
	return out, nil
}
