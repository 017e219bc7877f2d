// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// GetCachedRoundSearch is the source-of-truth read for C6; internal/roundcache
// wraps this with a hot-path badger mirror. A miss is reported via ok=false,
// never an error (§4.5: TTL is purely advisory, a miss is never an error).
func (s *Store) GetCachedRoundSearch(ctx context.Context, roundID int64, fingerprint string) (models.CachedRoundSearch, bool, error) {
	var c models.CachedRoundSearch
	row := s.conn.QueryRowContext(ctx, `
		SELECT round_id, allowlist_fingerprint, created_at, ttl_hours, results_json
		FROM cached_round_search WHERE round_id = ? AND allowlist_fingerprint = ?`, roundID, fingerprint)
	err := row.Scan(&c.RoundID, &c.AllowlistFingerprint, &c.CreatedAt, &c.TTLHours, &c.ResultsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CachedRoundSearch{}, false, nil
	}
	if err != nil {
		return models.CachedRoundSearch{}, false, err
	}
	return c, true, nil
}

// PutCachedRoundSearch atomically replaces the prior value for the key
// (§4.5: writes replace prior value atomically).
func (s *Store) PutCachedRoundSearch(ctx context.Context, c models.CachedRoundSearch) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `
			INSERT INTO cached_round_search (round_id, allowlist_fingerprint, created_at, ttl_hours, results_json)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (round_id, allowlist_fingerprint) DO UPDATE SET
				created_at = excluded.created_at, ttl_hours = excluded.ttl_hours, results_json = excluded.results_json`,
			c.RoundID, c.AllowlistFingerprint, c.CreatedAt, c.TTLHours, c.ResultsJSON)
		return err
	})
}

// EvictCachedRoundSearch removes a cache row outright (operator-triggered
// eviction; background sweep is not required per §4.5).
func (s *Store) EvictCachedRoundSearch(ctx context.Context, roundID int64, fingerprint string) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `DELETE FROM cached_round_search WHERE round_id = ? AND allowlist_fingerprint = ?`, roundID, fingerprint)
		return err
	})
}
