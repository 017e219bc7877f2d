// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package roundcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/metrics"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/store"
)

// Result is what a Get call returns to the caller (§4.5's read shape).
type Result struct {
	Results   []models.ScoredCandidate
	FromCache bool
	CachedAt  time.Time
	TTLHours  int
}

// Cache wraps the store's cached_round_search table (source of truth) with
// a badger hot path carrying its own native TTL, avoiding a DuckDB
// round-trip plus JSON decode on every repeated read within the TTL
// window. Grounded on internal/auth/jti_tracker.go's BadgerJTITracker.
type Cache struct {
	store *store.Store
	hot   *badger.DB
}

// New builds a Cache over an existing badger handle (see OpenHotStore).
// The downloader idempotency dedupe does not use badger; it runs on
// internal/cache.
func New(s *store.Store, hot *badger.DB) *Cache {
	return &Cache{store: s, hot: hot}
}

// OpenHotStore opens a badger database at path for the cache's hot path
// mirror. Pass "" for an ephemeral in-memory instance.
func OpenHotStore(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

func hotKey(roundID int64, fingerprint string) []byte {
	return []byte(fmt.Sprintf("round-search:%d:%s", roundID, fingerprint))
}

// Get returns the merged+scored results for (roundID, fingerprint) when a
// live, matching entry exists and force is false; otherwise it reports a
// miss (§4.5). A miss is never an error.
func (c *Cache) Get(ctx context.Context, roundID int64, fingerprint string, force bool) (Result, bool, error) {
	if force {
		return Result{}, false, nil
	}

	if res, ok := c.getHot(roundID, fingerprint); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return res, true, nil
	}

	row, ok, err := c.store.GetCachedRoundSearch(ctx, roundID, fingerprint)
	if err != nil {
		return Result{}, false, err
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Result{}, false, nil
	}

	age := time.Since(row.CreatedAt)
	if age >= time.Duration(row.TTLHours)*time.Hour {
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		return Result{}, false, nil
	}

	var results []models.ScoredCandidate
	if err := json.Unmarshal([]byte(row.ResultsJSON), &results); err != nil {
		return Result{}, false, err
	}
	res := Result{Results: results, FromCache: true, CachedAt: row.CreatedAt, TTLHours: row.TTLHours}

	remaining := time.Duration(row.TTLHours)*time.Hour - age
	c.setHot(roundID, fingerprint, res, remaining)

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return res, true, nil
}

// Put replaces the cached value for (roundID, fingerprint) atomically in
// the store and refreshes the hot mirror (§4.5: writes replace the prior
// value atomically).
func (c *Cache) Put(ctx context.Context, roundID int64, fingerprint string, results []models.ScoredCandidate, ttlHours int) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if err := c.store.PutCachedRoundSearch(ctx, models.CachedRoundSearch{
		RoundID:              roundID,
		AllowlistFingerprint: fingerprint,
		CreatedAt:            now,
		TTLHours:             ttlHours,
		ResultsJSON:          string(payload),
	}); err != nil {
		return err
	}

	c.setHot(roundID, fingerprint, Result{Results: results, FromCache: true, CachedAt: now, TTLHours: ttlHours}, time.Duration(ttlHours)*time.Hour)
	return nil
}

// Evict removes a cache entry from both the store and the hot mirror.
func (c *Cache) Evict(ctx context.Context, roundID int64, fingerprint string) error {
	if c.hot != nil {
		if err := c.hot.Update(func(txn *badger.Txn) error {
			err := txn.Delete(hotKey(roundID, fingerprint))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}); err != nil {
			logging.Warn().Err(err).Msg("round search cache: hot evict failed")
		}
	}
	return c.store.EvictCachedRoundSearch(ctx, roundID, fingerprint)
}

type hotEntry struct {
	Results  []models.ScoredCandidate `json:"results"`
	CachedAt time.Time                `json:"cached_at"`
	TTLHours int                      `json:"ttl_hours"`
}

func (c *Cache) getHot(roundID int64, fingerprint string) (Result, bool) {
	if c.hot == nil {
		return Result{}, false
	}
	var entry hotEntry
	err := c.hot.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hotKey(roundID, fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return Result{}, false
	}
	return Result{Results: entry.Results, FromCache: true, CachedAt: entry.CachedAt, TTLHours: entry.TTLHours}, true
}

func (c *Cache) setHot(roundID int64, fingerprint string, res Result, ttl time.Duration) {
	if c.hot == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(hotEntry{Results: res.Results, CachedAt: res.CachedAt, TTLHours: res.TTLHours})
	if err != nil {
		return
	}
	if err := c.hot.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(hotKey(roundID, fingerprint), data).WithTTL(ttl)
		return txn.SetEntry(e)
	}); err != nil {
		logging.Warn().Err(err).Msg("round search cache: hot write failed")
	}
}
