// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package roundcache

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pitlane-grab/pitlane/internal/config"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openTestHot(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleResults() []models.ScoredCandidate {
	return []models.ScoredCandidate{
		{Title: "Formula.1.2025.Round03.Bahrain.Race.1080p.x265-NTb", Score: 100, IndexerNames: []string{"idx-a"}},
	}
}

func TestCacheMissBeforeAnyPut(t *testing.T) {
	c := New(openTestStore(t), openTestHot(t))
	_, hit, err := c.Get(context.Background(), 1, "race", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, false)
}

func TestCachePutThenGetHitsHotPath(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), openTestHot(t))

	if err := c.Put(ctx, 1, "race", sampleResults(), 48); err != nil {
		t.Fatalf("put: %v", err)
	}

	res, hit, err := c.Get(ctx, 1, "race", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, true)
	checkBoolEqual(t, res.FromCache, true)
	checkIntEqual(t, len(res.Results), 1)
	checkStringEqual(t, res.Results[0].Title, "Formula.1.2025.Round03.Bahrain.Race.1080p.x265-NTb")
	checkIntEqual(t, res.TTLHours, 48)
}

func TestCacheGetFallsBackToStoreWhenHotMissing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	c := New(s, openTestHot(t))

	if err := c.Put(ctx, 1, "race", sampleResults(), 48); err != nil {
		t.Fatalf("put: %v", err)
	}

	// A second Cache sharing the same store but a fresh (empty) hot mirror
	// must still hit via the store fallback.
	c2 := New(s, openTestHot(t))
	res, hit, err := c2.Get(ctx, 1, "race", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, true)
	checkIntEqual(t, len(res.Results), 1)
}

func TestCacheForceBypassesHitEntirely(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), openTestHot(t))
	if err := c.Put(ctx, 1, "race", sampleResults(), 48); err != nil {
		t.Fatalf("put: %v", err)
	}

	_, hit, err := c.Get(ctx, 1, "race", true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, false)
}

func TestCacheExpiredRowIsMiss(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	c := New(s, openTestHot(t))

	if err := s.PutCachedRoundSearch(ctx, models.CachedRoundSearch{
		RoundID:              1,
		AllowlistFingerprint: "race",
		CreatedAt:            time.Now().Add(-72 * time.Hour),
		TTLHours:             48,
		ResultsJSON:          `[]`,
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	_, hit, err := c.Get(ctx, 1, "race", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, false)
}

func TestCacheDifferentFingerprintIsMiss(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), openTestHot(t))
	if err := c.Put(ctx, 1, "race,qualifying", sampleResults(), 48); err != nil {
		t.Fatalf("put: %v", err)
	}

	_, hit, err := c.Get(ctx, 1, "race", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, false)
}

func TestCachePutReplacesPriorValue(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), openTestHot(t))

	if err := c.Put(ctx, 1, "race", sampleResults(), 48); err != nil {
		t.Fatalf("put: %v", err)
	}
	updated := []models.ScoredCandidate{{Title: "replacement", Score: 50}}
	if err := c.Put(ctx, 1, "race", updated, 24); err != nil {
		t.Fatalf("put: %v", err)
	}

	res, hit, err := c.Get(ctx, 1, "race", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, true)
	checkIntEqual(t, len(res.Results), 1)
	checkStringEqual(t, res.Results[0].Title, "replacement")
	checkIntEqual(t, res.TTLHours, 24)
}

func TestCacheEvictRemovesEntry(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), openTestHot(t))
	if err := c.Put(ctx, 1, "race", sampleResults(), 48); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := c.Evict(ctx, 1, "race"); err != nil {
		t.Fatalf("evict: %v", err)
	}

	_, hit, err := c.Get(ctx, 1, "race", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	checkBoolEqual(t, hit, false)
}
