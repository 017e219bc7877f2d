// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pitlane-grab/pitlane/internal/config"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/newznab"
	"github.com/pitlane-grab/pitlane/internal/store"
)

const raceXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<item>
<title>Formula.1.2026.Round01.Sakhir.Race.1080p.x265-GROUP</title>
<link>https://example.test/get/race</link>
<pubDate>Sun, 08 Mar 2026 17:00:00 +0000</pubDate>
<newznab:attr name="size" value="2147483648"/>
</item>
</channel>
</rss>`

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEngineRunScoresAndMergesAcrossIndexers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(raceXML))
	}))
	defer srv.Close()

	ctx := context.Background()
	s := openTestStore(t)

	season, err := s.UpsertSeason(ctx, 2026)
	if err != nil {
		t.Fatalf("upsert season: %v", err)
	}
	roundID, err := s.UpsertRound(ctx, models.Round{
		SeasonID: season.ID, RoundNumber: 1, Name: "Bahrain Grand Prix", Circuit: "Sakhir", Country: "Bahrain",
	})
	if err != nil {
		t.Fatalf("upsert round: %v", err)
	}
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}

	pool := newznab.NewPool(3, 1)
	pool.Sync([]models.Indexer{
		{ID: 1, Name: "idx-a", BaseURL: srv.URL, Enabled: true},
		{ID: 2, Name: "idx-b", BaseURL: srv.URL, Enabled: true},
	})

	engine := NewEngine(pool, s)
	results, err := engine.Run(ctx, round, models.SessionRace, defaultQuality())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one merged candidate from two indexers, got %d: %+v", len(results), results)
	}
	if len(results[0].IndexerNames) != 2 {
		t.Fatalf("expected merge to union indexer names, got %v", results[0].IndexerNames)
	}

	best, ok := Best(results)
	if !ok {
		t.Fatal("expected a best candidate")
	}
	if best.YearMismatch || best.RoundMismatch {
		t.Fatalf("expected no hard mismatch, got %+v", best)
	}
}
