// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"testing"

	"github.com/pitlane-grab/pitlane/internal/config"
	"github.com/pitlane-grab/pitlane/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.DatabaseConfig{Path: ":memory:"})
	checkNoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsDefaultSettingsAndAliases(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	settings, err := s.GetSettings(ctx)
	checkNoError(t, err)
	checkIntEqual(t, "AutoDownloadThreshold", settings.AutoDownloadThreshold, 70)
	checkIntEqual(t, "SchedulerTickSeconds", settings.SchedulerTickSeconds, 600)

	alias, ok := s.VenueAlias(ctx, "Bahrain International Circuit")
	if !ok {
		t.Fatal("expected seeded Bahrain alias")
	}
	if alias != "Sakhir" {
		t.Errorf("expected Sakhir, got %q", alias)
	}
}

func TestSeasonRoundEventLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	season, err := s.UpsertSeason(ctx, 2026)
	checkNoError(t, err)
	checkInt64Positive(t, "season.ID", season.ID)

	roundID, err := s.UpsertRound(ctx, models.Round{
		SeasonID: season.ID, RoundNumber: 1, Name: "Bahrain Grand Prix",
		Circuit: "Bahrain International Circuit", Country: "Bahrain",
	})
	checkNoError(t, err)

	eventID, err := s.UpsertEvent(ctx, models.Event{RoundID: roundID, Type: models.SessionRace})
	checkNoError(t, err)
	checkInt64Positive(t, "event.ID", eventID)

	events, err := s.ListEventsByRound(ctx, roundID)
	checkNoError(t, err)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	// re-upsert the round with a changed name; round payload wins (§4.2)
	roundID2, err := s.UpsertRound(ctx, models.Round{
		SeasonID: season.ID, RoundNumber: 1, Name: "Gulf Air Bahrain Grand Prix",
		Circuit: "Bahrain International Circuit", Country: "Bahrain",
	})
	checkNoError(t, err)
	if roundID2 != roundID {
		t.Fatalf("expected same round id on re-upsert, got %d vs %d", roundID2, roundID)
	}

	got, err := s.GetRound(ctx, roundID)
	checkNoError(t, err)
	if got.Name != "Gulf Air Bahrain Grand Prix" {
		t.Errorf("expected updated name, got %q", got.Name)
	}

	checkNoError(t, s.DeleteSeason(ctx, season.ID))
	if _, err := s.GetRound(ctx, roundID); err == nil {
		t.Error("expected round to be gone after season delete cascade")
	}
}

func TestScheduledSearchDedupeAndClaim(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	season, err := s.UpsertSeason(ctx, 2026)
	checkNoError(t, err)
	roundID, err := s.UpsertRound(ctx, models.Round{SeasonID: season.ID, RoundNumber: 1, Name: "R1", Circuit: "C", Country: "X"})
	checkNoError(t, err)

	entry, err := s.CreateScheduledSearch(ctx, roundID, models.SessionRace, nil, nil)
	checkNoError(t, err)
	if entry.Status != models.StatusScheduled {
		t.Errorf("expected Scheduled status, got %v", entry.Status)
	}

	_, err = s.CreateScheduledSearch(ctx, roundID, models.SessionRace, nil, nil)
	checkError(t, err)

	claimed, err := s.ClaimForRun(ctx, entry.ID, "token-1")
	checkNoError(t, err)
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	claimedAgain, err := s.ClaimForRun(ctx, entry.ID, "token-2")
	checkNoError(t, err)
	if claimedAgain {
		t.Fatal("expected second claim on a Running entry to fail")
	}

	checkNoError(t, s.CompleteRun(ctx, entry.ID, "token-1", models.StatusScheduled, nil, "", nil))

	stale := s.CompleteRun(ctx, entry.ID, "token-1", models.StatusFailed, nil, "stale", nil)
	checkError(t, stale)
}

func TestCachedRoundSearchRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetCachedRoundSearch(ctx, 1, "fp1,race")
	checkNoError(t, err)
	if ok {
		t.Fatal("expected miss on empty cache")
	}

	want := models.CachedRoundSearch{RoundID: 1, AllowlistFingerprint: "fp1,race", TTLHours: 24, ResultsJSON: `[]`}
	want.CreatedAt = want.CreatedAt.UTC()
	checkNoError(t, s.PutCachedRoundSearch(ctx, want))

	got, ok, err := s.GetCachedRoundSearch(ctx, 1, "fp1,race")
	checkNoError(t, err)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got.ResultsJSON != "[]" {
		t.Errorf("expected empty array json, got %q", got.ResultsJSON)
	}
}
