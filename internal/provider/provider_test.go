// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/config"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/store"
)

type stubFetcher struct {
	payload SeasonPayload
	err     error
	calls   int
}

func (f *stubFetcher) FetchSeason(ctx context.Context, year int) (SeasonPayload, error) {
	f.calls++
	if f.err != nil {
		return SeasonPayload{}, f.err
	}
	return f.payload, nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.DatabaseConfig{Path: ":memory:"})
	checkNoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRefreshSeasonMergesRoundsAndEvents(t *testing.T) {
	s := openTestStore(t)
	fetcher := &stubFetcher{payload: SeasonPayload{
		Rounds: []RoundPayload{
			{
				RoundNumber: 1,
				Name:        "FORMULA 1 ROLEX BAHRAIN GRAND PRIX 2026",
				Circuit:     CircuitPayload{Name: "Bahrain International Circuit", City: "Sakhir", Country: "Bahrain"},
				Sessions: []SessionPayload{
					{Type: models.SessionRace, StartTimeUTC: timePtr(t, "2026-03-08T15:00:00Z")},
				},
			},
		},
	}}

	imp := New(fetcher, s)
	checkNoError(t, imp.RefreshSeason(context.Background(), 2026))

	seasons, err := s.ListSeasons(context.Background())
	checkNoError(t, err)
	if len(seasons) != 1 {
		t.Fatalf("expected 1 season, got %d", len(seasons))
	}

	rounds, err := s.ListRoundsBySeason(context.Background(), seasons[0].ID)
	checkNoError(t, err)
	if len(rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(rounds))
	}
	checkStringEqual(t, "round.Name", rounds[0].Name, "BAHRAIN GRAND PRIX 2026")

	events, err := s.ListEventsByRound(context.Background(), rounds[0].ID)
	checkNoError(t, err)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestRefreshSeasonPermanentErrorLeavesRowsUntouched(t *testing.T) {
	s := openTestStore(t)
	fetcher := &stubFetcher{err: apperror.Provider("boom", errors.New("bad request"), true)}

	imp := New(fetcher, s)
	err := imp.RefreshSeason(context.Background(), 2026)
	checkError(t, err)
	if fetcher.calls != 1 {
		t.Errorf("expected no retries on permanent error, got %d calls", fetcher.calls)
	}
}

func TestRefreshSeasonTransientErrorRetries(t *testing.T) {
	s := openTestStore(t)
	fetcher := &stubFetcher{err: errors.New("connection reset")}

	imp := New(fetcher, s)
	err := imp.RefreshSeason(context.Background(), 2026)
	checkError(t, err)
	if fetcher.calls != 3 {
		t.Errorf("expected 3 attempts on transient error, got %d", fetcher.calls)
	}
}

func TestStripSponsorTokens(t *testing.T) {
	got := stripSponsorTokens("FORMULA 1 ROLEX AUSTRALIAN GRAND PRIX 2026")
	checkStringEqual(t, "stripped", got, "AUSTRALIAN GRAND PRIX 2026")
}

func timePtr(t *testing.T, iso string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, iso)
	checkNoError(t, err)
	return &parsed
}
