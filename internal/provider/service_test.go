// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"testing"
	"time"
)

func TestRefreshServiceSkipsHiddenSeasons(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	visible, err := s.UpsertSeason(ctx, 2026)
	checkNoError(t, err)
	hidden, err := s.UpsertSeason(ctx, 2025)
	checkNoError(t, err)
	checkNoError(t, s.SetSeasonHidden(ctx, hidden.ID, true))

	fetcher := &stubFetcher{}
	imp := New(fetcher, s)
	svc := NewRefreshService(imp, time.Hour)

	svc.refreshKnownSeasons(ctx)

	if fetcher.calls != 1 {
		t.Fatalf("expected exactly 1 fetch (visible season only), got %d", fetcher.calls)
	}
	_ = visible
}

func TestRefreshServiceStringName(t *testing.T) {
	svc := NewRefreshService(nil, time.Minute)
	if svc.String() != "provider-refresh" {
		t.Fatalf("unexpected service name: %q", svc.String())
	}
}
