// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"testing"

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

func TestApplyMergesOnlySuppliedFields(t *testing.T) {
	s := openTestStore(t)
	mgr := New(s)
	ctx := context.Background()

	before, err := mgr.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	level := "debug"
	tick := 300
	got, err := mgr.Apply(ctx, Update{LogLevel: &level, SchedulerTickSeconds: &tick})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.LogLevel != "debug" {
		t.Fatalf("expected log_level=debug, got %q", got.LogLevel)
	}
	if got.SchedulerTickSeconds != 300 {
		t.Fatalf("expected scheduler_tick_seconds=300, got %d", got.SchedulerTickSeconds)
	}
	if got.DecayIntervalHours != before.DecayIntervalHours {
		t.Fatalf("unsupplied field decay_interval_hours should be untouched, got %d want %d", got.DecayIntervalHours, before.DecayIntervalHours)
	}
}

func TestApplyRejectsInvalidLogLevel(t *testing.T) {
	s := openTestStore(t)
	mgr := New(s)
	ctx := context.Background()

	bogus := "verbose"
	if _, err := mgr.Apply(ctx, Update{LogLevel: &bogus}); err == nil {
		t.Fatal("expected validation error for an unrecognized log level")
	}
}

func TestApplyRejectsUnknownDefaultDownloader(t *testing.T) {
	s := openTestStore(t)
	mgr := New(s)
	ctx := context.Background()

	missing := int64(999)
	if _, err := mgr.Apply(ctx, Update{DefaultDownloaderID: &missing}); err == nil {
		t.Fatal("expected error referencing a non-existent downloader")
	}
}

func TestApplyAcceptsKnownDefaultDownloader(t *testing.T) {
	s := openTestStore(t)
	mgr := New(s)
	ctx := context.Background()

	id, err := s.CreateDownloader(ctx, models.Downloader{Name: "sab", Kind: models.DownloaderKindSAB, BaseURL: "http://localhost", APIKey: "k", Enabled: true, Priority: 1})
	if err != nil {
		t.Fatalf("create downloader: %v", err)
	}

	got, err := mgr.Apply(ctx, Update{DefaultDownloaderID: &id})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.DefaultDownloaderID == nil || *got.DefaultDownloaderID != id {
		t.Fatal("expected default_downloader_id to be set")
	}
}
