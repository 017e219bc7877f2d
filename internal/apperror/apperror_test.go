// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package apperror

import (
	"errors"
	"testing"
)

func checkTrue(t *testing.T, name string, got bool) {
	t.Helper()
	if !got {
		t.Errorf("%s: expected true, got false", name)
	}
}

func checkFalse(t *testing.T, name string, got bool) {
	t.Helper()
	if got {
		t.Errorf("%s: expected false, got true", name)
	}
}

func TestIndexerRetryable(t *testing.T) {
	cases := []struct {
		sub  IndexerSubKind
		want bool
	}{
		{IndexerAuthRejected, true},
		{IndexerRateLimited, true},
		{IndexerUnavailable, true},
		{IndexerBadRequest, false},
		{IndexerParse, false},
	}
	for _, c := range cases {
		err := Indexer(c.sub, "boom", nil)
		if got := err.Retryable(); got != c.want {
			t.Errorf("Indexer(%s).Retryable() = %v, want %v", c.sub, got, c.want)
		}
	}
}

func TestDownloaderRetryable(t *testing.T) {
	cases := []struct {
		sub  DownloaderSubKind
		want bool
	}{
		{DownloaderAuthRejected, false},
		{DownloaderRejected, false},
		{DownloaderBadCategory, false},
		{DownloaderUnavailable, true},
		{DownloaderUnknown, true},
	}
	for _, c := range cases {
		err := Downloader(c.sub, "boom", nil)
		if got := err.Retryable(); got != c.want {
			t.Errorf("Downloader(%s).Retryable() = %v, want %v", c.sub, got, c.want)
		}
	}
}

func TestProviderPermanentVsTransient(t *testing.T) {
	transient := Provider("timeout", errors.New("dial"), false)
	checkTrue(t, "transient.Retryable", transient.Retryable())
	checkFalse(t, "transient.IsPermanent", IsPermanentProvider(transient))

	permanent := Provider("404", nil, true)
	checkTrue(t, "permanent.IsPermanent", IsPermanentProvider(permanent))
}

func TestNotFoundStateConflictValidationNeverRetry(t *testing.T) {
	checkFalse(t, "NotFound.Retryable", NotFound("Round", 5).Retryable())
	checkFalse(t, "StateConflict.Retryable", StateConflict("paused").Retryable())
	checkFalse(t, "Validation.Retryable", Validation("bad input").Retryable())
	checkFalse(t, "Configuration.Retryable", Configuration("missing downloader", nil).Retryable())
}

func TestAsUnwraps(t *testing.T) {
	inner := Indexer(IndexerUnavailable, "down", nil)
	wrapped := errors.New("context: " + inner.Error())
	var target *Error
	checkFalse(t, "plain error should not unwrap", As(wrapped, &target))

	var target2 *Error
	checkTrue(t, "direct error should unwrap", As(inner, &target2))
	if target2.Kind != KindIndexer {
		t.Errorf("expected KindIndexer, got %s", target2.Kind)
	}
}
