// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"testing"
	"time"

	"github.com/pitlane-grab/pitlane/internal/models"
)

func testSettings() models.Settings {
	s := models.DefaultSettings()
	s.JitterSeconds = 0 // deterministic in cadence tests
	return s
}

func TestNextRunPreStartGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)
	next, ok := nextRun(now, &start, now, testSettings())
	checkBoolEqual(t, ok, true)
	checkBoolEqual(t, next.Equal(start.Add(preStartDelay)), true)
}

func TestNextRunAggressiveWindowIsImmediate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-1 * time.Hour) // 1h into the session, inside the 24h aggressive window
	next, ok := nextRun(now, &start, now, testSettings())
	checkBoolEqual(t, ok, true)
	checkBoolEqual(t, next.Equal(now), true)
}

func TestNextRunDecayWindow(t *testing.T) {
	s := testSettings()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	start := now.Add(-48 * time.Hour) // past the 24h aggressive window, well short of 14 days
	next, ok := nextRun(now, &start, now, s)
	checkBoolEqual(t, ok, true)
	checkBoolEqual(t, next.Equal(now.Add(decayInterval(s))), true)
}

func TestNextRunTerminalAfterStopAfterDays(t *testing.T) {
	s := testSettings()
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	start := now.Add(-15 * 24 * time.Hour) // past the 14-day stop window
	_, ok := nextRun(now, &start, now, s)
	checkBoolEqual(t, ok, false)
}

func TestNextRunNullStartTimeUsesDecayCadence(t *testing.T) {
	s := testSettings()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	next, ok := nextRun(now, nil, now, s)
	checkBoolEqual(t, ok, true)
	checkBoolEqual(t, next.Equal(now.Add(decayInterval(s))), true)
}

func TestJitterStaysWithinSpread(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		got := jitter(base, 120)
		diff := got.Sub(base)
		if diff < -120*time.Second || diff > 120*time.Second {
			t.Fatalf("jitter %v out of [-120s,120s] range", diff)
		}
	}
}

func TestJitterZeroSpreadIsNoop(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	checkBoolEqual(t, jitter(base, 0).Equal(base), true)
}

func TestPollIntervalCapsAtFiveMinutes(t *testing.T) {
	s := testSettings()
	s.DecayIntervalHours = 6
	checkBoolEqual(t, pollInterval(s) == 5*time.Minute, true)

	s.DecayIntervalHours = 0 // degenerate but shouldn't exceed the cap either
	checkBoolEqual(t, pollInterval(s) <= 5*time.Minute, true)
}
