// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scheduler is the rules engine (C9): a tick loop that selects due
// watch entries, runs each through the search pipeline, auto-grabs eligible
// results, and polls in-flight downloads to completion. The cadence math is
// pure and tested in isolation from the I/O that drives it.
package scheduler

import (
	"math/rand"
	"time"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// preStartDelay is how long after an event's start time the first gated
// search fires (§4.9: until start+30min, next_run_at stays pinned at
// start+30min; only past that does the aggressive window take over).
const preStartDelay = 30 * time.Minute

// nextRun computes next_run_at for a watch entry given its event's start
// time, the global cadence Settings, and whether the round has already been
// downloaded (which the caller is expected to have turned into a terminal
// state before calling this). now is passed in rather than read from
// time.Now so the cadence math stays pure and independently testable.
func nextRun(now time.Time, startTimeUTC *time.Time, addedAt time.Time, s models.Settings) (time.Time, bool) {
	if startTimeUTC == nil {
		// No provider-supplied start time yet: fall back to the decay
		// cadence until one arrives (§4.9 null start_time_utc rule).
		return jitter(now.Add(decayInterval(s)), s.JitterSeconds), true
	}

	start := *startTimeUTC
	stopAt := start.Add(time.Duration(s.StopAfterDays) * 24 * time.Hour)
	if now.After(stopAt) {
		return time.Time{}, false
	}

	firstSearchAt := start.Add(preStartDelay)
	if now.Before(firstSearchAt) {
		return jitter(firstSearchAt, s.JitterSeconds), true
	}

	aggressiveUntil := start.Add(time.Duration(s.AggressiveWindowHours) * time.Hour)
	if now.Before(aggressiveUntil) {
		// Aggressive window: due again at the next tick boundary, i.e.
		// effectively immediately; the tick loop's own interval provides
		// the spacing. Jitter still applies so a burst of entries reaching
		// the aggressive window simultaneously doesn't hammer indexers in
		// lockstep.
		return jitter(now, s.JitterSeconds), true
	}

	return jitter(now.Add(decayInterval(s)), s.JitterSeconds), true
}

func decayInterval(s models.Settings) time.Duration {
	return time.Duration(s.DecayIntervalHours) * time.Hour
}

// jitter adds a uniform random offset in [-spread, +spread] seconds.
func jitter(t time.Time, spreadSeconds int) time.Time {
	if spreadSeconds <= 0 {
		return t
	}
	offset := rand.Intn(2*spreadSeconds+1) - spreadSeconds
	return t.Add(time.Duration(offset) * time.Second)
}

// pollInterval is how often a WaitingDownload row gets re-checked against
// the downloader's Status call (§4.9: "min(5 minutes, decay_interval_h)").
func pollInterval(s models.Settings) time.Duration {
	decay := decayInterval(s)
	if decay < 5*time.Minute {
		return decay
	}
	return 5 * time.Minute
}

// retryAfterFailure is the backoff applied to a Failed run before it
// becomes Scheduled again (§4.9: "failed runs retry in one hour").
const retryAfterFailure = time.Hour
