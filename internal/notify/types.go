// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify is the notification dispatcher (C8): fan-out to Apprise-
// style URL targets and raw webhooks on lifecycle transitions, with a
// per-target event mask and independent deadlines (§4.7). Dispatch runs
// synchronously for its caller: the scheduler waits until every target has
// finished or used up its retries.
package notify

import (
	"time"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// Event is one lifecycle transition to fan out to every accepting target.
type Event struct {
	Type      models.NotificationEvent
	Title     string
	Message   string
	RoundName string
	NZBTitle  string
	Score     int
	Occurred  time.Time
}

// Outcome records what happened sending Event to one target, for logging
// only: dispatcher failures never mutate entity state (§4.7).
type Outcome struct {
	TargetID int64
	TargetName string
	Err      error
}
