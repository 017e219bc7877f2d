// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/metrics"
	"github.com/pitlane-grab/pitlane/internal/models"
)

const (
	targetDeadline = 10 * time.Second
	targetRetries  = 3
)

// Dispatcher fans an Event out to every target whose mask accepts it.
// Dispatch blocks its caller until every accepting target has finished,
// each with its own deadline and retry budget, so a slow target delays the
// caller by up to that budget; dispatch failures are logged, never returned
// to the caller as something requiring a state change (§4.7).
type Dispatcher struct {
	client  *http.Client
	targets []models.NotificationTarget
	mu      sync.RWMutex
}

// New builds a Dispatcher. Targets are set via Sync.
func New() *Dispatcher {
	return &Dispatcher{client: &http.Client{Timeout: targetDeadline}}
}

// Sync replaces the configured target set.
func (d *Dispatcher) Sync(targets []models.NotificationTarget) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.targets = append([]models.NotificationTarget(nil), targets...)
}

// Dispatch fans ev out to every accepting target concurrently and returns
// once every target has finished (or hit its own deadline); it never
// returns an error itself, only the per-target Outcome log.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) []Outcome {
	d.mu.RLock()
	targets := append([]models.NotificationTarget(nil), d.targets...)
	d.mu.RUnlock()

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 0, len(targets))
	var mu sync.Mutex

	for _, target := range targets {
		if !target.Accepts(ev.Type) {
			continue
		}
		wg.Add(1)
		go func(target models.NotificationTarget) {
			defer wg.Done()
			err := d.sendWithRetry(ctx, target, ev)
			mu.Lock()
			outcomes = append(outcomes, Outcome{TargetID: target.ID, TargetName: target.Name, Err: err})
			mu.Unlock()

			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			metrics.NotificationDispatches.WithLabelValues(string(target.Kind), outcome).Inc()
			if err != nil {
				logging.Warn().Err(err).Str("target", target.Name).Str("event", string(ev.Type)).Msg("notification dispatch failed")
			}
		}(target)
	}
	wg.Wait()
	return outcomes
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, target models.NotificationTarget, ev Event) error {
	var lastErr error
	for attempt := 0; attempt < targetRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, targetDeadline)
		err := d.send(callCtx, target, ev)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (d *Dispatcher) send(ctx context.Context, target models.NotificationTarget, ev Event) error {
	switch target.Kind {
	case models.NotificationKindApprise:
		return sendApprise(ctx, d.client, target.URL, ev)
	case models.NotificationKindWebhook:
		return sendWebhook(ctx, d.client, target, ev)
	default:
		return nil
	}
}
