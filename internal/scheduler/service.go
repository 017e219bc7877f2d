// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"time"

	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/store"
)

// tickService is a suture.Service wrapping the tick ticker. Serve calls
// Tick synchronously and re-arms its timer only after Tick and all of its
// workers return, so ticks never overlap and the loop waits on the
// workers' network calls.
type tickService struct {
	sch      *Scheduler
	interval func() time.Duration
}

// NewTickService builds the supervised tick-loop service. interval is
// re-read on every firing so a scheduler_tick_seconds change picked up at
// the settings layer takes effect at the next tick boundary (§4.8).
func NewTickService(sch *Scheduler, interval func() time.Duration) *tickService {
	return &tickService{sch: sch, interval: interval}
}

func (t *tickService) Serve(ctx context.Context) error {
	timer := time.NewTimer(t.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := t.sch.Tick(ctx); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("scheduler tick failed")
			}
			timer.Reset(t.interval())
		}
	}
}

func (t *tickService) String() string { return "scheduler-tick" }

// pollService is a suture.Service wrapping the WaitingDownload poll ticker
// (§5: "a second ticker polls WaitingDownload rows").
type pollService struct {
	sch      *Scheduler
	interval func() time.Duration
}

// NewPollService builds the supervised poll-loop service.
func NewPollService(sch *Scheduler, interval func() time.Duration) *pollService {
	return &pollService{sch: sch, interval: interval}
}

func (p *pollService) Serve(ctx context.Context) error {
	timer := time.NewTimer(p.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := p.sch.PollOnce(ctx); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("scheduler poll failed")
			}
			timer.Reset(p.interval())
		}
	}
}

func (p *pollService) String() string { return "scheduler-poll" }

// TickInterval reads scheduler_tick_seconds fresh from Settings on every
// firing, so an operator change takes effect at the next tick boundary
// without restarting the process (§4.8).
func TickInterval(s *store.Store) func() time.Duration {
	return func() time.Duration {
		settings, err := s.GetSettings(context.Background())
		if err != nil || settings.SchedulerTickSeconds <= 0 {
			return 600 * time.Second
		}
		return time.Duration(settings.SchedulerTickSeconds) * time.Second
	}
}

// PollInterval reads decay_interval_h fresh from Settings on every firing
// and applies the min(5 min, decay_interval_h) rule (§4.9).
func PollInterval(s *store.Store) func() time.Duration {
	return func() time.Duration {
		settings, err := s.GetSettings(context.Background())
		if err != nil {
			return 5 * time.Minute
		}
		return pollInterval(settings)
	}
}
