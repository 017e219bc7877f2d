// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pitlane-grab/pitlane/internal/downloader"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/metrics"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/notify"
	"github.com/pitlane-grab/pitlane/internal/roundcache"
	"github.com/pitlane-grab/pitlane/internal/search"
	"github.com/pitlane-grab/pitlane/internal/store"
)

// Scheduler is the C9 rules engine: a tick loop that selects due watch
// entries and runs them, and a poll loop that checks in-flight downloads.
// It holds no network clients of its own; it composes the already-built
// C5 search engine, C7 downloader registry and C8 notification dispatcher
// the way the teacher's newsletter scheduler composes a content resolver,
// template engine and delivery manager.
type Scheduler struct {
	store       *store.Store
	engine      *search.Engine
	downloaders *downloader.Registry
	notifier    *notify.Dispatcher
	cache       *roundcache.Cache

	semMu   sync.Mutex
	sem     *semaphore.Weighted
	semSize int

	entryLocks sync.Map // "entry:<id>" / "event:<id>" key -> *sync.Mutex
}

// New builds a Scheduler over the already-constructed component set.
func New(s *store.Store, engine *search.Engine, downloaders *downloader.Registry, notifier *notify.Dispatcher, cache *roundcache.Cache) *Scheduler {
	return &Scheduler{store: s, engine: engine, downloaders: downloaders, notifier: notifier, cache: cache}
}

// semaphoreFor returns the global concurrency gate, resizing it if the
// operator has changed global_concurrency since the last tick (§4.8:
// scheduler_tick_seconds changes take effect "at the next tick boundary";
// the same discipline applies to the concurrency cap).
func (sch *Scheduler) semaphoreFor(globalConcurrency int) *semaphore.Weighted {
	if globalConcurrency <= 0 {
		globalConcurrency = 3
	}
	sch.semMu.Lock()
	defer sch.semMu.Unlock()
	if sch.sem == nil || sch.semSize != globalConcurrency {
		sch.sem = semaphore.NewWeighted(int64(globalConcurrency))
		sch.semSize = globalConcurrency
	}
	return sch.sem
}

// keyedLock returns a mutex scoped to key, creating one on first use.
// runEntry locks "entry:<id>" and, once it has found the entry's event,
// "event:<id>"; round-level auto-grab locks "event:<id>", giving the two
// independent call paths (tick-driven vs. operator-driven) the per-event
// serialization §4.9 requires without one global lock.
func (sch *Scheduler) keyedLock(key string) *sync.Mutex {
	l, _ := sch.entryLocks.LoadOrStore(key, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// Tick runs one full selection-and-dispatch cycle: it is the unit of work
// the tick ticker fires on every scheduler_tick_seconds (§4.9).
func (sch *Scheduler) Tick(ctx context.Context) error {
	started := time.Now()
	defer func() { metrics.ObserveTickDuration(time.Since(started)) }()

	settings, err := sch.store.GetSettings(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scheduler tick: failed to load settings")
		return err
	}

	due, err := sch.store.DuePending(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scheduler tick: failed to select due entries")
		return err
	}
	metrics.SchedulerDueEntries.Set(float64(len(due)))
	if len(due) == 0 {
		return nil
	}

	sem := sch.semaphoreFor(settings.GlobalConcurrency)
	var wg sync.WaitGroup
	for _, entry := range due {
		wg.Add(1)
		go func(e models.ScheduledSearch) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			sch.runEntry(ctx, settings, e)
		}(entry)
	}
	wg.Wait()
	return nil
}

// PollOnce re-checks every WaitingDownload acquisition against its
// downloader and resolves Completed/Failed outcomes (§4.9 post-send
// polling). It is the unit of work the poll ticker fires on pollInterval.
func (sch *Scheduler) PollOnce(ctx context.Context) error {
	pending, err := sch.store.ListPendingPolls(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scheduler poll: failed to list pending downloads")
		return err
	}
	for _, h := range pending {
		sch.pollOne(ctx, h)
	}
	return nil
}
