// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package newznab

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter bounds how many concurrent Newznab calls are in flight, both
// per-indexer and across all indexers, ahead of the breaker-wrapped client
// (§4.3, §5 bounded queues). A per-indexer limiter protects one slow
// indexer from starving its own retry budget; the shared global limiter
// protects the host's outbound connection pool as a whole.
type Limiter struct {
	global *semaphore.Weighted
	rl     *rate.Limiter
	perIdx *semaphore.Weighted
}

// NewLimiter builds a Limiter. globalConcurrency bounds total in-flight
// Newznab calls across every indexer; perIndexerConcurrency bounds calls to
// a single indexer. Both default to spec values (3 and 1) when <= 0.
func NewLimiter(globalConcurrency, perIndexerConcurrency int) *Limiter {
	if globalConcurrency <= 0 {
		globalConcurrency = 3
	}
	if perIndexerConcurrency <= 0 {
		perIndexerConcurrency = 1
	}
	return &Limiter{
		global: semaphore.NewWeighted(int64(globalConcurrency)),
		perIdx: semaphore.NewWeighted(int64(perIndexerConcurrency)),
		rl:     rate.NewLimiter(rate.Limit(globalConcurrency), globalConcurrency),
	}
}

// Acquire blocks until both the global and per-indexer slots are free, or
// ctx is done. The returned release func must be called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.rl.Wait(ctx); err != nil {
		return nil, err
	}
	if err := l.global.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := l.perIdx.Acquire(ctx, 1); err != nil {
		l.global.Release(1)
		return nil, err
	}
	return func() {
		l.perIdx.Release(1)
		l.global.Release(1)
	}, nil
}
