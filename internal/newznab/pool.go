// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package newznab

import (
	"context"
	"sync"

	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// Pool holds one breaker-wrapped client per enabled indexer, sharing a
// single global concurrency limiter and one per-indexer limiter each
// (§4.3). It is rebuilt whenever the indexer list changes.
type Pool struct {
	mu      sync.RWMutex
	entries map[int64]*poolEntry
	global  int
	perIdx  int
	shared  *Limiter // source of the global semaphore and rate limiter every entry reuses
}

type poolEntry struct {
	indexer models.Indexer
	client  *BreakerClient
	limiter *Limiter
}

// NewPool builds an empty pool with the given concurrency caps.
func NewPool(globalConcurrency, perIndexerConcurrency int) *Pool {
	return &Pool{
		entries: make(map[int64]*poolEntry),
		global:  globalConcurrency,
		perIdx:  perIndexerConcurrency,
	}
}

// Sync replaces the pool's indexer set, tearing down clients for indexers
// that disappeared and building fresh ones for new/changed entries.
func (p *Pool) Sync(indexers []models.Indexer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[int64]struct{}, len(indexers))
	for _, idx := range indexers {
		seen[idx.ID] = struct{}{}
		if !idx.Enabled {
			delete(p.entries, idx.ID)
			continue
		}
		existing, ok := p.entries[idx.ID]
		if ok && existing.indexer.BaseURL == idx.BaseURL && existing.indexer.APIKey == idx.APIKey {
			existing.indexer = idx
			continue
		}
		client := NewClient(idx)
		lim := NewLimiter(p.global, p.perIdx)
		if p.shared == nil {
			p.shared = lim
		}
		lim.global, lim.rl = p.shared.global, p.shared.rl
		p.entries[idx.ID] = &poolEntry{
			indexer: idx,
			client:  NewBreakerClient(client, idx.Name),
			limiter: lim,
		}
	}
	for id := range p.entries {
		if _, ok := seen[id]; !ok {
			delete(p.entries, id)
		}
	}
}

// Search runs q against one enabled indexer by ID, respecting its
// concurrency cap and circuit breaker.
func (p *Pool) Search(ctx context.Context, indexerID int64, q Query) ([]Item, error) {
	p.mu.RLock()
	entry, ok := p.entries[indexerID]
	p.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	release, err := entry.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	items, err := entry.client.Search(ctx, q)
	if err != nil {
		logging.Ctx(ctx).Debug().Str("indexer", entry.indexer.Name).Err(err).Msg("indexer search call failed")
	}
	return items, err
}

// Enabled returns the indexers currently registered in the pool, ordered
// by priority ascending (lower value searched first, per §4.3).
func (p *Pool) Enabled() []models.Indexer {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.Indexer, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.indexer)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority < out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// BreakerState reports the circuit breaker state for one indexer, used by
// the operator surface (§4.8).
func (p *Pool) BreakerState(indexerID int64) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[indexerID]
	if !ok {
		return "", false
	}
	return entry.client.State(), true
}

// TestConnection probes one indexer's t=caps endpoint directly, bypassing
// the pool's breaker so operator "test" calls aren't blocked by a prior
// open breaker (§4.8).
func (p *Pool) TestConnection(ctx context.Context, indexer models.Indexer) (Caps, error) {
	return NewClient(indexer).TestConnection(ctx)
}
