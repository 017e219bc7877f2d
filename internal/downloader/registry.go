// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package downloader

import (
	"sync"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// New builds the Adapter for a configured downloader's kind.
func New(d models.Downloader) (Adapter, error) {
	switch d.Kind {
	case models.DownloaderKindSAB:
		return newSABAdapter(d), nil
	case models.DownloaderKindNZBG:
		return newNZBGAdapter(d), nil
	default:
		return nil, apperror.Configuration("unknown downloader kind: "+string(d.Kind), nil)
	}
}

// Registry holds one Adapter per configured downloader, keyed by ID, and
// keeps it in sync with store state the way newznab.Pool does for
// indexers (§4.6, §4.3 composition symmetry).
type Registry struct {
	mu       sync.RWMutex
	adapters map[int64]Adapter
	byID     map[int64]models.Downloader
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[int64]Adapter), byID: make(map[int64]models.Downloader)}
}

// Sync rebuilds adapters for the given downloader set, reusing existing
// adapters whose configuration is unchanged so in-flight idempotency
// windows survive a routine resync.
func (r *Registry) Sync(downloaders []models.Downloader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[int64]Adapter, len(downloaders))
	nextByID := make(map[int64]models.Downloader, len(downloaders))
	for _, d := range downloaders {
		if !d.Enabled {
			continue
		}
		if existing, ok := r.byID[d.ID]; ok && existing == d {
			next[d.ID] = r.adapters[d.ID]
			nextByID[d.ID] = d
			continue
		}
		adapter, err := New(d)
		if err != nil {
			continue
		}
		next[d.ID] = adapter
		nextByID[d.ID] = d
	}
	r.adapters = next
	r.byID = nextByID
}

// Get returns the adapter for a downloader ID, if enabled and known.
func (r *Registry) Get(downloaderID int64) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[downloaderID]
	return a, ok
}

// Enabled returns the configured downloaders currently held by sorted
// priority ascending, the same convention as newznab.Pool.Enabled.
func (r *Registry) Enabled() []models.Downloader {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Downloader, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority < out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
