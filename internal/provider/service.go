// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"time"

	"github.com/pitlane-grab/pitlane/internal/logging"
)

// RefreshService is a suture.Service that periodically re-pulls every known
// season from the provider, so a schedule correction upstream (a moved
// session time, a newly announced Sprint) reaches the store without an
// operator having to call RefreshSeason by hand. The initial import of a
// season is still an operator action (§4.2's RefreshSeason(year) is only
// ever invoked with a year the operator already cares about); this service
// just keeps seasons the store already knows about current.
type RefreshService struct {
	imp      *Importer
	interval time.Duration
}

// NewRefreshService builds the supervised periodic-refresh service.
func NewRefreshService(imp *Importer, interval time.Duration) *RefreshService {
	return &RefreshService{imp: imp, interval: interval}
}

func (r *RefreshService) Serve(ctx context.Context) error {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			r.refreshKnownSeasons(ctx)
			timer.Reset(r.interval)
		}
	}
}

func (r *RefreshService) String() string { return "provider-refresh" }

func (r *RefreshService) refreshKnownSeasons(ctx context.Context) {
	seasons, err := r.imp.store.ListSeasons(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("provider refresh: list seasons failed")
		return
	}
	for _, season := range seasons {
		if season.IsHidden {
			continue
		}
		if err := r.imp.RefreshSeason(ctx, season.Year); err != nil {
			logging.Ctx(ctx).Error().Err(err).Int("year", season.Year).Msg("provider refresh failed")
		}
	}
}
