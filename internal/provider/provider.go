// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider pulls a season's rounds and sessions from the external
// schedule-metadata service (C3) and merges it into the store. The provider
// itself is an opaque collaborator per spec §1; this package only wraps the
// HTTP call with retry/backoff and owns the merge rules of §4.2.
package provider

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/store"
)

// Fetcher is the opaque schedule-metadata collaborator: fetchSeason(year).
type Fetcher interface {
	FetchSeason(ctx context.Context, year int) (SeasonPayload, error)
}

// Importer runs RefreshSeason against a Fetcher and a Store.
type Importer struct {
	fetch Fetcher
	store *store.Store
}

// New builds an Importer over the given fetcher and store.
func New(fetch Fetcher, s *store.Store) *Importer {
	return &Importer{fetch: fetch, store: s}
}

// NewHTTPFetcher builds a Fetcher against an HTTP schedule-metadata endpoint.
func NewHTTPFetcher(baseURL string, client *http.Client) Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &httpFetcher{baseURL: baseURL, client: client}
}

// RefreshSeason fetches year's schedule and merges it into the store (C3).
// Transient failures retry 3x with exponential backoff (factor 2, initial
// 1s); a permanent failure surfaces a ProviderError and leaves existing
// rows untouched (§4.2).
func (imp *Importer) RefreshSeason(ctx context.Context, year int) error {
	correlationID := logging.NewCorrelationID()
	log := logging.Ctx(ctx).With().Str("correlation_id", correlationID).Int("year", year).Logger()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.Multiplier = 2
	withRetries := backoff.WithMaxRetries(bo, 2) // 3 total attempts

	var payload SeasonPayload
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		p, err := imp.fetch.FetchSeason(ctx, year)
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("schedule provider fetch failed, retrying")
			return err
		}
		payload = p
		return nil
	}, backoff.WithContext(withRetries, ctx))

	if err != nil {
		permanent := isPermanent(err)
		log.Error().Err(err).Bool("permanent", permanent).Msg("schedule provider fetch exhausted retries")
		return apperror.Provider("fetch season "+strconv.Itoa(year), err, permanent)
	}

	if err := imp.mergeSeason(ctx, year, payload); err != nil {
		return apperror.Provider("merge season "+strconv.Itoa(year), err, true)
	}

	log.Info().Int("rounds", len(payload.Rounds)).Msg("season refreshed")
	return nil
}

// mergeSeason implements §4.2's merge rules: upsert rounds by
// (season, round_number), upsert events by (round, type), round payload
// wins over season payload on conflicting fields, nulls tolerated.
func (imp *Importer) mergeSeason(ctx context.Context, year int, payload SeasonPayload) error {
	season, err := imp.store.UpsertSeason(ctx, year)
	if err != nil {
		return err
	}

	for _, rp := range payload.Rounds {
		name := rp.Name
		if name == "" {
			name = payload.SeasonName
		}
		roundID, err := imp.store.UpsertRound(ctx, models.Round{
			SeasonID:    season.ID,
			RoundNumber: rp.RoundNumber,
			Name:        stripSponsorTokens(name),
			Circuit:     rp.Circuit.Name,
			Country:     rp.Circuit.Country,
			CircuitTZ:   rp.Circuit.TimeZone,
		})
		if err != nil {
			return err
		}

		for _, sp := range rp.Sessions {
			if sp.StartTimeUTC == nil {
				continue // null-tolerant: missing Sprint/FP2/FP3 (§4.2)
			}
			if _, err := imp.store.UpsertEvent(ctx, models.Event{
				RoundID:      roundID,
				Type:         sp.Type,
				StartTimeUTC: sp.StartTimeUTC,
				EndTimeUTC:   sp.EndTimeUTC,
			}); err != nil {
				return err
			}
		}
	}

	return imp.store.TouchSeasonRefreshed(ctx, season.ID)
}

func isPermanent(err error) bool {
	var appErr *apperror.Error
	if apperror.As(err, &appErr) {
		if appErr.Kind == apperror.KindProvider {
			return apperror.IsPermanentProvider(err)
		}
		return !appErr.Retryable()
	}
	return false
}

