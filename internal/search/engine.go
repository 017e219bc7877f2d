// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"

	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/newznab"
	"github.com/pitlane-grab/pitlane/internal/store"
)

// Engine runs the full C5 pipeline: build the query set for a target,
// fan the queries out across every enabled indexer via the C4 pool,
// classify, score and merge. It holds no mutable state of its own (§5:
// "the classifier/scorer is pure").
type Engine struct {
	pool  *newznab.Pool
	store *store.Store
}

// NewEngine builds an Engine over a shared indexer pool and store (the
// store is consulted for venue alias resolution and the round's season
// year).
func NewEngine(pool *newznab.Pool, s *store.Store) *Engine {
	return &Engine{pool: pool, store: s}
}

// Run executes the full fan-out for one round/session target against
// every enabled indexer and returns the merged, scored, descending-score
// candidate list.
func (e *Engine) Run(ctx context.Context, round models.Round, session models.SessionType, q Quality) ([]models.ScoredCandidate, error) {
	target := Target{
		Round:   round.RoundNumber,
		Session: session,
		Venue:   round.Circuit,
		Country: round.Country,
	}
	if alias, ok := e.store.VenueAlias(ctx, round.Circuit); ok {
		target.City = alias
	}
	if year, ok := seasonYearOf(ctx, e.store, round.SeasonID); ok {
		target.Year = year
	}

	queries := BuildQueries(target)

	var all []models.ScoredCandidate
	for _, idx := range e.pool.Enabled() {
		for _, qu := range queries {
			items, err := e.pool.Search(ctx, idx.ID, qu)
			if err != nil {
				logging.Ctx(ctx).Debug().Str("indexer", idx.Name).Err(err).Msg("query fan-out call failed, skipping")
				continue
			}
			all = append(all, ScoreResults(items, idx.ID, idx.Name, target, q)...)
		}
	}

	return Merge(all, q), nil
}

func seasonYearOf(ctx context.Context, s *store.Store, seasonID int64) (int, bool) {
	seasons, err := s.ListSeasons(ctx)
	if err != nil {
		return 0, false
	}
	for _, season := range seasons {
		if season.ID == seasonID {
			return season.Year, true
		}
	}
	return 0, false
}

// FilterHardMismatches drops candidates with a year or round mismatch from
// auto-grab consideration; manual/operator surfaces keep the full list
// (§4.4 hard filters).
func FilterHardMismatches(candidates []models.ScoredCandidate) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.YearMismatch || c.RoundMismatch {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Best returns the highest-scoring eligible candidate, or false if none
// remain after hard filtering.
func Best(candidates []models.ScoredCandidate) (models.ScoredCandidate, bool) {
	eligible := FilterHardMismatches(candidates)
	if len(eligible) == 0 {
		return models.ScoredCandidate{}, false
	}
	return eligible[0], true // Merge already sorts descending by score
}
