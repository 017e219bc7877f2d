// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"testing"
	"time"

	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/newznab"
)

func TestMergeCollapsesSameCanonicalKeyKeepingHighestScore(t *testing.T) {
	target := Target{Year: 2025, Round: 3, Session: models.SessionQualifying, Venue: "Bahrain"}
	q := defaultQuality()

	items := []newznab.Item{
		{Title: "Formula.1.2025.Round03.Bahrain.Qualifying.1080p.x265-NTb", Link: "nzb://a", PubDate: time.Now()},
		{Title: "Formula.1.2025.Round03.Bahrain.Qualifying.1080p.x265-NTb", Link: "nzb://b", PubDate: time.Now()},
	}

	scoredA := ScoreResults(items[:1], 1, "indexer-a", target, q)
	scoredB := ScoreResults(items[1:], 2, "indexer-b", target, q)
	all := append(scoredA, scoredB...)

	merged := Merge(all, q)
	checkIntEqual(t, len(merged), 1)
	checkIntEqual(t, len(merged[0].IndexerNames), 2)
}

func TestMergeSortsDescendingByScore(t *testing.T) {
	target := Target{Year: 2025, Round: 3, Session: models.SessionQualifying, Venue: "Bahrain"}
	q := defaultQuality()

	items := []newznab.Item{
		{Title: "Formula.1.2025.Round03.Bahrain.Qualifying.1080p.x265-NTb", Link: "nzb://a"},
		{Title: "F1 2025 Bahrain Qualifying Preview 720p", Link: "nzb://b"},
	}
	scored := ScoreResults(items, 1, "indexer-a", target, q)
	merged := Merge(scored, q)

	checkIntEqual(t, len(merged), 2)
	if merged[0].Score < merged[1].Score {
		t.Fatalf("expected descending score order, got %+v", merged)
	}
}

func TestFilterHardMismatchesDropsYearAndRoundMismatch(t *testing.T) {
	candidates := []models.ScoredCandidate{
		{Title: "ok", Score: 100},
		{Title: "bad-year", Score: 90, YearMismatch: true},
		{Title: "bad-round", Score: 95, RoundMismatch: true},
	}
	filtered := FilterHardMismatches(candidates)
	checkIntEqual(t, len(filtered), 1)
	checkStringEqual(t, filtered[0].Title, "ok")
}

func TestBestReturnsFalseWhenAllFiltered(t *testing.T) {
	candidates := []models.ScoredCandidate{
		{Title: "bad", Score: 100, YearMismatch: true},
	}
	_, ok := Best(candidates)
	checkBoolEqual(t, ok, false)
}
