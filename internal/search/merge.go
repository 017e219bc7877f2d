// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/newznab"
)

// CanonicalKey derives the §4.4 merge key: identical keys collapse into one
// candidate, keeping the highest score and the union of source indexers.
// Venue is taken from the search target rather than the classified title,
// since every candidate in one fan-out shares the same target round.
func CanonicalKey(c Classified, t Target) string {
	return fmt.Sprintf("%d|%d|%s|%s|%s|%s|%s|%s",
		t.Year, t.Round, c.Session, t.Venue, c.Resolution, c.Codec, c.Group, c.SizeBucket())
}

// ScoreResults classifies and scores every raw item returned for target t
// against indexerName, producing one ScoredCandidate per item (pre-merge).
func ScoreResults(items []newznab.Item, indexerID int64, indexerName string, t Target, q Quality) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, 0, len(items))
	for _, it := range items {
		c := Classify(it.Title)
		score, reasons, yearMismatch, roundMismatch := ScoreCandidate(c, t, q)
		out = append(out, models.ScoredCandidate{
			Title:         it.Title,
			NZBURL:        it.Link,
			PubDate:       it.PubDate,
			SizeBytes:     it.SizeBytes,
			IndexerNames:  []string{indexerName},
			IndexerID:     indexerID,
			Year:          c.Year,
			Round:         c.Round,
			Session:       c.Session,
			Venue:         t.Venue,
			Resolution:    c.Resolution,
			Codec:         c.Codec,
			Group:         c.Group,
			HDR:           c.HDR,
			Score:         score,
			Reasons:       reasons,
			YearMismatch:  yearMismatch,
			RoundMismatch: roundMismatch,
			CanonicalKey:  CanonicalKey(c, t),
		})
	}
	return out
}

// Merge collapses candidates sharing a canonical key, keeping the
// highest-scoring one and the union of all source indexer names (§4.4).
func Merge(candidates []models.ScoredCandidate, q Quality) []models.ScoredCandidate {
	groups := make(map[string][]models.ScoredCandidate)
	order := make([]string, 0)
	for _, c := range candidates {
		if _, ok := groups[c.CanonicalKey]; !ok {
			order = append(order, c.CanonicalKey)
		}
		groups[c.CanonicalKey] = append(groups[c.CanonicalKey], c)
	}

	merged := make([]models.ScoredCandidate, 0, len(order))
	for _, key := range order {
		group := groups[key]
		best := pickBest(group, q)
		best.IndexerNames = unionIndexerNames(group)
		merged = append(merged, best)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	return merged
}

func unionIndexerNames(group []models.ScoredCandidate) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(group))
	for _, c := range group {
		for _, n := range c.IndexerNames {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// pickBest applies §4.4's tie-break: preferred resolution > preferred codec
// > newer pubdate > smaller size deviation from the group's median size.
func pickBest(group []models.ScoredCandidate, q Quality) models.ScoredCandidate {
	if len(group) == 1 {
		return group[0]
	}

	median := medianSize(group)

	best := group[0]
	for _, c := range group[1:] {
		if c.Score != best.Score {
			if c.Score > best.Score {
				best = c
			}
			continue
		}
		if winner := tieBreak(best, c, median, q); winner {
			best = c
		}
	}
	return best
}

// tieBreak reports whether candidate b should replace candidate a.
func tieBreak(a, b models.ScoredCandidate, median float64, q Quality) bool {
	aPreferredRes := inResolutionRange(a.Resolution, q.MinResolution, q.MaxResolution)
	bPreferredRes := inResolutionRange(b.Resolution, q.MinResolution, q.MaxResolution)
	if aPreferredRes != bPreferredRes {
		return bPreferredRes
	}

	aPreferredCodec := containsFold(q.PreferredCodecs, a.Codec)
	bPreferredCodec := containsFold(q.PreferredCodecs, b.Codec)
	if aPreferredCodec != bPreferredCodec {
		return bPreferredCodec
	}

	if !a.PubDate.Equal(b.PubDate) {
		return b.PubDate.After(a.PubDate)
	}

	aDev := math.Abs(float64(a.SizeBytes) - median)
	bDev := math.Abs(float64(b.SizeBytes) - median)
	return bDev < aDev
}

func medianSize(group []models.ScoredCandidate) float64 {
	sizes := make([]int64, len(group))
	for i, c := range group {
		sizes[i] = c.SizeBytes
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	n := len(sizes)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(sizes[n/2])
	}
	return float64(sizes[n/2-1]+sizes[n/2]) / 2
}
