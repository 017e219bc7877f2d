// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"fmt"
	"strings"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// Quality is the resolved (settings defaults + overrides) quality policy
// a candidate is scored against.
type Quality struct {
	MinResolution     string
	MaxResolution     string
	AllowHDR          bool
	PreferredCodecs   []string
	PreferredGroups   []string
	AutoDownloadScore int
}

// resolutionRank orders resolutions from lowest to highest so {min,max}
// bounds can be compared.
var resolutionRank = map[string]int{"480p": 0, "720p": 1, "1080p": 2, "2160p": 3}

// ScoreCandidate applies the additive table of §4.4 to one classified
// title against a search target and quality policy, returning the score
// and its reasons vector.
func ScoreCandidate(c Classified, t Target, q Quality) (score int, reasons []string, yearMismatch, roundMismatch bool) {
	add := func(delta int, reason string) {
		score += delta
		reasons = append(reasons, fmt.Sprintf("%+d %s", delta, reason))
	}

	if c.HasYear {
		if c.Year == t.Year {
			add(40, "year matches")
		} else {
			add(-40, "year mismatch")
			yearMismatch = true
		}
	}

	if c.HasRound && t.Round > 0 {
		if c.Round == t.Round {
			add(35, "round matches")
		} else {
			add(-40, "round mismatch")
			roundMismatch = true
		}
	}

	if c.Session == t.Session {
		add(25, "session matches")
	}

	if venueTokenMatches(c.Title, t) {
		add(15, "venue token matches")
	}

	if c.IsPreviewOrNotebook() && isCoreSession(t.Session) {
		add(-20, "classified as Preview/Notebook for a core session request")
	}

	if containsFold(q.PreferredGroups, c.Group) {
		add(10, "release group preferred")
	}

	withinRange := inResolutionRange(c.Resolution, q.MinResolution, q.MaxResolution)
	if containsFold(q.PreferredCodecs, c.Codec) && withinRange {
		add(5, "preferred codec within resolution range")
	}

	if c.HDR && !q.AllowHDR {
		add(-25, "HDR present but not allowed")
	}

	if c.Resolution != "" && !withinRange {
		add(-30, "outside configured resolution range")
	}

	return score, reasons, yearMismatch, roundMismatch
}

func isCoreSession(s models.SessionType) bool {
	switch s {
	case models.SessionRace, models.SessionQualifying, models.SessionSprint, models.SessionFP1, models.SessionFP2, models.SessionFP3:
		return true
	default:
		return false
	}
}

// venueTokenMatches reports whether the target's venue, city, or country
// appears anywhere in the raw title (§4.4: "venue token (city/country/
// circuit) matches").
func venueTokenMatches(title string, t Target) bool {
	lower := strings.ToLower(title)
	for _, candidate := range []string{t.Venue, t.City, t.Country} {
		if candidate == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(candidate)) {
			return true
		}
	}
	return false
}

func containsFold(list []string, value string) bool {
	if value == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func inResolutionRange(res, min, max string) bool {
	if res == "" {
		return true // unknown resolution: no penalty, no bonus eligibility beyond this check
	}
	r, ok := resolutionRank[res]
	if !ok {
		return true
	}
	lo, hasLo := resolutionRank[min]
	hi, hasHi := resolutionRank[max]
	if hasLo && r < lo {
		return false
	}
	if hasHi && r > hi {
		return false
	}
	return true
}
