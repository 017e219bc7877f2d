// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search builds the Newznab query fan-out for one (year, round,
// session) target, classifies and scores the results, and merges
// duplicates by canonical key (C5).
package search

import (
	"fmt"

	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/newznab"
)

// sessionQueryTokens maps a canonical session type to the free-text token
// used in query templates 1-4 (§4.4).
var sessionQueryTokens = map[models.SessionType]string{
	models.SessionFP1:              "FP1",
	models.SessionFP2:              "FP2",
	models.SessionFP3:              "FP3",
	models.SessionQualifying:       "Qualifying",
	models.SessionSprint:           "Sprint",
	models.SessionSprintQualifying: "Sprint Qualifying",
	models.SessionRace:             "Race",
}

// Target describes one (year, round, session) the query builder fans out
// queries for.
type Target struct {
	Year    int
	Round   int
	Session models.SessionType
	Venue   string // round.Circuit, as imported
	City    string
	Country string
}

// BuildQueries emits query templates 1-4 of §4.4: three free-text searches
// per venue token plus one tvsearch. Item 5's venue aliases (city/country/
// circuit short name) are the venue tokens substituted into the templates.
func BuildQueries(t Target) []newznab.Query {
	session := sessionQueryTokens[t.Session]
	if session == "" {
		session = string(t.Session)
	}

	venues := venueTokens(t)
	queries := make([]newznab.Query, 0, len(venues)*3+1)

	for _, venue := range venues {
		queries = append(queries,
			newznab.Query{Mode: "search", Q: fmt.Sprintf("Formula 1 %d %s %s", t.Year, venue, session)},
			newznab.Query{Mode: "search", Q: fmt.Sprintf("Formula1 %d Round%02d %s %s", t.Year, t.Round, venue, session)},
			newznab.Query{Mode: "search", Q: fmt.Sprintf("F1 %d %s %s", t.Year, venue, session)},
		)
	}

	queries = append(queries, newznab.Query{
		Mode:    "tvsearch",
		Q:       fmt.Sprintf("Formula 1 %s", session),
		Season:  t.Year,
		Episode: t.Round,
	})

	return queries
}

// venueTokens returns the distinct, non-empty venue aliases to substitute
// into the templated queries: circuit name, city, country (§4.4 item 5).
func venueTokens(t Target) []string {
	seen := make(map[string]struct{}, 3)
	out := make([]string, 0, 3)
	for _, v := range []string{t.Venue, t.City, t.Country} {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}
