// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"time"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// SeasonPayload is the normalized shape RefreshSeason works with, after
// translating whatever wire shape the schedule-metadata provider actually
// returns (§6: "races[] with round, raceId, raceName, schedule.{...},
// circuit {city,country}").
type SeasonPayload struct {
	SeasonName string
	Rounds     []RoundPayload
}

// RoundPayload is one race weekend as reported by the provider.
type RoundPayload struct {
	RoundNumber int
	Name        string
	Circuit     CircuitPayload
	Sessions    []SessionPayload
}

// CircuitPayload carries the venue tokens the query builder's alias
// resolver draws from (§4.4).
type CircuitPayload struct {
	Name     string
	City     string
	Country  string
	TimeZone *string
}

// SessionPayload is one timed session within a round. StartTimeUTC nil
// means the provider omitted it (e.g. no Sprint that weekend) — tolerated
// per §4.2.
type SessionPayload struct {
	Type         models.SessionType
	StartTimeUTC *time.Time
	EndTimeUTC   *time.Time
}
