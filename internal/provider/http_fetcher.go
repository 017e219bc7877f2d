// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/models"
)

type httpFetcher struct {
	baseURL string
	client  *http.Client
}

// wireRace mirrors §6's documented shape loosely: round can arrive as either
// a number or a numeric string, sessions can be entirely absent, and
// circuitLength (unused here but present on the wire) can carry a unit
// suffix — all tolerated rather than rejected, matching the teacher's
// tautulli_client.go decoding idiom.
type wireRace struct {
	Round    wireFlexInt    `json:"round"`
	RaceID   string         `json:"raceId"`
	RaceName string         `json:"raceName"`
	Circuit  wireCircuit    `json:"circuit"`
	Schedule wireSchedule   `json:"schedule"`
}

type wireCircuit struct {
	Name          string `json:"circuitName"`
	City          string `json:"city"`
	Country       string `json:"country"`
	TimeZone      string `json:"timezone"`
	CircuitLength string `json:"circuitLength"`
}

type wireSession struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type wireSchedule struct {
	Race        *wireSession `json:"race"`
	Qualy       *wireSession `json:"qualy"`
	FP1         *wireSession `json:"fp1"`
	FP2         *wireSession `json:"fp2"`
	FP3         *wireSession `json:"fp3"`
	SprintQualy *wireSession `json:"sprintQualy"`
	SprintRace  *wireSession `json:"sprintRace"`
}

type wireSeasonResponse struct {
	Races []wireRace `json:"races"`
}

// wireFlexInt tolerates round arriving as either a JSON number or string.
type wireFlexInt int

func (f *wireFlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("round: %w", err)
	}
	*f = wireFlexInt(n)
	return nil
}

func (h *httpFetcher) FetchSeason(ctx context.Context, year int) (SeasonPayload, error) {
	url := fmt.Sprintf("%s/api/%d", strings.TrimSuffix(h.baseURL, "/"), year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return SeasonPayload{}, apperror.Provider("build request", err, true)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return SeasonPayload{}, apperror.Provider("fetch schedule", err, false)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return SeasonPayload{}, apperror.Provider(fmt.Sprintf("schedule provider returned %d", resp.StatusCode), nil, false)
	}
	if resp.StatusCode >= 400 {
		return SeasonPayload{}, apperror.Provider(fmt.Sprintf("schedule provider returned %d", resp.StatusCode), nil, true)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SeasonPayload{}, apperror.Provider("read response body", err, false)
	}

	var wire wireSeasonResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return SeasonPayload{}, apperror.Provider("decode schedule response", err, true)
	}

	return translate(wire), nil
}

func translate(wire wireSeasonResponse) SeasonPayload {
	payload := SeasonPayload{}
	for _, race := range wire.Races {
		var tz *string
		if race.Circuit.TimeZone != "" {
			v := race.Circuit.TimeZone
			tz = &v
		}
		rp := RoundPayload{
			RoundNumber: int(race.Round),
			Name:        race.RaceName,
			Circuit: CircuitPayload{
				Name:     race.Circuit.Name,
				City:     race.Circuit.City,
				Country:  race.Circuit.Country,
				TimeZone: tz,
			},
		}

		add := func(t models.SessionType, s *wireSession) {
			start := combineDateTime(s)
			if start == nil {
				return
			}
			rp.Sessions = append(rp.Sessions, SessionPayload{Type: t, StartTimeUTC: start})
		}
		add(models.SessionRace, race.Schedule.Race)
		add(models.SessionQualifying, race.Schedule.Qualy)
		add(models.SessionFP1, race.Schedule.FP1)
		add(models.SessionFP2, race.Schedule.FP2)
		add(models.SessionFP3, race.Schedule.FP3)
		add(models.SessionSprintQualifying, race.Schedule.SprintQualy)
		add(models.SessionSprint, race.Schedule.SprintRace)

		payload.Rounds = append(payload.Rounds, rp)
	}
	return payload
}

// combineDateTime joins date+time into a UTC timestamp (§6). Returns nil
// for a null or unparsable session rather than erroring the whole import
// (§4.2: nulls tolerated).
func combineDateTime(s *wireSession) *time.Time {
	if s == nil || s.Date == "" {
		return nil
	}
	layout := "2006-01-02T15:04:05Z"
	raw := s.Date
	if s.Time != "" {
		raw = s.Date + "T" + strings.TrimSuffix(s.Time, "Z") + "Z"
	} else {
		raw = s.Date + "T00:00:00Z"
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return nil
	}
	return &t
}
