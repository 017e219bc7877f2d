// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"testing"

	"github.com/pitlane-grab/pitlane/internal/models"
)

func defaultQuality() Quality {
	return Quality{
		MinResolution:     "720p",
		MaxResolution:     "1080p",
		AllowHDR:          false,
		AutoDownloadScore: 70,
	}
}

// TestScoringMatchesS1Example mirrors the spec's worked example: a
// well-formed release scores comfortably above threshold, a Preview
// release at a wrong resolution stays well below it.
func TestScoringMatchesS1Example(t *testing.T) {
	target := Target{Year: 2025, Round: 3, Session: models.SessionQualifying, Venue: "Bahrain"}
	q := defaultQuality()

	a := Classify("Formula.1.2025.Round03.Bahrain.Qualifying.1080p.x265-NTb")
	scoreA, _, yearMismatchA, roundMismatchA := ScoreCandidate(a, target, q)
	if scoreA < 100 {
		t.Fatalf("expected release A to score highly, got %d", scoreA)
	}
	checkBoolEqual(t, yearMismatchA, false)
	checkBoolEqual(t, roundMismatchA, false)

	b := Classify("F1 2025 Bahrain Qualifying Preview 720p")
	scoreB, reasons, _, _ := ScoreCandidate(b, target, q)
	if scoreB >= scoreA {
		t.Fatalf("expected preview release B to score below A: A=%d B=%d", scoreA, scoreB)
	}
	foundPreviewPenalty := false
	for _, r := range reasons {
		if r == "-20 classified as Preview/Notebook for a core session request" {
			foundPreviewPenalty = true
		}
	}
	if !foundPreviewPenalty {
		t.Fatalf("expected preview penalty in reasons, got %v", reasons)
	}
}

func TestScoreYearMismatchIsHardFilterSignal(t *testing.T) {
	target := Target{Year: 2026, Round: 1, Session: models.SessionRace}
	c := Classify("Formula.1.2024.Round01.Bahrain.Race.1080p.x265-GROUP")
	_, _, yearMismatch, _ := ScoreCandidate(c, target, defaultQuality())
	checkBoolEqual(t, yearMismatch, true)
}

func TestScoreHDRPenaltyWhenNotAllowed(t *testing.T) {
	target := Target{Year: 2025, Round: 3, Session: models.SessionRace}
	q := defaultQuality()
	c := Classify("Formula.1.2025.Round03.Bahrain.Race.2160p.HDR.x265-GROUP")
	score, _, _, _ := ScoreCandidate(c, target, q)

	cNoHDR := Classify("Formula.1.2025.Round03.Bahrain.Race.1080p.x265-GROUP")
	scoreNoHDR, _, _, _ := ScoreCandidate(cNoHDR, target, q)

	if score >= scoreNoHDR {
		t.Fatalf("expected HDR release to score lower when allow_hdr=false: hdr=%d no_hdr=%d", score, scoreNoHDR)
	}
}
