// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"testing"

	"github.com/pitlane-grab/pitlane/internal/models"
)

func TestClassifyFormulaStyleTitle(t *testing.T) {
	c := Classify("Formula.1.2025.Round03.Bahrain.Qualifying.1080p.x265-NTb")
	checkBoolEqual(t, c.HasYear, true)
	checkIntEqual(t, c.Year, 2025)
	checkBoolEqual(t, c.HasRound, true)
	checkIntEqual(t, c.Round, 3)
	checkStringEqual(t, string(c.Session), string(models.SessionQualifying))
	checkStringEqual(t, c.Resolution, "1080p")
	checkStringEqual(t, c.Codec, "x265")
	checkStringEqual(t, c.Group, "NTb")
}

func TestClassifyPreviewIsFlagged(t *testing.T) {
	c := Classify("F1 2025 Bahrain Qualifying Preview 720p")
	if !c.IsPreviewOrNotebook() {
		t.Fatalf("expected Preview/Notebook classification, got session=%q raw=%q", c.Session, c.RawSession)
	}
}

func TestClassifyTVStyleFallback(t *testing.T) {
	c := Classify("Formula1.2026.S2026E01.Bahrain.GP.Race.1080p")
	checkBoolEqual(t, c.HasYear, true)
	checkIntEqual(t, c.Year, 2026)
}

func TestClassifyHDRDetection(t *testing.T) {
	c := Classify("Formula.1.2025.Round03.Bahrain.Race.2160p.HDR.x265-GROUP")
	if !c.HDR {
		t.Fatal("expected HDR true")
	}
	checkStringEqual(t, c.Resolution, "2160p")
}
