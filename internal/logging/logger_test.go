// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitAndLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("should be filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}

	Warn().Msg("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn line, got %q", buf.String())
	}
}

func TestInitJSONShape(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("component", "scheduler").Msg("tick")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected valid JSON line, got error %v on %q", err, buf.String())
	}
	if line["message"] != "tick" {
		t.Errorf("expected message=tick, got %v", line["message"])
	}
	if line["component"] != "scheduler" {
		t.Errorf("expected component=scheduler, got %v", line["component"])
	}
}

func TestSetLevelLive(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	SetLevel("error")
	Warn().Msg("should now be filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected warn filtered after SetLevel(error), got %q", buf.String())
	}
}
