// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

func TestLoadDefaultsWithNoFileOrEnv(t *testing.T) {
	os.Unsetenv(ConfigPathEnvVar)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scheduler.TickSeconds != 600 {
		t.Errorf("expected default tick_seconds=600, got %d", cfg.Scheduler.TickSeconds)
	}
	if cfg.Scheduler.GlobalConcurrency != 3 {
		t.Errorf("expected default global_concurrency=3, got %d", cfg.Scheduler.GlobalConcurrency)
	}
}

func TestEnvTransformNestedKey(t *testing.T) {
	key, val := envTransform("PITLANE_DATABASE_PATH", "/tmp/x.duckdb")
	if key != "database.path" {
		t.Errorf("expected database.path, got %q", key)
	}
	if val != "/tmp/x.duckdb" {
		t.Errorf("expected value passthrough, got %v", val)
	}
}

func TestResolveConfigPathEnvOverride(t *testing.T) {
	os.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")
	defer os.Unsetenv(ConfigPathEnvVar)
	if got := resolveConfigPath(); got != "/nonexistent/config.yaml" {
		t.Errorf("expected env override path, got %q", got)
	}
}
