// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config holds process-boot configuration (C10's boot half):
// database path, scheduler tick interval, concurrency caps, and the
// schedule-metadata provider endpoint. This is distinct from the mutable,
// operator-editable models.Settings row, which is read fresh from the
// store on every tick (§4.8) rather than cached here. Loaded via koanf
// with layered sources, exactly as the teacher's internal/config/koanf.go
// does: env > file > struct defaults.
package config

import "time"

// Config is the top-level, boot-time configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Provider  ProviderConfig  `koanf:"provider"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig configures the embedded DuckDB store (C2).
type DatabaseConfig struct {
	Path    string `koanf:"path"`
	Threads int    `koanf:"threads"`
}

// SchedulerConfig configures the C9 tick loop and concurrency caps. These
// mirror the §6 "Environment inputs" list, separate from the per-search
// quality knobs that live in models.Settings.
type SchedulerConfig struct {
	TickSeconds           int           `koanf:"tick_seconds"`
	GlobalConcurrency     int           `koanf:"global_concurrency"`
	PerIndexerConcurrency int           `koanf:"per_indexer_concurrency"`
	StopAfterDays         int           `koanf:"stop_after_days"`
	JitterSeconds         int           `koanf:"jitter_seconds"`
	DownloadPollInterval  time.Duration `koanf:"download_poll_interval"`
}

// ProviderConfig points at the schedule-metadata provider (C3's opaque
// fetchSeason(year) collaborator, an external HTTP service).
type ProviderConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig configures the C1 logger at boot; Level can subsequently be
// overridden live via models.Settings.LogLevel (§4.8).
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in defaults applied before file/env overrides.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path:    "/data/pitlane.duckdb",
			Threads: 0,
		},
		Scheduler: SchedulerConfig{
			TickSeconds:           600,
			GlobalConcurrency:     3,
			PerIndexerConcurrency: 1,
			StopAfterDays:         14,
			JitterSeconds:         120,
			DownloadPollInterval:  5 * time.Minute,
		},
		Provider: ProviderConfig{
			BaseURL: "http://localhost:8090",
			Timeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
