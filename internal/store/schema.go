// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// initSchema creates every table with idempotent CREATE TABLE IF NOT
// EXISTS statements, then the indices named in §4.1. There is no separate
// migration runner: the schema's own idempotence is the migration story,
// matching the teacher's pre-release schema strategy.
func (s *Store) initSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range tableQueries {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w (query: %s)", err, q)
		}
	}
	for _, q := range indexQueries {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create index: %w (query: %s)", err, q)
		}
	}
	if err := s.seedDefaultSettings(ctx); err != nil {
		return fmt.Errorf("seed default settings: %w", err)
	}
	if err := s.seedVenueAliases(ctx); err != nil {
		return fmt.Errorf("seed venue aliases: %w", err)
	}
	return nil
}

var tableQueries = []string{
	`CREATE TABLE IF NOT EXISTS seasons (
		id             BIGINT PRIMARY KEY,
		year           INTEGER NOT NULL UNIQUE,
		last_refreshed TIMESTAMP,
		is_hidden      BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE SEQUENCE IF NOT EXISTS seasons_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS rounds (
		id           BIGINT PRIMARY KEY,
		season_id    BIGINT NOT NULL,
		round_number INTEGER NOT NULL,
		name         TEXT NOT NULL,
		circuit      TEXT NOT NULL,
		country      TEXT NOT NULL,
		circuit_tz   TEXT,
		UNIQUE (season_id, round_number)
	)`,
	`CREATE SEQUENCE IF NOT EXISTS rounds_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS events (
		id            BIGINT PRIMARY KEY,
		round_id      BIGINT NOT NULL,
		type          TEXT NOT NULL,
		start_time_utc TIMESTAMP,
		end_time_utc   TIMESTAMP,
		UNIQUE (round_id, type)
	)`,
	`CREATE SEQUENCE IF NOT EXISTS events_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS indexers (
		id           BIGINT PRIMARY KEY,
		name         TEXT NOT NULL,
		kind         TEXT NOT NULL,
		base_url     TEXT NOT NULL,
		api_key      TEXT NOT NULL,
		category_ids TEXT NOT NULL DEFAULT '',
		priority     INTEGER NOT NULL DEFAULT 0,
		enabled      BOOLEAN NOT NULL DEFAULT true,
		last_error   TEXT
	)`,
	`CREATE SEQUENCE IF NOT EXISTS indexers_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS downloaders (
		id         BIGINT PRIMARY KEY,
		name       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		base_url   TEXT NOT NULL,
		api_key    TEXT NOT NULL,
		category   TEXT NOT NULL DEFAULT '',
		priority   INTEGER NOT NULL DEFAULT 0,
		enabled    BOOLEAN NOT NULL DEFAULT true,
		last_error TEXT
	)`,
	`CREATE SEQUENCE IF NOT EXISTS downloaders_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS scheduled_searches (
		id                 BIGINT PRIMARY KEY,
		round_id           BIGINT NOT NULL,
		event_type         TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'Scheduled',
		downloader_id      BIGINT,
		quality_overrides  TEXT,
		added_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_searched_at   TIMESTAMP,
		next_run_at        TIMESTAMP,
		last_error         TEXT,
		attempts           INTEGER NOT NULL DEFAULT 0,
		chosen_nzb         TEXT,
		dispatch_token     TEXT NOT NULL DEFAULT '',
		UNIQUE (round_id, event_type)
	)`,
	`CREATE SEQUENCE IF NOT EXISTS scheduled_searches_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS download_history (
		id             BIGINT PRIMARY KEY,
		event_id       BIGINT NOT NULL,
		indexer_id     BIGINT NOT NULL,
		downloader_id  BIGINT NOT NULL,
		acquisition_id TEXT NOT NULL DEFAULT '',
		nzb_title      TEXT NOT NULL,
		nzb_url        TEXT NOT NULL,
		score          INTEGER NOT NULL,
		status         TEXT NOT NULL,
		last_polled_at TIMESTAMP,
		created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE SEQUENCE IF NOT EXISTS download_history_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS notification_targets (
		id             BIGINT PRIMARY KEY,
		kind           TEXT NOT NULL,
		url            TEXT NOT NULL,
		name           TEXT NOT NULL,
		event_mask     TEXT NOT NULL DEFAULT '',
		webhook_secret TEXT
	)`,
	`CREATE SEQUENCE IF NOT EXISTS notification_targets_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS cached_round_search (
		round_id              BIGINT NOT NULL,
		allowlist_fingerprint TEXT NOT NULL,
		created_at            TIMESTAMP NOT NULL,
		ttl_hours             INTEGER NOT NULL,
		results_json          TEXT NOT NULL,
		PRIMARY KEY (round_id, allowlist_fingerprint)
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		singleton                INTEGER PRIMARY KEY DEFAULT 1 CHECK (singleton = 1),
		min_resolution           TEXT,
		max_resolution           TEXT,
		allow_hdr                BOOLEAN,
		preferred_codecs         TEXT NOT NULL DEFAULT '',
		preferred_groups         TEXT NOT NULL DEFAULT '',
		auto_download_threshold  INTEGER NOT NULL DEFAULT 70,
		default_downloader_id    BIGINT,
		event_allowlist          TEXT NOT NULL DEFAULT '',
		log_level                TEXT NOT NULL DEFAULT 'info',
		scheduler_tick_seconds   INTEGER NOT NULL DEFAULT 600,
		maxage_pre_days          INTEGER NOT NULL DEFAULT 14,
		maxage_post_days         INTEGER NOT NULL DEFAULT 7,
		aggressive_window_hours  INTEGER NOT NULL DEFAULT 24,
		decay_interval_hours     INTEGER NOT NULL DEFAULT 6,
		stop_after_days          INTEGER NOT NULL DEFAULT 14,
		jitter_seconds           INTEGER NOT NULL DEFAULT 120,
		per_indexer_concurrency  INTEGER NOT NULL DEFAULT 1,
		global_concurrency       INTEGER NOT NULL DEFAULT 3
	)`,

	// venue_aliases resolves round metadata tokens (circuit, city, country)
	// to the canonical venue token used by the query builder (§9 Open
	// Question iii). Operator-editable; seeded with a couple of entries
	// where the release-scene name diverges sharply from provider data.
	`CREATE TABLE IF NOT EXISTS venue_aliases (
		circuit TEXT PRIMARY KEY,
		alias   TEXT NOT NULL
	)`,
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_seasons_year ON seasons (year)`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_season_number ON rounds (season_id, round_number)`,
	`CREATE INDEX IF NOT EXISTS idx_events_round_type ON events (round_id, type)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_searches_due ON scheduled_searches (status, next_run_at)`,
	`CREATE INDEX IF NOT EXISTS idx_cached_round_search_key ON cached_round_search (round_id, allowlist_fingerprint)`,
}

func (s *Store) seedDefaultSettings(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `INSERT INTO settings (singleton) VALUES (1) ON CONFLICT (singleton) DO NOTHING`)
	return err
}

func (s *Store) seedVenueAliases(ctx context.Context) error {
	seed := map[string]string{
		"Bahrain International Circuit": "Sakhir",
		"Circuit de Monaco":             "Monaco",
	}
	for circuit, alias := range seed {
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO venue_aliases (circuit, alias) VALUES (?, ?) ON CONFLICT (circuit) DO NOTHING`,
			circuit, alias); err != nil {
			return err
		}
	}
	return nil
}
