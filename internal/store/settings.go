// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"strings"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// GetSettings reads the singleton settings row fresh; called on boot and
// before every search (§4.8: no cached copy that could go stale).
func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	var m models.Settings
	var preferredCodecs, preferredGroups, eventAllowlist string
	row := s.conn.QueryRowContext(ctx, `
		SELECT min_resolution, max_resolution, allow_hdr, preferred_codecs, preferred_groups,
		       auto_download_threshold, default_downloader_id, event_allowlist, log_level,
		       scheduler_tick_seconds, maxage_pre_days, maxage_post_days, aggressive_window_hours,
		       decay_interval_hours, stop_after_days, jitter_seconds, per_indexer_concurrency, global_concurrency
		FROM settings WHERE singleton = 1`)
	err := row.Scan(
		&m.MinResolution, &m.MaxResolution, &m.AllowHDR, &preferredCodecs, &preferredGroups,
		&m.AutoDownloadThreshold, &m.DefaultDownloaderID, &eventAllowlist, &m.LogLevel,
		&m.SchedulerTickSeconds, &m.MaxAgePreDays, &m.MaxAgePostDays, &m.AggressiveWindowHours,
		&m.DecayIntervalHours, &m.StopAfterDays, &m.JitterSeconds, &m.PerIndexerConcurrency, &m.GlobalConcurrency,
	)
	if err != nil {
		return models.Settings{}, err
	}
	m.PreferredCodecs = splitCSV(preferredCodecs)
	m.PreferredGroups = splitCSV(preferredGroups)
	for _, tok := range splitCSV(eventAllowlist) {
		m.EventAllowlist = append(m.EventAllowlist, models.SessionType(tok))
	}
	return m, nil
}

// UpdateSettings overwrites the singleton row. log_level changes take
// effect immediately (the caller is expected to also push the new level
// into the live logger); scheduler_tick_seconds takes effect at the next
// tick boundary (§4.8).
func (s *Store) UpdateSettings(ctx context.Context, m models.Settings) error {
	allowlist := make([]string, len(m.EventAllowlist))
	for i, e := range m.EventAllowlist {
		allowlist[i] = string(e)
	}
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `
			UPDATE settings SET
				min_resolution = ?, max_resolution = ?, allow_hdr = ?, preferred_codecs = ?, preferred_groups = ?,
				auto_download_threshold = ?, default_downloader_id = ?, event_allowlist = ?, log_level = ?,
				scheduler_tick_seconds = ?, maxage_pre_days = ?, maxage_post_days = ?, aggressive_window_hours = ?,
				decay_interval_hours = ?, stop_after_days = ?, jitter_seconds = ?, per_indexer_concurrency = ?,
				global_concurrency = ?
			WHERE singleton = 1`,
			m.MinResolution, m.MaxResolution, m.AllowHDR, strings.Join(m.PreferredCodecs, ","), strings.Join(m.PreferredGroups, ","),
			m.AutoDownloadThreshold, m.DefaultDownloaderID, strings.Join(allowlist, ","), m.LogLevel,
			m.SchedulerTickSeconds, m.MaxAgePreDays, m.MaxAgePostDays, m.AggressiveWindowHours,
			m.DecayIntervalHours, m.StopAfterDays, m.JitterSeconds, m.PerIndexerConcurrency, m.GlobalConcurrency)
		return err
	})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
