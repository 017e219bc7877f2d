// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings wraps the single settings row (C10): load-on-boot,
// validate-then-persist on every mutation, and push live side effects
// (currently just the log level) the moment a change lands, per §4.8.
package settings

import (
	"context"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/store"
	"github.com/pitlane-grab/pitlane/internal/validation"
)

// Update is the validated request shape for an operator settings change.
// Every field is optional (a zero value leaves the current setting
// untouched); callers build it from whatever subset of fields the
// operator actually supplied.
type Update struct {
	MinResolution         *string              `validate:"omitempty,oneof=480p 720p 1080p 2160p"`
	MaxResolution         *string              `validate:"omitempty,oneof=480p 720p 1080p 2160p"`
	AllowHDR              *bool
	PreferredCodecs       []string
	PreferredGroups       []string
	AutoDownloadThreshold *int  `validate:"omitempty,min=0,max=1000"`
	DefaultDownloaderID   *int64
	EventAllowlist        []models.SessionType
	LogLevel              *string `validate:"omitempty,oneof=debug info warn error disabled"`
	SchedulerTickSeconds  *int    `validate:"omitempty,min=30,max=86400"`
	MaxAgePreDays         *int    `validate:"omitempty,min=0,max=30"`
	MaxAgePostDays        *int    `validate:"omitempty,min=0,max=30"`
	AggressiveWindowHours *int    `validate:"omitempty,min=1,max=720"`
	DecayIntervalHours    *int    `validate:"omitempty,min=1,max=720"`
	StopAfterDays         *int    `validate:"omitempty,min=1,max=90"`
	JitterSeconds         *int    `validate:"omitempty,min=0,max=3600"`
	PerIndexerConcurrency *int    `validate:"omitempty,min=1,max=16"`
	GlobalConcurrency     *int    `validate:"omitempty,min=1,max=64"`
}

// Manager reads and mutates the singleton settings row, pushing any live
// side effects of a change out to the rest of the process.
type Manager struct {
	store *store.Store
}

// New builds a Manager over the given store.
func New(s *store.Store) *Manager {
	return &Manager{store: s}
}

// Get returns the current settings, read fresh from the store (§4.8: "no
// cached copy that could go stale").
func (m *Manager) Get(ctx context.Context) (models.Settings, error) {
	return m.store.GetSettings(ctx)
}

// Apply validates an Update, merges it onto the current settings, persists
// the result, and pushes any live side effects (currently: log level).
func (m *Manager) Apply(ctx context.Context, u Update) (models.Settings, error) {
	if verr := validation.ValidateStruct(&u); verr != nil {
		return models.Settings{}, apperror.Validation(verr.Error())
	}

	current, err := m.store.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	if u.DefaultDownloaderID != nil {
		if _, err := m.store.GetDownloader(ctx, *u.DefaultDownloaderID); err != nil {
			return models.Settings{}, apperror.Validation("default_downloader_id does not reference a known downloader")
		}
	}

	merged := mergeUpdate(current, u)

	if err := m.store.UpdateSettings(ctx, merged); err != nil {
		return models.Settings{}, err
	}

	if u.LogLevel != nil {
		logging.SetLevel(merged.LogLevel)
	}

	return merged, nil
}

func mergeUpdate(s models.Settings, u Update) models.Settings {
	if u.MinResolution != nil {
		s.MinResolution = *u.MinResolution
	}
	if u.MaxResolution != nil {
		s.MaxResolution = *u.MaxResolution
	}
	if u.AllowHDR != nil {
		s.AllowHDR = *u.AllowHDR
	}
	if u.PreferredCodecs != nil {
		s.PreferredCodecs = u.PreferredCodecs
	}
	if u.PreferredGroups != nil {
		s.PreferredGroups = u.PreferredGroups
	}
	if u.AutoDownloadThreshold != nil {
		s.AutoDownloadThreshold = *u.AutoDownloadThreshold
	}
	if u.DefaultDownloaderID != nil {
		s.DefaultDownloaderID = u.DefaultDownloaderID
	}
	if u.EventAllowlist != nil {
		s.EventAllowlist = u.EventAllowlist
	}
	if u.LogLevel != nil {
		s.LogLevel = *u.LogLevel
	}
	if u.SchedulerTickSeconds != nil {
		s.SchedulerTickSeconds = *u.SchedulerTickSeconds
	}
	if u.MaxAgePreDays != nil {
		s.MaxAgePreDays = *u.MaxAgePreDays
	}
	if u.MaxAgePostDays != nil {
		s.MaxAgePostDays = *u.MaxAgePostDays
	}
	if u.AggressiveWindowHours != nil {
		s.AggressiveWindowHours = *u.AggressiveWindowHours
	}
	if u.DecayIntervalHours != nil {
		s.DecayIntervalHours = *u.DecayIntervalHours
	}
	if u.StopAfterDays != nil {
		s.StopAfterDays = *u.StopAfterDays
	}
	if u.JitterSeconds != nil {
		s.JitterSeconds = *u.JitterSeconds
	}
	if u.PerIndexerConcurrency != nil {
		s.PerIndexerConcurrency = *u.PerIndexerConcurrency
	}
	if u.GlobalConcurrency != nil {
		s.GlobalConcurrency = *u.GlobalConcurrency
	}
	return s
}
