// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models defines the entity graph shared by every component: the
// schedule metadata (seasons/rounds/events), the watch and history tables,
// and the indexer/downloader/notification configuration rows.
package models

import "time"

// SessionType enumerates the on-track activities a round can contain.
type SessionType string

const (
	SessionFP1               SessionType = "FP1"
	SessionFP2               SessionType = "FP2"
	SessionFP3               SessionType = "FP3"
	SessionQualifying        SessionType = "Qualifying"
	SessionSprint            SessionType = "Sprint"
	SessionSprintQualifying  SessionType = "SprintQualifying"
	SessionRace              SessionType = "Race"
	SessionOther             SessionType = "Other"
)

// AllSessionTypes lists every canonical session tag, in the query-set order
// used by the classifier's canonical list (§4.4).
var AllSessionTypes = []SessionType{
	SessionFP1, SessionFP2, SessionFP3,
	SessionQualifying, SessionSprint, SessionSprintQualifying,
	SessionRace, SessionOther,
}

// Season is a single F1 championship year.
type Season struct {
	ID            int64
	Year          int
	LastRefreshed time.Time
	IsHidden      bool
}

// Round is a single Grand Prix weekend within a season.
type Round struct {
	ID          int64
	SeasonID    int64
	RoundNumber int
	Name        string
	Circuit     string
	Country     string
	CircuitTZ   *string // IANA zone name, nullable
}

// Event is one timed session within a round.
type Event struct {
	ID            int64
	RoundID       int64
	Type          SessionType
	StartTimeUTC  *time.Time
	EndTimeUTC    *time.Time
}

// IndexerKind identifies the wire protocol family an indexer speaks.
type IndexerKind string

const (
	IndexerKindNewznab IndexerKind = "Newznab"
	IndexerKindHydra   IndexerKind = "Hydra"
	IndexerKindCustom  IndexerKind = "Custom"
)

// Indexer is a configured Newznab-compatible search endpoint.
type Indexer struct {
	ID          int64
	Name        string
	Kind        IndexerKind
	BaseURL     string
	APIKey      string // secret; never logged in the clear
	CategoryIDs []string
	Priority    int
	Enabled     bool
	LastError   string
}

// DownloaderKind identifies the download client's API family.
type DownloaderKind string

const (
	DownloaderKindSAB  DownloaderKind = "SAB"
	DownloaderKindNZBG DownloaderKind = "NZBG"
)

// Downloader is a configured download client.
type Downloader struct {
	ID        int64
	Name      string
	Kind      DownloaderKind
	BaseURL   string
	APIKey    string // secret
	Category  string
	Priority  int
	Enabled   bool
	LastError string
}

// ScheduledSearchStatus is the watch-entry lifecycle state (§3, §4.9).
type ScheduledSearchStatus string

const (
	StatusScheduled       ScheduledSearchStatus = "Scheduled"
	StatusRunning         ScheduledSearchStatus = "Running"
	StatusWaitingDownload ScheduledSearchStatus = "WaitingDownload"
	StatusCompleted       ScheduledSearchStatus = "Completed"
	StatusFailed          ScheduledSearchStatus = "Failed"
	StatusPaused          ScheduledSearchStatus = "Paused"
)

// QualityOverrides lets one watch entry diverge from global Settings.
type QualityOverrides struct {
	MinResolution     string   `json:"min_resolution,omitempty"`
	MaxResolution     string   `json:"max_resolution,omitempty"`
	AllowHDR          *bool    `json:"allow_hdr,omitempty"`
	PreferredCodecs   []string `json:"preferred_codecs,omitempty"`
	PreferredGroups   []string `json:"preferred_groups,omitempty"`
	AutoDownloadScore *int     `json:"auto_download_threshold,omitempty"`
}

// ScheduledSearch is one (round, event_type) watch entry.
type ScheduledSearch struct {
	ID               int64
	RoundID          int64
	EventType        SessionType
	Status           ScheduledSearchStatus
	DownloaderID     *int64
	QualityOverrides *QualityOverrides
	AddedAt          time.Time
	LastSearchedAt   *time.Time
	NextRunAt        *time.Time
	LastError        string
	Attempts         int
	ChosenNZB        *string

	// DispatchToken guards against a late duplicate result overwriting a
	// newer state (§5 idempotency): a run started at t marks the entry
	// with a token; completion compares-and-writes.
	DispatchToken string
}

// DownloadStatus tracks a single acquisition attempt through the downloader.
type DownloadStatus string

const (
	DownloadStatusSent        DownloadStatus = "Sent"
	DownloadStatusDownloading DownloadStatus = "Downloading"
	DownloadStatusCompleted   DownloadStatus = "Completed"
	DownloadStatusFailed      DownloadStatus = "Failed"
)

// DownloadHistory is an append-only record of one acquisition attempt.
type DownloadHistory struct {
	ID            int64
	EventID       int64
	IndexerID     int64
	DownloaderID  int64
	AcquisitionID string
	NZBTitle      string
	NZBURL        string
	Score        int
	Status       DownloadStatus
	LastPolledAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NotificationKind is the notification-target transport.
type NotificationKind string

const (
	NotificationKindApprise NotificationKind = "Apprise"
	NotificationKindWebhook NotificationKind = "Webhook"
)

// NotificationEvent is a lifecycle transition that can trigger a notification.
type NotificationEvent string

const (
	EventDownloadStart    NotificationEvent = "DownloadStart"
	EventDownloadComplete NotificationEvent = "DownloadComplete"
	EventDownloadFail     NotificationEvent = "DownloadFail"
	EventTest             NotificationEvent = "Test"
)

// NotificationTarget is one configured notification destination.
type NotificationTarget struct {
	ID            int64
	Kind          NotificationKind
	URL           string // secret-bearing
	Name          string
	EventMask     []NotificationEvent
	WebhookSecret *string
}

// Accepts reports whether this target's mask includes event c. Test events
// bypass the mask and are always accepted (§4.7).
func (t NotificationTarget) Accepts(c NotificationEvent) bool {
	if c == EventTest {
		return true
	}
	for _, m := range t.EventMask {
		if m == c {
			return true
		}
	}
	return false
}

// CachedRoundSearch is the §4.5 round-level result cache row.
type CachedRoundSearch struct {
	RoundID             int64
	AllowlistFingerprint string
	CreatedAt           time.Time
	TTLHours            int
	ResultsJSON         string
}

// Settings is the single mutable, operator-editable configuration row (§3).
type Settings struct {
	MinResolution          string
	MaxResolution          string
	AllowHDR               bool
	PreferredCodecs        []string
	PreferredGroups        []string
	AutoDownloadThreshold  int
	DefaultDownloaderID    *int64
	EventAllowlist         []SessionType
	LogLevel               string
	SchedulerTickSeconds   int
	MaxAgePreDays          int
	MaxAgePostDays         int
	AggressiveWindowHours  int
	DecayIntervalHours     int
	StopAfterDays          int
	JitterSeconds          int
	PerIndexerConcurrency  int
	GlobalConcurrency      int
}

// DefaultSettings returns the §3 documented defaults.
func DefaultSettings() Settings {
	return Settings{
		MinResolution:         "720p",
		MaxResolution:         "1080p",
		AllowHDR:              false,
		AutoDownloadThreshold: 70,
		LogLevel:              "info",
		SchedulerTickSeconds:  600,
		MaxAgePreDays:         14,
		MaxAgePostDays:        7,
		AggressiveWindowHours: 24,
		DecayIntervalHours:    6,
		StopAfterDays:         14,
		JitterSeconds:         120,
		PerIndexerConcurrency: 1,
		GlobalConcurrency:     3,
	}
}

// ScoredCandidate is one classified, scored search result produced by C5 and
// consumed by the cache (C6) and scheduler (C9).
type ScoredCandidate struct {
	Title          string
	NZBURL         string
	PubDate        time.Time
	SizeBytes      int64
	IndexerNames   []string
	IndexerID      int64
	Year           int
	Round          int
	Session        SessionType
	Venue          string
	Resolution     string
	Codec          string
	Group          string
	HDR            bool
	Score          int
	Reasons        []string
	YearMismatch   bool
	RoundMismatch  bool
	CanonicalKey   string
}
