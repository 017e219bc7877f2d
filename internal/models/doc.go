// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package models defines the data structures shared by every component of the
pipeline: schedule metadata pulled from the provider (Season/Round/Event),
the operator-facing configuration rows (Indexer/Downloader/NotificationTarget/
Settings), and the watch/history tables the scheduler drives
(ScheduledSearch/DownloadHistory/CachedRoundSearch/ScoredCandidate).

There is deliberately no JSON-heavy API response layer here (no HTTP/UI
surface is in scope); struct tags only appear where a value round-trips
through storage (QualityOverrides, persisted as JSON).
*/
package models
