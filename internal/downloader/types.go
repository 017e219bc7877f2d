// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package downloader implements the uniform adapter contract of §4.6 over
// SAB-style (mode=addurl) and NZBG-style (JSON-RPC append) download
// clients, with a content-hash idempotency guard shared by every adapter.
package downloader

import "context"

// Status is the adapter-reported state of a submitted acquisition,
// distinct from models.DownloadStatus (the scheduler's own lifecycle
// column) because an adapter can also report Queued/Unknown.
type Status string

const (
	StatusQueued      Status = "Queued"
	StatusDownloading Status = "Downloading"
	StatusCompleted   Status = "Completed"
	StatusFailed      Status = "Failed"
	StatusUnknown     Status = "Unknown"
)

// Adapter is the uniform contract every downloader kind implements (§4.6).
type Adapter interface {
	Send(ctx context.Context, nzbURL, title, category string, priority int) (string, error)
	Status(ctx context.Context, acquisitionID string) (Status, error)
	Test(ctx context.Context) error
}
