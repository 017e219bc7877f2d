// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"time"

	"github.com/pitlane-grab/pitlane/internal/downloader"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/notify"
)

// pollOne checks one in-flight acquisition against its downloader and
// resolves the outcome (§4.9 post-send polling; S5 worked example).
func (sch *Scheduler) pollOne(ctx context.Context, h models.DownloadHistory) {
	log := logging.Ctx(ctx).With().Int64("download_history_id", h.ID).Int64("event_id", h.EventID).Logger()

	adapter, ok := sch.downloaders.Get(h.DownloaderID)
	if !ok {
		log.Warn().Msg("poll: downloader no longer configured, leaving in place")
		return
	}

	status, err := adapter.Status(ctx, h.AcquisitionID)
	if err != nil {
		log.Debug().Err(err).Msg("poll: status check failed, retrying next interval")
		return
	}

	switch status {
	case downloader.StatusCompleted:
		sch.resolveDownload(ctx, h, models.DownloadStatusCompleted, "")
	case downloader.StatusFailed:
		sch.resolveDownload(ctx, h, models.DownloadStatusFailed, "downloader reported a failed acquisition")
	case downloader.StatusDownloading:
		if err := sch.store.UpdateDownloadStatus(ctx, h.ID, models.DownloadStatusDownloading); err != nil {
			log.Error().Err(err).Msg("poll: failed to record Downloading status")
		}
	default: // Queued, Unknown: no state change, try again next interval
	}
}

// resolveDownload writes the terminal download_history status, advances
// the owning scheduled_search, and fires the matching notification.
func (sch *Scheduler) resolveDownload(ctx context.Context, h models.DownloadHistory, status models.DownloadStatus, reason string) {
	if err := sch.store.UpdateDownloadStatus(ctx, h.ID, status); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("download_history_id", h.ID).Msg("resolve download: status update failed")
	}

	entry, ok := sch.findScheduledSearchForEvent(ctx, h.EventID)

	switch status {
	case models.DownloadStatusCompleted:
		sch.notifier.Dispatch(ctx, notify.Event{Type: models.EventDownloadComplete, Title: "Download complete", Message: h.NZBTitle, NZBTitle: h.NZBTitle, Score: h.Score, Occurred: time.Now()})
		if ok {
			sch.completeDownloaded(ctx, entry)
		}
	case models.DownloadStatusFailed:
		sch.notifier.Dispatch(ctx, notify.Event{Type: models.EventDownloadFail, Title: "Download failed", Message: reason, NZBTitle: h.NZBTitle, Score: h.Score, Occurred: time.Now()})
		if ok {
			// The entry's dispatch_token was stamped when it was claimed
			// into Running and carried untouched through WaitingDownload
			// (CompleteRun never modifies it); completing against that same
			// token is the guard against a stale duplicate poll result.
			next := time.Now().Add(retryAfterFailure)
			if err := sch.store.CompleteRun(ctx, entry.ID, entry.DispatchToken, models.StatusScheduled, &next, reason, nil); err != nil {
				logging.Ctx(ctx).Error().Err(err).Int64("scheduled_search_id", entry.ID).Msg("resolve download: reschedule after failure failed")
			}
		}
	}
}

func (sch *Scheduler) completeDownloaded(ctx context.Context, entry models.ScheduledSearch) {
	if err := sch.store.CompleteRun(ctx, entry.ID, entry.DispatchToken, models.StatusCompleted, nil, "", entry.ChosenNZB); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("scheduled_search_id", entry.ID).Msg("complete downloaded failed")
	}
}

// findScheduledSearchForEvent looks up the WaitingDownload entry that owns
// this event, if any. A download_history row outlives the watch entry it
// came from (e.g. after an operator deletes the round), so a miss here is
// a normal, tolerated case.
func (sch *Scheduler) findScheduledSearchForEvent(ctx context.Context, eventID int64) (models.ScheduledSearch, bool) {
	event, err := sch.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.ScheduledSearch{}, false
	}
	entries, err := sch.store.ListScheduledSearches(ctx, &event.RoundID)
	if err != nil {
		return models.ScheduledSearch{}, false
	}
	for _, e := range entries {
		if e.EventType == event.Type && e.Status == models.StatusWaitingDownload {
			return e, true
		}
	}
	return models.ScheduledSearch{}, false
}
