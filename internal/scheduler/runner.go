// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/notify"
	"github.com/pitlane-grab/pitlane/internal/roundcache"
	"github.com/pitlane-grab/pitlane/internal/search"
)

// runEntry claims, executes and resolves one due watch entry. It never
// returns an error: every failure path writes its own last_error and
// reschedules or terminates the entry per the §4.9 state machine, because
// this runs detached inside a tick's worker goroutine with no caller left
// to observe a returned error.
func (sch *Scheduler) runEntry(ctx context.Context, settings models.Settings, entry models.ScheduledSearch) {
	lock := sch.keyedLock(fmt.Sprintf("entry:%d", entry.ID))
	lock.Lock()
	defer lock.Unlock()

	log := logging.Ctx(ctx).With().Int64("scheduled_search_id", entry.ID).Int64("round_id", entry.RoundID).Str("event_type", string(entry.EventType)).Logger()

	round, err := sch.store.GetRound(ctx, entry.RoundID)
	if err != nil {
		sch.failTerminalUnclaimed(ctx, entry, "round lookup failed: "+err.Error())
		return
	}
	event, found := sch.findEvent(ctx, entry.RoundID, entry.EventType)
	if found {
		eventLock := sch.keyedLock(fmt.Sprintf("event:%d", event.ID))
		eventLock.Lock()
		defer eventLock.Unlock()
	}

	// Terminal stop-after-days check ahead of claiming: an entry whose
	// window has closed is expired regardless of what the tick selected.
	if found && event.StartTimeUTC != nil {
		stopAt := event.StartTimeUTC.Add(time.Duration(settings.StopAfterDays) * 24 * time.Hour)
		if time.Now().After(stopAt) {
			sch.completeExpiredUnclaimed(ctx, entry)
			return
		}
	}

	token := uuid.NewString()
	claimed, err := sch.store.ClaimForRun(ctx, entry.ID, token)
	if err != nil {
		log.Error().Err(err).Msg("claim for run failed")
		return
	}
	if !claimed {
		// Lost the race to another tick or an operator run-now.
		return
	}

	if !found || event.StartTimeUTC == nil {
		// Provider hasn't filled in a start time yet (§4.9 null start rule).
		sch.reschedule(ctx, entry, token, nil, settings, "", nil)
		return
	}

	quality := resolveQuality(settings, entry.QualityOverrides)
	candidates, err := sch.searchWithCache(ctx, round, entry.EventType, quality, settings)
	if err != nil {
		var appErr *apperror.Error
		if apperror.As(err, &appErr) && !appErr.Retryable() {
			sch.failTerminal(ctx, entry, token, "search failed: "+err.Error())
			return
		}
		log.Warn().Err(err).Msg("search failed, transient")
		sch.reschedule(ctx, entry, token, event.StartTimeUTC, settings, err.Error(), nil)
		return
	}

	best, ok := search.Best(candidates)
	if !ok || best.Score < quality.AutoDownloadScore {
		sch.reschedule(ctx, entry, token, event.StartTimeUTC, settings, "", nil)
		return
	}

	downloaderID, err := sch.resolveDownloaderID(entry, settings)
	if err != nil {
		sch.failTerminal(ctx, entry, token, err.Error())
		return
	}
	adapter, ok := sch.downloaders.Get(downloaderID)
	if !ok {
		sch.failTerminal(ctx, entry, token, "configured downloader is not available")
		return
	}

	acquisitionID, err := adapter.Send(ctx, best.NZBURL, best.Title, "", 0)
	if err != nil {
		var appErr *apperror.Error
		if apperror.As(err, &appErr) && !appErr.Retryable() {
			sch.failTerminal(ctx, entry, token, "send failed: "+err.Error())
			return
		}
		log.Warn().Err(err).Msg("send failed, transient")
		sch.reschedule(ctx, entry, token, event.StartTimeUTC, settings, err.Error(), nil)
		return
	}

	historyID, err := sch.store.InsertDownloadHistory(ctx, models.DownloadHistory{
		EventID:       event.ID,
		IndexerID:     best.IndexerID,
		DownloaderID:  downloaderID,
		AcquisitionID: acquisitionID,
		NZBTitle:      best.Title,
		NZBURL:        best.NZBURL,
		Score:         best.Score,
		Status:        models.DownloadStatusSent,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record download history after a successful send")
	}
	_ = historyID

	sch.notifier.Dispatch(ctx, notify.Event{
		Type:      models.EventDownloadStart,
		Title:     "Download started",
		Message:   best.Title,
		RoundName: round.Name,
		NZBTitle:  best.Title,
		Score:     best.Score,
		Occurred:  time.Now(),
	})

	nzbURL := best.NZBURL
	if err := sch.store.CompleteRun(ctx, entry.ID, token, models.StatusWaitingDownload, nil, "", &nzbURL); err != nil {
		log.Error().Err(err).Msg("complete run (waiting download) failed")
	}
}

// searchWithCache checks the round cache for a singleton-session
// fingerprint before running the live fan-out, and backfills it on a miss
// (§4.9: "optionally caches in C6").
func (sch *Scheduler) searchWithCache(ctx context.Context, round models.Round, session models.SessionType, quality search.Quality, settings models.Settings) ([]models.ScoredCandidate, error) {
	fp := roundcache.Fingerprint([]models.SessionType{session})
	if cached, hit, err := sch.cache.Get(ctx, round.ID, fp, false); err == nil && hit {
		return cached.Results, nil
	}

	candidates, err := sch.engine.Run(ctx, round, session, quality)
	if err != nil {
		return nil, err
	}
	if err := sch.cache.Put(ctx, round.ID, fp, candidates, 24); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("round search cache write failed")
	}
	return candidates, nil
}

func (sch *Scheduler) findEvent(ctx context.Context, roundID int64, t models.SessionType) (models.Event, bool) {
	events, err := sch.store.ListEventsByRound(ctx, roundID)
	if err != nil {
		return models.Event{}, false
	}
	for _, e := range events {
		if e.Type == t {
			return e, true
		}
	}
	return models.Event{}, false
}

// resolveQuality merges global Settings with a per-entry override (§4.9
// downloader precedence text extends to quality params: "override > entry
// default > settings default").
func resolveQuality(s models.Settings, overrides *models.QualityOverrides) search.Quality {
	q := search.Quality{
		MinResolution:     s.MinResolution,
		MaxResolution:     s.MaxResolution,
		AllowHDR:          s.AllowHDR,
		PreferredCodecs:   s.PreferredCodecs,
		PreferredGroups:   s.PreferredGroups,
		AutoDownloadScore: s.AutoDownloadThreshold,
	}
	if overrides == nil {
		return q
	}
	if overrides.MinResolution != "" {
		q.MinResolution = overrides.MinResolution
	}
	if overrides.MaxResolution != "" {
		q.MaxResolution = overrides.MaxResolution
	}
	if overrides.AllowHDR != nil {
		q.AllowHDR = *overrides.AllowHDR
	}
	if len(overrides.PreferredCodecs) > 0 {
		q.PreferredCodecs = overrides.PreferredCodecs
	}
	if len(overrides.PreferredGroups) > 0 {
		q.PreferredGroups = overrides.PreferredGroups
	}
	if overrides.AutoDownloadScore != nil {
		q.AutoDownloadScore = *overrides.AutoDownloadScore
	}
	return q
}

// resolveDownloaderID picks the downloader to send through: entry override,
// then the settings-wide default, else a ConfigurationError (§4.6, §4.9).
func (sch *Scheduler) resolveDownloaderID(entry models.ScheduledSearch, settings models.Settings) (int64, error) {
	if entry.DownloaderID != nil {
		return *entry.DownloaderID, nil
	}
	if settings.DefaultDownloaderID != nil {
		return *settings.DefaultDownloaderID, nil
	}
	return 0, apperror.Configuration("no downloader configured: entry has no override and settings has no default", nil)
}

// reschedule completes a run back to Scheduled with a freshly computed
// next_run_at, bumping attempts via CompleteRun's own increment.
func (sch *Scheduler) reschedule(ctx context.Context, entry models.ScheduledSearch, token string, startTimeUTC *time.Time, settings models.Settings, lastError string, chosenNZB *string) {
	next, ok := nextRun(time.Now(), startTimeUTC, entry.AddedAt, settings)
	if !ok {
		sch.completeExpired(ctx, entry, token)
		return
	}
	if err := sch.store.CompleteRun(ctx, entry.ID, token, models.StatusScheduled, &next, lastError, chosenNZB); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("scheduled_search_id", entry.ID).Msg("reschedule failed")
	}
}

// failTerminal records a fatal, non-retryable failure (§4.9: "Running --
// fatal err --> Failed (terminal)") for an entry already holding token from
// a prior ClaimForRun in this same call chain. CompleteRun CASes on the
// token alone, so no re-claim is needed or possible (the entry is no
// longer in Scheduled status for ClaimForRun's WHERE clause to match).
func (sch *Scheduler) failTerminal(ctx context.Context, entry models.ScheduledSearch, token, reason string) {
	if err := sch.store.CompleteRun(ctx, entry.ID, token, models.StatusFailed, nil, reason, nil); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("scheduled_search_id", entry.ID).Msg("fail terminal failed")
	}
}

// failTerminalUnclaimed is for failure paths discovered before runEntry
// ever claims the entry (e.g. the round lookup itself failing), so a fresh
// token must be minted and claimed first.
func (sch *Scheduler) failTerminalUnclaimed(ctx context.Context, entry models.ScheduledSearch, reason string) {
	token := uuid.NewString()
	claimed, err := sch.store.ClaimForRun(ctx, entry.ID, token)
	if err != nil || !claimed {
		return
	}
	sch.failTerminal(ctx, entry, token, reason)
}

func (sch *Scheduler) completeExpired(ctx context.Context, entry models.ScheduledSearch, token string) {
	if err := sch.store.CompleteRun(ctx, entry.ID, token, models.StatusCompleted, nil, "Expired", nil); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("scheduled_search_id", entry.ID).Msg("complete expired failed")
	}
}

// completeExpiredUnclaimed mirrors failTerminalUnclaimed for the
// stop-after-days check that runs ahead of runEntry's own claim.
func (sch *Scheduler) completeExpiredUnclaimed(ctx context.Context, entry models.ScheduledSearch) {
	token := uuid.NewString()
	claimed, err := sch.store.ClaimForRun(ctx, entry.ID, token)
	if err != nil || !claimed {
		return
	}
	sch.completeExpired(ctx, entry, token)
}
