// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/notify"
	"github.com/pitlane-grab/pitlane/internal/roundcache"
	"github.com/pitlane-grab/pitlane/internal/search"
)

// RunNow forces an immediate run of one watch entry outside its normal
// cadence, the operator "run-now" action (C11). It reuses the same
// runEntry path a tick would, so the state machine and idempotency
// guarantees are identical.
func (sch *Scheduler) RunNow(ctx context.Context, entryID int64) error {
	entry, err := sch.store.GetScheduledSearch(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != models.StatusScheduled {
		return apperror.StateConflict(fmt.Sprintf("entry %d is %s, not Scheduled", entryID, entry.Status))
	}
	settings, err := sch.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	sch.runEntry(ctx, settings, entry)
	return nil
}

// RoundAutoGrab runs the scorer once against every session of a round
// (optionally restricted to eventTypes) and sends at most one acquisition
// per event, independent of whether a watch entry exists for it (§4.9
// "round-level auto-grab"). Each event is serialized against any
// concurrently-running per-event tick via the same keyed lock runEntry
// takes.
func (sch *Scheduler) RoundAutoGrab(ctx context.Context, roundID int64, eventTypes []models.SessionType) error {
	round, err := sch.store.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	events, err := sch.store.ListEventsByRound(ctx, roundID)
	if err != nil {
		return err
	}
	settings, err := sch.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	allowed := allowlistSet(eventTypes)

	for _, event := range events {
		if len(allowed) > 0 && !allowed[event.Type] {
			continue
		}
		sch.autoGrabOne(ctx, round, event, settings)
	}
	return nil
}

func (sch *Scheduler) autoGrabOne(ctx context.Context, round models.Round, event models.Event, settings models.Settings) {
	lock := sch.keyedLock(fmt.Sprintf("event:%d", event.ID))
	lock.Lock()
	defer lock.Unlock()

	log := logging.Ctx(ctx).With().Int64("round_id", round.ID).Int64("event_id", event.ID).Str("event_type", string(event.Type)).Logger()

	quality := resolveQuality(settings, nil)
	candidates, err := sch.searchWithCache(ctx, round, event.Type, quality, settings)
	if err != nil {
		log.Warn().Err(err).Msg("round auto-grab: search failed")
		return
	}
	best, ok := search.Best(candidates)
	if !ok || best.Score < quality.AutoDownloadScore {
		return
	}

	downloaderID, err := sch.resolveDownloaderID(models.ScheduledSearch{}, settings)
	if err != nil {
		log.Warn().Err(err).Msg("round auto-grab: no downloader configured")
		return
	}
	adapter, ok := sch.downloaders.Get(downloaderID)
	if !ok {
		log.Warn().Msg("round auto-grab: configured downloader is not available")
		return
	}

	acquisitionID, err := adapter.Send(ctx, best.NZBURL, best.Title, "", 0)
	if err != nil {
		log.Warn().Err(err).Msg("round auto-grab: send failed")
		return
	}

	if _, err := sch.store.InsertDownloadHistory(ctx, models.DownloadHistory{
		EventID:       event.ID,
		IndexerID:     best.IndexerID,
		DownloaderID:  downloaderID,
		AcquisitionID: acquisitionID,
		NZBTitle:      best.Title,
		NZBURL:        best.NZBURL,
		Score:         best.Score,
		Status:        models.DownloadStatusSent,
	}); err != nil {
		log.Error().Err(err).Msg("round auto-grab: failed to record download history")
	}

	sch.notifier.Dispatch(ctx, notify.Event{
		Type:      models.EventDownloadStart,
		Title:     "Download started",
		Message:   best.Title,
		RoundName: round.Name,
		NZBTitle:  best.Title,
		Score:     best.Score,
		Occurred:  time.Now(),
	})
}

// ManualRoundSearch runs the query fan-out for every allowed session type
// of a round and returns the merged, scored results per session, writing
// through the round cache (§4.5: "operator-initiated round search reuses
// C4-C6 directly without creating schedule state").
func (sch *Scheduler) ManualRoundSearch(ctx context.Context, roundID int64, force bool) (map[models.SessionType]roundcache.Result, error) {
	round, err := sch.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	settings, err := sch.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	events, err := sch.store.ListEventsByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	var roundSessions []models.SessionType
	for _, e := range events {
		roundSessions = append(roundSessions, e.Type)
	}
	allowlist := roundcache.Intersect(settings.EventAllowlist, roundSessions)

	out := make(map[models.SessionType]roundcache.Result, len(allowlist))
	quality := resolveQuality(settings, nil)
	for _, session := range allowlist {
		fp := roundcache.Fingerprint([]models.SessionType{session})
		if cached, hit, err := sch.cache.Get(ctx, roundID, fp, force); err == nil && hit {
			out[session] = cached
			continue
		}
		candidates, err := sch.engine.Run(ctx, round, session, quality)
		if err != nil {
			return nil, err
		}
		if err := sch.cache.Put(ctx, roundID, fp, candidates, 24); err != nil {
			log := logging.Ctx(ctx)
			log.Debug().Err(err).Msg("manual round search: cache write failed")
		}
		out[session] = roundcache.Result{Results: candidates, FromCache: false, TTLHours: 24}
	}
	return out, nil
}

func allowlistSet(types []models.SessionType) map[models.SessionType]bool {
	if len(types) == 0 {
		return nil
	}
	m := make(map[models.SessionType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}
