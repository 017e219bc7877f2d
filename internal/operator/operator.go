// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package operator is the operator-facing command surface (C11): a plain
// Go service interface, not an HTTP/UI layer (explicitly out of scope).
// It validates requests the way the teacher's API handlers validate query
// params, then drives the store and the live C4/C8/C9 components so a CRUD
// change (a new indexer, a paused watch) takes effect immediately instead
// of waiting for the next process restart.
package operator

import (
	"context"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/downloader"
	"github.com/pitlane-grab/pitlane/internal/models"
	"github.com/pitlane-grab/pitlane/internal/newznab"
	"github.com/pitlane-grab/pitlane/internal/notify"
	"github.com/pitlane-grab/pitlane/internal/provider"
	"github.com/pitlane-grab/pitlane/internal/roundcache"
	"github.com/pitlane-grab/pitlane/internal/scheduler"
	"github.com/pitlane-grab/pitlane/internal/settings"
	"github.com/pitlane-grab/pitlane/internal/store"
	"github.com/pitlane-grab/pitlane/internal/validation"
)

// Operator wires every store mutation back into the live in-process
// components that cache a copy of it (the indexer pool, the downloader
// registry, the notification dispatcher), so a CRUD call takes effect on
// the very next tick rather than needing a restart.
type Operator struct {
	store       *store.Store
	pool        *newznab.Pool
	downloaders *downloader.Registry
	notifier    *notify.Dispatcher
	sched       *scheduler.Scheduler
	settings    *settings.Manager
	importer    *provider.Importer
}

// New builds an Operator over the already-running components a
// cmd/server/main.go wires up at boot.
func New(s *store.Store, pool *newznab.Pool, downloaders *downloader.Registry, notifier *notify.Dispatcher, sched *scheduler.Scheduler, settingsMgr *settings.Manager, importer *provider.Importer) *Operator {
	return &Operator{store: s, pool: pool, downloaders: downloaders, notifier: notifier, sched: sched, settings: settingsMgr, importer: importer}
}

// --- Seasons ---

func (o *Operator) ListSeasons(ctx context.Context) ([]models.Season, error) {
	return o.store.ListSeasons(ctx)
}

// RefreshSeason re-pulls a season from the schedule-metadata provider (C3)
// and merges the result into the store.
func (o *Operator) RefreshSeason(ctx context.Context, seasonID int64) error {
	season, err := o.store.GetSeason(ctx, seasonID)
	if err != nil {
		return err
	}
	return o.importer.RefreshSeason(ctx, season.Year)
}

func (o *Operator) HideSeason(ctx context.Context, seasonID int64) error {
	return o.store.SetSeasonHidden(ctx, seasonID, true)
}

func (o *Operator) RestoreSeason(ctx context.Context, seasonID int64) error {
	return o.store.SetSeasonHidden(ctx, seasonID, false)
}

func (o *Operator) DeleteSeason(ctx context.Context, seasonID int64) error {
	return o.store.DeleteSeason(ctx, seasonID)
}

// --- Watch entries (scheduled searches) ---

// AddWatch schedules a new watch entry for a round's session, the operator
// action that creates the C9 state machine instance for it.
func (o *Operator) AddWatch(ctx context.Context, roundID int64, eventType models.SessionType, downloaderID *int64, overrides *models.QualityOverrides) (models.ScheduledSearch, error) {
	return o.store.CreateScheduledSearch(ctx, roundID, eventType, downloaderID, overrides)
}

func (o *Operator) PauseWatch(ctx context.Context, id int64) error {
	return o.store.Pause(ctx, id)
}

func (o *Operator) ResumeWatch(ctx context.Context, id int64) error {
	return o.store.Resume(ctx, id)
}

func (o *Operator) ListWatches(ctx context.Context, roundID *int64) ([]models.ScheduledSearch, error) {
	return o.store.ListScheduledSearches(ctx, roundID)
}

// RunNow forces an immediate run of one watch entry outside its cadence.
func (o *Operator) RunNow(ctx context.Context, id int64) error {
	return o.sched.RunNow(ctx, id)
}

// RoundAutoGrab runs the scorer once against a round's events (optionally
// filtered to a set of session types) and sends at most one acquisition
// per event.
func (o *Operator) RoundAutoGrab(ctx context.Context, roundID int64, eventTypes []models.SessionType) error {
	return o.sched.RoundAutoGrab(ctx, roundID, eventTypes)
}

// ManualRoundSearch runs the query fan-out for a round without creating
// any watch-entry state, returning the scored candidates per session.
func (o *Operator) ManualRoundSearch(ctx context.Context, roundID int64, force bool) (map[models.SessionType]roundcache.Result, error) {
	return o.sched.ManualRoundSearch(ctx, roundID, force)
}

// --- Settings ---

func (o *Operator) GetSettings(ctx context.Context) (models.Settings, error) {
	return o.settings.Get(ctx)
}

func (o *Operator) UpdateSettings(ctx context.Context, u settings.Update) (models.Settings, error) {
	return o.settings.Apply(ctx, u)
}

// --- Indexers ---

// IndexerRequest is the validated shape of an operator indexer create/update.
type IndexerRequest struct {
	Name        string              `validate:"required,min=1,max=200"`
	Kind        models.IndexerKind  `validate:"required,oneof=Newznab Hydra Custom"`
	BaseURL     string              `validate:"required,url"`
	APIKey      string              `validate:"required"`
	CategoryIDs []string            `validate:"omitempty,dive,required"`
	Priority    int                 `validate:"min=0,max=100"`
	Enabled     bool
}

func (o *Operator) CreateIndexer(ctx context.Context, req IndexerRequest) (int64, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return 0, apperror.Validation(verr.Error())
	}
	id, err := o.store.CreateIndexer(ctx, models.Indexer{
		Name: req.Name, Kind: req.Kind, BaseURL: req.BaseURL, APIKey: req.APIKey,
		CategoryIDs: req.CategoryIDs, Priority: req.Priority, Enabled: req.Enabled,
	})
	if err != nil {
		return 0, err
	}
	o.resyncIndexers(ctx)
	return id, nil
}

func (o *Operator) UpdateIndexer(ctx context.Context, idx models.Indexer) error {
	if err := o.store.UpdateIndexer(ctx, idx); err != nil {
		return err
	}
	o.resyncIndexers(ctx)
	return nil
}

func (o *Operator) DeleteIndexer(ctx context.Context, id int64) error {
	if err := o.store.DeleteIndexer(ctx, id); err != nil {
		return err
	}
	o.resyncIndexers(ctx)
	return nil
}

func (o *Operator) ListIndexers(ctx context.Context) ([]models.Indexer, error) {
	return o.store.ListIndexers(ctx)
}

// TestIndexer probes connectivity without persisting anything, mirroring
// the downloader/notification Test() escape hatches of §4.6/§4.7.
func (o *Operator) TestIndexer(ctx context.Context, idx models.Indexer) error {
	_, err := o.pool.TestConnection(ctx, idx)
	return err
}

func (o *Operator) resyncIndexers(ctx context.Context) {
	if indexers, err := o.store.ListIndexers(ctx); err == nil {
		o.pool.Sync(indexers)
	}
}

// --- Downloaders ---

// DownloaderRequest is the validated shape of an operator downloader create/update.
type DownloaderRequest struct {
	Name     string               `validate:"required,min=1,max=200"`
	Kind     models.DownloaderKind `validate:"required,oneof=SAB NZBG"`
	BaseURL  string               `validate:"required,url"`
	APIKey   string               `validate:"required"`
	Category string               `validate:"omitempty,max=100"`
	Priority int                  `validate:"min=0,max=100"`
	Enabled  bool
}

func (o *Operator) CreateDownloader(ctx context.Context, req DownloaderRequest) (int64, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return 0, apperror.Validation(verr.Error())
	}
	id, err := o.store.CreateDownloader(ctx, models.Downloader{
		Name: req.Name, Kind: req.Kind, BaseURL: req.BaseURL, APIKey: req.APIKey,
		Category: req.Category, Priority: req.Priority, Enabled: req.Enabled,
	})
	if err != nil {
		return 0, err
	}
	o.resyncDownloaders(ctx)
	return id, nil
}

func (o *Operator) UpdateDownloader(ctx context.Context, d models.Downloader) error {
	if err := o.store.UpdateDownloader(ctx, d); err != nil {
		return err
	}
	o.resyncDownloaders(ctx)
	return nil
}

func (o *Operator) DeleteDownloader(ctx context.Context, id int64) error {
	if err := o.store.DeleteDownloader(ctx, id); err != nil {
		return err
	}
	o.resyncDownloaders(ctx)
	return nil
}

func (o *Operator) ListDownloaders(ctx context.Context) ([]models.Downloader, error) {
	return o.store.ListDownloaders(ctx)
}

// TestDownloader probes connectivity without sending anything.
func (o *Operator) TestDownloader(ctx context.Context, id int64) error {
	adapter, ok := o.downloaders.Get(id)
	if !ok {
		return apperror.NotFound("downloader", id)
	}
	return adapter.Test(ctx)
}

func (o *Operator) resyncDownloaders(ctx context.Context) {
	if ds, err := o.store.ListDownloaders(ctx); err == nil {
		o.downloaders.Sync(ds)
	}
}

// --- Notification targets ---

// NotificationTargetRequest is the validated shape of an operator
// notification target create/update.
type NotificationTargetRequest struct {
	Kind          models.NotificationKind    `validate:"required,oneof=Apprise Webhook"`
	URL           string                     `validate:"required,url"`
	Name          string                     `validate:"required,min=1,max=200"`
	EventMask     []models.NotificationEvent `validate:"required,min=1,dive,required"`
	WebhookSecret *string                    `validate:"omitempty,min=16"`
}

func (o *Operator) CreateNotificationTarget(ctx context.Context, req NotificationTargetRequest) (int64, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return 0, apperror.Validation(verr.Error())
	}
	id, err := o.store.CreateNotificationTarget(ctx, models.NotificationTarget{
		Kind: req.Kind, URL: req.URL, Name: req.Name, EventMask: req.EventMask, WebhookSecret: req.WebhookSecret,
	})
	if err != nil {
		return 0, err
	}
	o.resyncNotificationTargets(ctx)
	return id, nil
}

func (o *Operator) UpdateNotificationTarget(ctx context.Context, t models.NotificationTarget) error {
	if err := o.store.UpdateNotificationTarget(ctx, t); err != nil {
		return err
	}
	o.resyncNotificationTargets(ctx)
	return nil
}

func (o *Operator) DeleteNotificationTarget(ctx context.Context, id int64) error {
	if err := o.store.DeleteNotificationTarget(ctx, id); err != nil {
		return err
	}
	o.resyncNotificationTargets(ctx)
	return nil
}

func (o *Operator) ListNotificationTargets(ctx context.Context) ([]models.NotificationTarget, error) {
	return o.store.ListNotificationTargets(ctx)
}

// TestNotificationTargets sends a Test event to every current target,
// ignoring the event mask (§4.7).
func (o *Operator) TestNotificationTargets(ctx context.Context) []notify.Outcome {
	return o.notifier.Dispatch(ctx, notify.Event{Type: models.EventTest, Title: "Test notification"})
}

func (o *Operator) resyncNotificationTargets(ctx context.Context) {
	if targets, err := o.store.ListNotificationTargets(ctx); err == nil {
		o.notifier.Sync(targets)
	}
}
