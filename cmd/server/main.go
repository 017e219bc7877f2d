// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pitlane-grab/pitlane/internal/config"
	"github.com/pitlane-grab/pitlane/internal/downloader"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/newznab"
	"github.com/pitlane-grab/pitlane/internal/notify"
	"github.com/pitlane-grab/pitlane/internal/provider"
	"github.com/pitlane-grab/pitlane/internal/roundcache"
	"github.com/pitlane-grab/pitlane/internal/scheduler"
	"github.com/pitlane-grab/pitlane/internal/search"
	"github.com/pitlane-grab/pitlane/internal/store"
	"github.com/pitlane-grab/pitlane/internal/supervisor"
)

// seasonRefreshInterval is how often the data-layer service re-pulls every
// season already known to the store (§4.2's RefreshSeason kept current
// without an operator having to trigger it by hand).
const seasonRefreshInterval = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.Info().Msg("starting pitlane")

	s, err := store.Open(cfg.Database)
	if err != nil {
		logging.Error().Err(err).Msg("failed to open store")
		os.Exit(1)
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()
	logging.Info().Str("path", cfg.Database.Path).Msg("store opened")

	hot, err := badger.Open(badgerOptions(cfg.Database.Path))
	if err != nil {
		logging.Error().Err(err).Msg("failed to open round-search cache")
		os.Exit(1)
	}
	defer func() {
		if err := hot.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing round-search cache")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initialSettings, err := s.GetSettings(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("failed to load settings")
		os.Exit(1)
	}

	pool := newznab.NewPool(initialSettings.GlobalConcurrency, initialSettings.PerIndexerConcurrency)
	if indexers, err := s.ListIndexers(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to list indexers")
		os.Exit(1)
	} else {
		pool.Sync(indexers)
	}

	downloaders := downloader.NewRegistry()
	if ds, err := s.ListDownloaders(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to list downloaders")
		os.Exit(1)
	} else {
		downloaders.Sync(ds)
	}

	notifier := notify.New()
	if targets, err := s.ListNotificationTargets(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to list notification targets")
		os.Exit(1)
	} else {
		notifier.Sync(targets)
	}

	engine := search.NewEngine(pool, s)
	cache := roundcache.New(s, hot)
	sched := scheduler.New(s, engine, downloaders, notifier, cache)

	fetcher := provider.NewHTTPFetcher(cfg.Provider.BaseURL, &http.Client{Timeout: cfg.Provider.Timeout})
	importer := provider.New(fetcher, s)

	// internal/operator and internal/settings wrap these same components into
	// the plain Go command surface an outer layer (CLI/HTTP, both out of
	// scope here) would embed; this process only runs the background loops.

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to create supervisor tree")
		os.Exit(1)
	}

	tree.AddDataService(provider.NewRefreshService(importer, seasonRefreshInterval))
	tree.AddMessagingService(scheduler.NewTickService(sched, scheduler.TickInterval(s)))
	tree.AddMessagingService(scheduler.NewPollService(sched, scheduler.PollInterval(s)))
	logging.Info().Msg("supervisor tree assembled")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("pitlane stopped gracefully")
}

// badgerOptions derives the round-search hot-cache's badger directory from
// the DuckDB path (":memory:" maps to an in-memory badger DB for tests).
func badgerOptions(dbPath string) badger.Options {
	if dbPath == ":memory:" {
		return badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	return badger.DefaultOptions(dbPath + ".roundcache").WithLogger(nil)
}
