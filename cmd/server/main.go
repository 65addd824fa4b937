// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Command server runs the Coldcase aggregation service: the HTTP API,
// the periodic provider sync, and the recommendation engine, all under
// one supervision tree.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/coldcaselabs/coldcase/internal/api"
	"github.com/coldcaselabs/coldcase/internal/config"
	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/providers"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/recommend/signals"
	"github.com/coldcaselabs/coldcase/internal/reconcile"
	"github.com/coldcaselabs/coldcase/internal/storage"
	"github.com/coldcaselabs/coldcase/internal/supervisor"
	syncpkg "github.com/coldcaselabs/coldcase/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The default logger carries config errors; logging config is
		// not available yet.
		logging.Fatal().Err(err).Msg("loading configuration")
	}

	logging.Init(cfg.Log)
	logging.Info().Str("storage", cfg.Storage.Backend).Msg("starting coldcase")

	contentStore, searchStore, closeStore, err := buildStorage(cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("opening storage")
	}
	defer closeStore()

	registry := buildRegistry(cfg.Providers)
	if registry.Len() == 0 {
		logging.Fatal().Msg("no providers enabled")
	}
	logging.Info().Int("providers", registry.Len()).Msg("provider adapters ready")

	var reconcileOpts []reconcile.Option
	if wm := registry.Get(models.ProviderWatchmode); wm != nil {
		reconcileOpts = append(reconcileOpts,
			reconcile.WithAvailability(models.ProviderWatchmode, wm, cfg.Providers.Watchmode.Region))
	}
	reconciler := reconcile.New(contentStore, searchStore, reconcileOpts...)

	manager := syncpkg.NewManager(cfg.Sync, registry, reconciler)

	interactions := storage.NewMemory()
	engine, err := recommend.NewEngine(cfg.Recommend, contentStore, interactions)
	if err != nil {
		logging.Fatal().Err(err).Msg("building recommendation engine")
	}
	engine.Register(signals.NewTrending(interactions, signals.WindowWeek))
	engine.Register(signals.NewContentBased(interactions, contentStore))
	engine.Register(signals.NewCaseBased(interactions, contentStore))
	engine.Register(signals.NewCollaborative(interactions))
	engine.Register(signals.NewNewRelease(interactions, contentStore))

	handlers := api.NewHandlers(manager, engine, registry)
	server := api.NewServer(cfg.API, api.NewRouter(cfg.API, handlers))

	tree := supervisor.NewTree(logging.NewSlogLogger(), cfg.Supervisor)
	tree.AddAPIService(server)
	tree.AddDataService(syncpkg.NewService(manager, cfg.Sync.MinInterval, syncpkg.SyncOptions{TrueCrimeOnly: true}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree exited")
		os.Exit(1)
	}
	logging.Info().Msg("stopped")
}

// buildStorage opens the configured content store. The in-memory search
// index always backs search; Badger persists the canonical records.
func buildStorage(cfg config.StorageConfig) (storage.ContentStore, storage.SearchIndex, func(), error) {
	mem := storage.NewMemory()
	if cfg.Backend != "badger" {
		return mem, mem, func() {}, nil
	}

	db, err := storage.OpenBadger(cfg.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	closeStore := func() {
		if err := db.Close(); err != nil {
			logging.Err(err).Msg("closing content store")
		}
	}
	return db, mem, closeStore, nil
}

// buildRegistry constructs one adapter per enabled provider.
func buildRegistry(cfg config.ProvidersConfig) *providers.Registry {
	var adapters []providers.Adapter
	if cfg.TMDB.Enabled {
		adapters = append(adapters, providers.NewTMDB(cfg.TMDB.AdapterConfig()))
	}
	if cfg.Watchmode.Enabled {
		adapters = append(adapters, providers.NewWatchmode(cfg.Watchmode.AdapterConfig()))
	}
	if cfg.TVMaze.Enabled {
		adapters = append(adapters, providers.NewTVMaze(cfg.TVMaze.AdapterConfig()))
	}
	if cfg.Trakt.Enabled {
		adapters = append(adapters, providers.NewTrakt(cfg.Trakt.AdapterConfig()))
	}
	if cfg.Crimedex.Enabled {
		adapters = append(adapters, providers.NewCrimeDex(cfg.Crimedex.AdapterConfig()))
	}
	return providers.NewRegistry(adapters...)
}
