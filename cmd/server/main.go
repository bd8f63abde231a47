// Package main starts the profile badge HTTP service.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-profile-badges/internal/badgeapi"
	"github.com/tbourn/go-profile-badges/internal/badges"
	"github.com/tbourn/go-profile-badges/internal/config"
	httpapi "github.com/tbourn/go-profile-badges/internal/http"
	"github.com/tbourn/go-profile-badges/internal/integration"
	"github.com/tbourn/go-profile-badges/internal/observability"
	"github.com/tbourn/go-profile-badges/internal/registry"
	"github.com/tbourn/go-profile-badges/internal/repo"
	"github.com/tbourn/go-profile-badges/internal/services"
	"github.com/tbourn/go-profile-badges/internal/sysutil"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	sysutil.InitLogging(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	client, err := badgeapi.NewClient(cfg.Badges.APIBaseURL,
		badgeapi.WithTimeout(cfg.Badges.FetchTimeout),
		badgeapi.WithRateLimit(cfg.Badges.APIRPS, cfg.Badges.APIBurst),
		badgeapi.WithLogger(log.With().Str("component", "badge_api").Logger()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("badge api client")
	}

	// Background refreshes outlive requests but not the process.
	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()

	cacheOpts := []badges.Option{
		badges.WithTTL(cfg.Badges.CacheTTL),
		badges.WithObserver(observability.CacheObserver{}),
		badges.WithLogger(log.With().Str("component", "badge_cache").Logger()),
		badges.WithBaseContext(refreshCtx),
	}

	var store *repo.SnapshotStore
	if cfg.Badges.SnapshotDBPath != "" {
		db, err := repo.OpenSQLite(cfg.Badges.SnapshotDBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Badges.SnapshotDBPath).Msg("open snapshot db")
		}
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate snapshot db")
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		store = repo.NewSnapshotStore(db)
		cacheOpts = append(cacheOpts, badges.WithStore(store))
	}

	cache := badges.NewCache(client, cacheOpts...)
	if store != nil {
		n, err := cache.Warm(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("cache warm failed")
		} else {
			log.Info().Int("entries", n).Msg("cache warmed from snapshots")
		}
		if pruned, err := store.Prune(ctx, time.Now().Add(-cfg.Badges.CacheTTL)); err != nil {
			log.Warn().Err(err).Msg("snapshot prune failed")
		} else if pruned > 0 {
			log.Info().Int64("pruned", pruned).Msg("stale snapshots removed")
		}
	}

	reg := registry.Default()
	hook, err := integration.NewHook(cache, reg, integration.HostDeps{ContainerClass: cfg.Badges.ContainerClass})
	if err != nil {
		// Without the hook there is nothing to serve rows with.
		log.Fatal().Err(err).Msg("badge integration unavailable")
	}
	svc := services.NewBadgeService(cache, reg, hook)

	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	cancelRefresh()
	cache.Wait()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server stopped")
}
