package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/hkpass/console/internal/config"
	"github.com/hkpass/console/internal/console"
	"github.com/hkpass/console/internal/database"
	"github.com/hkpass/console/internal/handler/health"
	"github.com/hkpass/console/internal/migrations"
	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/server"
	"github.com/hkpass/console/internal/snapshotcache"
	"github.com/hkpass/console/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(stdout, cfg)

	policy, err := console.ParsePolicy(cfg.StaleTickPolicy)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "migrations_applied", applied)
	st := store.New(db)

	checks := map[string]health.Checker{"sqlite": st}
	optional := []string{"scoreapi"}

	// --- Redis (optional) ---
	var mirror console.Mirror
	if cfg.RedisURL != "" {
		rdb, err := snapshotcache.Open(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		cache := snapshotcache.New(rdb, "console:snapshot", cfg.SnapshotTTL)
		mirror = cache
		checks["redis"] = cache
		optional = append(optional, "redis")
		logger.Info("connected to redis", "addr", rdb.Options().Addr)
	}

	// --- Scoring API ---
	client := scoreapi.New(cfg.ScoreAPIURL, cfg.ScoreAPITimeout, logger)
	checks["scoreapi"] = client

	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set; logins are checked against the scoring API's plaintext login_password")
	}

	broker := server.NewBroker()
	c := console.New(console.Options{
		Upstream:   client,
		Journal:    st,
		Publisher:  broker,
		Mirror:     mirror,
		Logger:     logger,
		Interval:   cfg.PollInterval,
		Policy:     policy,
		Compensate: cfg.CompensateOnFailure,
	})
	logger.Info("console configured",
		"score_api", cfg.ScoreAPIURL,
		"poll_interval", cfg.PollInterval.String(),
		"stale_tick_policy", policy.String(),
		"compensate", cfg.CompensateOnFailure,
	)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Console:        c,
		Gate:           console.NewGate(cfg.AdminPasswordHash, st, c.LoadSettings, logger),
		Journal:        st,
		Broker:         broker,
		Checks:         checks,
		OptionalChecks: optional,
		CORSOrigins:    cfg.CORSOrigins,
		SPADir:         cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := c.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		c.Stop()
		return nil
	})

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{Level: cfg.LogLevel}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
}
