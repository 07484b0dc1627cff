package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/edudesk/gamehost/internal/bundle"
	"github.com/edudesk/gamehost/internal/config"
	"github.com/edudesk/gamehost/internal/database"
	"github.com/edudesk/gamehost/internal/handler/health"
	"github.com/edudesk/gamehost/internal/metrics"
	"github.com/edudesk/gamehost/internal/migrations"
	"github.com/edudesk/gamehost/internal/minigame"
	"github.com/edudesk/gamehost/internal/server"
	"github.com/edudesk/gamehost/internal/submission"
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

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	checks := map[string]health.Checker{}

	// --- SQLite ---
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)
	checks["sqlite"] = dbChecker{db}

	store := submission.NewStore(db)

	// --- Submission ---
	var submitter minigame.Submitter = store
	if cfg.SubmitURL != "" {
		submitter = submission.NewHTTPClient(cfg.SubmitURL, &http.Client{Timeout: cfg.SubmitTimeout})
		logger.Info("submitting results remotely", "url", cfg.SubmitURL)
	}

	// --- Redis ---
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		submitter = submission.NewGuard(rdb, submitter, 0)
		checks["redis"] = redisChecker{rdb}
	}

	// --- Bundles ---
	if err := os.MkdirAll(cfg.BundleDir, 0o755); err != nil {
		return fmt.Errorf("creating bundle dir: %w", err)
	}
	if cfg.SeedDemo {
		wrote, err := bundle.SeedDemo(cfg.BundleDir)
		if err != nil {
			return fmt.Errorf("seeding demo bundle: %w", err)
		}
		if wrote {
			logger.Info("seeded demo bundle", "game_id", bundle.DemoGameID)
		}
	}

	var fetcher minigame.Fetcher = bundle.NewDirFetcher(cfg.BundleDir)
	if cfg.BundleBaseURL != "" {
		fetcher, err = bundle.NewRemoteFetcher(cfg.BundleDir, cfg.BundleBaseURL,
			&http.Client{Timeout: time.Minute}, logger)
		if err != nil {
			return fmt.Errorf("configuring bundle fetcher: %w", err)
		}
	}
	checks["bundles"] = health.CheckFunc(func(context.Context) error {
		_, err := os.Stat(cfg.BundleDir)
		return err
	})

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Views ---
	origins := minigame.NewAllowList(slices.Concat(minigame.DefaultOrigins, cfg.AllowedOrigins)...)
	broker := server.NewBroker()
	views := server.NewViews(server.ViewsConfig{
		Fetcher:       fetcher,
		Submitter:     submitter,
		Origins:       origins,
		Observer:      server.Observers(m, broker),
		Logger:        logger,
		InitialLives:  cfg.InitialLives,
		SubmitTimeout: cfg.SubmitTimeout,
	})
	logger.Info("accepting game messages", "origins", origins.Origins())

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Views:     views,
		Broker:    broker,
		Results:   store,
		Metrics:   m,
		MetricsH:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Checks:    checks,
		BundleDir: cfg.BundleDir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout+5*time.Second)
		defer cancel()
		logger.Info("closing game views", "open", views.Len())
		return views.CloseAll(ctx)
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
