package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/qrhunt/internal/config"
	"github.com/playperu/qrhunt/internal/database"
	"github.com/playperu/qrhunt/internal/handler/health"
	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/migrations"
	"github.com/playperu/qrhunt/internal/notify"
	"github.com/playperu/qrhunt/internal/seed"
	"github.com/playperu/qrhunt/internal/server"
	"github.com/playperu/qrhunt/internal/store"
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
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	st := store.NewSQLiteStore(db)

	if err := server.EnsureAdmin(ctx, logger, st, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	if cfg.SeedDemo {
		if _, err := seed.Demo(ctx, logger, st); err != nil {
			return fmt.Errorf("seeding demo event: %w", err)
		}
	}

	// --- Notifications ---
	broker := server.NewBroker()
	var (
		notifier hunt.Notifier = broker
		relay    *notify.RedisRelay
		checks   = map[string]health.Checker{"sqlite": health.SQLite(db)}
	)
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		relay = notify.NewRedisRelay(rdb, logger)
		notifier = relay
		checks["redis"] = health.Redis(rdb)
	}

	// --- Engine ---
	opts := []hunt.Option{
		hunt.WithLogger(logger),
		hunt.WithNotifier(notifier),
	}
	if cfg.HuntSeed != 0 {
		opts = append(opts, hunt.WithSeed(cfg.HuntSeed))
	}
	engine := hunt.NewEngine(st, opts...)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:    st,
		Engine:   engine,
		Broker:   broker,
		Notifier: notifier,
		Metrics:  server.NewMetrics(),
		SPADir:   cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
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
		return srv.Shutdown(context.Background())
	})

	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx, broker)
		})
	}

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
