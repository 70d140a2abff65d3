package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/houseparty/houseparty/internal/config"
	"github.com/houseparty/houseparty/internal/database"
	"github.com/houseparty/houseparty/internal/handler/health"
	"github.com/houseparty/houseparty/internal/livescore"
	"github.com/houseparty/houseparty/internal/migrations"
	"github.com/houseparty/houseparty/internal/party"
	"github.com/houseparty/houseparty/internal/server"
	"github.com/houseparty/houseparty/internal/squares"
	"github.com/houseparty/houseparty/internal/store"
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

	// --- Database ---
	db, driver, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db, driver.Dialect()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to database", "driver", driver.Dialect())

	checks := map[string]health.Checker{
		driver.Dialect(): health.CheckerFunc(db.PingContext),
	}

	// --- Live score cache ---
	var cache livescore.Cache = livescore.NewMemoryCache()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		rc := livescore.NewRedisCache(rdb, 0)
		cache = rc
		checks["redis"] = health.CheckerFunc(rc.Ping)
	}

	// --- Services ---
	st := store.New(db, driver)
	broker := party.NewBroker(logger)
	sq := squares.NewService(st, logger, squares.WithAllGuests(cfg.SquaresAllGuests))
	broker.Subscribe(party.EventLocked, func(ctx context.Context, e party.Event) {
		sq.AssignOnLock(ctx, e.Party)
	})

	scores := livescore.NewAdapter(
		livescore.NewESPN(cfg.LiveScore.URL, cfg.LiveScore.Timeout),
		cache,
		livescore.TTLs{Pre: cfg.LiveScore.TTLPre, Live: cfg.LiveScore.TTLLive, Post: cfg.LiveScore.TTLPost},
		logger,
	)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, cfg.CORSOrigins, server.Deps{
		Parties:   party.NewService(st, broker, logger),
		Squares:   sq,
		LiveScore: scores,
		Feeder:    livescore.NewFeeder(sq, logger),
		EventID:   cfg.LiveScore.EventID,
		PublicURL: cfg.PublicURL,
		Checks:    checks,
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
