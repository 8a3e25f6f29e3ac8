package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"energy-server/auth"
	"energy-server/cache"
	"energy-server/catalog"
	"energy-server/confs"
	"energy-server/db"
	"energy-server/logger"
	"energy-server/metrics"
	"energy-server/middleware"
	"energy-server/repositories"
	"energy-server/server"
	"energy-server/services"
	"energy-server/usecases"
	"energy-server/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zl)
	zl.Info("Starting server", cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("Server stopped with error", zap.Error(err))
	}
	zl.Info("Server stopped")
}

func run(ctx context.Context, cfg *confs.Config, zl *zap.Logger) error {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	zl.Info("Loaded household catalog", zap.Int("items", cat.Len()))

	store, closeStore, err := openStore(cfg, zl)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New("energy")
	tokens := auth.NewTokenIssuer(cfg.JWT.SigningKey, cfg.JWT.TTL)
	alertCache := cache.NewAlertCache(cfg.Alerts.Cooldown)

	manager := ws.NewManager()
	manager.OnChange(m.SetConnections)

	devices := usecases.NewDeviceUseCase(store.Devices, cat)
	units := usecases.NewUnitUseCase(store.Units, store.Usage, m)
	usage := usecases.NewUsageUseCase(store.Usage, cat, m)
	alerts := usecases.NewAlertUseCase(store.Alerts, alertCache, m, zl)
	accounting := usecases.NewAccountingUseCase(devices, units, alerts, cfg.Pricing.UnitPrice, zl)

	meter := services.NewMeter(devices, usage, accounting, manager, m, zl, cfg.Meter.Schedule)
	if cfg.Meter.Enabled {
		if err := meter.Start(ctx); err != nil {
			return err
		}
		defer meter.Stop()
	}

	limiter, err := newLimiter(ctx, cfg.RateLimit, zl)
	if err != nil {
		return err
	}

	go pruneAlertCache(ctx, alertCache, zl)

	srv := server.NewServer(server.Deps{
		Config:     cfg,
		Log:        zl,
		Metrics:    m,
		Tokens:     tokens,
		Users:      usecases.NewUserUseCase(store.Users, auth.NewHasher(), tokens, m, zl),
		Devices:    devices,
		Units:      units,
		Usage:      usage,
		Alerts:     alerts,
		Accounting: accounting,
		Meter:      meter,
		Manager:    manager,
		AlertCache: alertCache,
		Limiter:    limiter,
	})
	return srv.Run(ctx)
}

func openStore(cfg *confs.Config, zl *zap.Logger) (repositories.Store, func(), error) {
	if cfg.DB.Store == "memory" {
		zl.Warn("Using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore(), func() {}, nil
	}

	// connect to database Postgres
	database, err := db.Connect(cfg.DB, zl)
	if err != nil {
		return repositories.Store{}, nil, err
	}
	closeFn := func() {
		if c, ok := database.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				zl.Warn("Closing database failed", zap.Error(err))
			}
		}
	}
	return repositories.NewPgStore(database), closeFn, nil
}

func newLimiter(ctx context.Context, cfg confs.RateLimitConfig, zl *zap.Logger) (middleware.Limiter, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			zl.Warn("Redis unreachable, rate limiter will fail open", zap.Error(err))
		}
		zl.Info("Using Redis rate limiter", zap.Int("limit", cfg.Burst), zap.Duration("window", cfg.Window))
		return middleware.NewRedisLimiter(client, cfg.Burst, cfg.Window), nil
	}

	limiter := middleware.NewMemoryLimiter(cfg.RequestsPerSecond, cfg.Burst)
	limiter.StartCleanup(ctx, time.Minute)
	return limiter, nil
}

func pruneAlertCache(ctx context.Context, ac *cache.AlertCache, zl *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := ac.Prune(now); n > 0 {
				zl.Debug("Pruned alert cache", zap.Int("removed", n))
			}
		}
	}
}
