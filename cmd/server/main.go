package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Schera-ole/telemetry/internal/audit"
	"github.com/Schera-ole/telemetry/internal/config"
	"github.com/Schera-ole/telemetry/internal/counter"
	"github.com/Schera-ole/telemetry/internal/handler"
	"github.com/Schera-ole/telemetry/internal/logger"
	"github.com/Schera-ole/telemetry/internal/market"
	"github.com/Schera-ole/telemetry/internal/migration"
	"github.com/Schera-ole/telemetry/internal/repository"
	"github.com/Schera-ole/telemetry/internal/scheduler"
	"github.com/Schera-ole/telemetry/internal/service"
	"github.com/Schera-ole/telemetry/internal/stats"
	"github.com/Schera-ole/telemetry/internal/tasks"
)

func main() {
	cfg, err := config.NewServerConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	sugar, err := logger.New(logger.Config{Level: cfg.LogLevel, FilePath: cfg.LogFile})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer sugar.Sync()

	if err := run(cfg, sugar); err != nil {
		sugar.Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.ServerConfig, sugar *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := openEventLog(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer events.Close()

	kv, err := openKV(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer kv.Close()

	registry := tasks.NewRegistry(sugar)
	dispatcher := audit.NewDispatcher(audit.NewWriter(events), counter.NewCache(kv), registry, sugar)
	consolidator := stats.NewConsolidator(kv, sugar)
	reader := stats.NewReader(kv, sugar)
	merger := market.NewMerger(newProvider(cfg), kv, sugar)

	cron := scheduler.NewCronJob(merger, consolidator, cfg.FullRefreshInterval, sugar)
	// the cron run already consolidates; a separate job only when the cadences differ
	cronJobs := []scheduler.Job{cron.Job(cfg.MarketInterval)}
	if cfg.ConsolidateInterval != cfg.MarketInterval {
		cronJobs = append(cronJobs, scheduler.Job{
			Name:     "consolidate",
			Interval: cfg.ConsolidateInterval,
			Run:      consolidator.ComputeGlobalStats,
		})
	}
	jobs := scheduler.New(sugar, cronJobs...)
	jobs.Start(ctx)

	telemetry := service.NewTelemetryService(reader, dispatcher, kv, events, registry)
	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler.Router(sugar, telemetry, dispatcher, nil),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		sugar.Infow("server listening", "address", cfg.Address, "memStorage", telemetry.IsMemStorage())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		sugar.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			stop()
			jobs.Stop()
			return err
		}
	}

	jobs.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("server shutdown error", "error", err)
	}
	if err := registry.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("background tasks abandoned", "pending", registry.Pending(), "error", err)
	}
	return nil
}

func openEventLog(ctx context.Context, cfg *config.ServerConfig, sugar *zap.SugaredLogger) (repository.EventLog, error) {
	if cfg.DatabaseDSN == "" {
		sugar.Info("no database configured, audit records are kept in memory")
		return repository.NewMemEventLog(), nil
	}
	if err := migration.RunMigrations(ctx, cfg.DatabaseDSN, cfg.MigrationsPath, sugar); err != nil {
		return nil, err
	}
	return repository.NewDBEventLog(cfg.DatabaseDSN)
}

func openKV(ctx context.Context, cfg *config.ServerConfig, sugar *zap.SugaredLogger) (repository.KV, error) {
	if cfg.RedisAddr == "" {
		sugar.Info("no redis configured, counters are kept in memory")
		return repository.NewMemKV(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return repository.NewRedisKV(rdb), nil
}

func newProvider(cfg *config.ServerConfig) market.Provider {
	opts := []market.Option{
		market.WithTimeout(cfg.UpstreamTimeout),
		market.WithRateLimit(cfg.UpstreamRPS),
	}
	chain := market.Chain{
		market.NewGeckoTerminal(market.GeckoConfig{
			BaseURL: cfg.GeckoBaseURL,
			Network: cfg.GeckoNetwork,
			Pool:    cfg.GeckoPool,
		}, opts...),
	}
	if cfg.MoralisAPIKey != "" {
		chain = append(chain, market.NewMoralis(market.MoralisConfig{
			BaseURL: cfg.MoralisBaseURL,
			APIKey:  cfg.MoralisAPIKey,
			Token:   cfg.MoralisToken,
			Pair:    cfg.MoralisPair,
			Chain:   cfg.MoralisChain,
		}, opts...))
	}
	return chain
}
