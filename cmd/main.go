package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/playerstock/internal/adapters/http/api"
	"github.com/okian/playerstock/internal/adapters/http/swagger"
	"github.com/okian/playerstock/internal/adapters/repository"
	"github.com/okian/playerstock/internal/adapters/sleeper"
	service "github.com/okian/playerstock/internal/app"
	"github.com/okian/playerstock/internal/config"
	"github.com/okian/playerstock/pkg/logger"
	"github.com/okian/playerstock/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 120 * time.Second // aggregation runs fan out over every league
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
	upstreamBurst          = 5
)

func main() {
	// We collect our own system metrics on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	dbCfg := repository.DefaultConfig(cfg.DBPath)
	dbCfg.Logger = loggerInstance
	db, err := repository.Open(ctx, dbCfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open database", logger.String("path", cfg.DBPath), logger.Error(err))
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			loggerInstance.Error(context.Background(), "failed to close database", logger.Error(err))
		}
	}()

	client := sleeper.NewClient(
		sleeper.WithBaseURL(cfg.UpstreamBaseURL),
		sleeper.WithTimeout(cfg.UpstreamTimeout()),
		sleeper.WithRateLimit(cfg.UpstreamRatePerSec, upstreamBurst),
		sleeper.WithSport(cfg.Sport),
		sleeper.WithLogger(loggerInstance),
	)

	svc := newService(cfg, client, db, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService wires the ownership service from configuration.
func newService(cfg *config.Config, gateway service.Gateway, store service.Store, l logger.Logger) *service.Service {
	return service.New(
		service.WithGateway(gateway),
		service.WithStore(store),
		service.WithLogger(l),
		service.WithCacheSize(cfg.CacheSize),
		service.WithFanoutConcurrency(cfg.FanoutConcurrency),
		service.WithLeagueTimeout(cfg.LeagueTimeout()),
		service.WithSeasonRange(cfg.MinSeason, cfg.Season),
	)
}

// newMux registers the API and document routes.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater refreshes process metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater mirrors service stats into gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if n, ok := stats["fanoutConcurrency"].(int); ok {
		metrics.UpdateWorkerConcurrency(n)
	}
	if n, ok := stats["cachedHandles"].(int64); ok {
		metrics.UpdateCacheEntries(int(n))
	}
}
