package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/outbreak-estimator/internal/config"
	"github.com/Dan9191/outbreak-estimator/internal/handler"
	"github.com/Dan9191/outbreak-estimator/internal/metrics"
	"github.com/Dan9191/outbreak-estimator/internal/middleware"
	"github.com/Dan9191/outbreak-estimator/internal/repository"
	"github.com/Dan9191/outbreak-estimator/internal/scheduler"
	"github.com/Dan9191/outbreak-estimator/internal/service"
	"github.com/Dan9191/outbreak-estimator/internal/utils/email"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file (overrides CONFIG_FILE)")
	flag.Parse()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	os.Exit(run(*configPath, logger))
}

// run serves until SIGINT/SIGTERM and returns the process exit code.
// Deferred cleanup always runs before main exits.
func run(configPath string, logger *logrus.Logger) int {
	// Load configuration
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		return 1
	}
	setLevel(logger, cfg.LogLevel)

	// Request log store
	store, err := repository.NewRequestLogStore(cfg)
	if err != nil {
		logger.Errorf("Failed to open request log store: %v", err)
		return 1
	}
	defer store.Close()

	// Result cache
	var cache repository.Cache
	switch cfg.Cache {
	case config.CacheMemory:
		cache = repository.NewMemoryCache()
	case config.CacheRedis:
		rc := repository.NewRedisCache(cfg.RedisAddr)
		defer rc.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warnf("Redis at %s not reachable, results will be computed on every request: %v", cfg.RedisAddr, err)
		}
		cancel()
		cache = rc
	}

	// Capacity alerts
	var notifier service.Notifier
	if cfg.AlertsEnabled() {
		notifier = email.NewSender(cfg, logger)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		defer limiter.Stop()
	}

	// Initialize layers
	m := metrics.New()
	svc := service.NewService(cache, notifier, m, logger, cfg)
	h := handler.NewHandler(svc, store, m, logger)

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(cfg, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return svc.RunAlerts(ctx)
	})

	g.Go(func() error {
		return scheduler.New(store, cfg.LogRetention, logger).Run(ctx, cfg.LogPruneSchedule)
	})

	// Only the log level is applied on reload, everything else needs a restart
	if cfg.Path != "" {
		g.Go(func() error {
			return config.Watch(ctx, cfg.Path, logger, func(next *config.Config) {
				setLevel(logger, next.LogLevel)
			})
		})
	}

	if err := g.Wait(); err != nil {
		logger.Errorf("Stopped with error: %v", err)
		return 1
	}
	logger.Info("Server stopped")
	return 0
}

func setLevel(logger *logrus.Logger, level string) {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
}
