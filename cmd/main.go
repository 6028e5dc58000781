package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/studybuddy/internal/adapters/classifier"
	"github.com/okian/studybuddy/internal/adapters/http/api"
	"github.com/okian/studybuddy/internal/adapters/http/site"
	"github.com/okian/studybuddy/internal/adapters/http/swagger"
	"github.com/okian/studybuddy/internal/adapters/repository"
	"github.com/okian/studybuddy/internal/adapters/telegram"
	app "github.com/okian/studybuddy/internal/app"
	"github.com/okian/studybuddy/internal/config"
	"github.com/okian/studybuddy/internal/domain/advice"
	"github.com/okian/studybuddy/internal/domain/level"
	"github.com/okian/studybuddy/pkg/logger"
	"github.com/okian/studybuddy/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "studybuddy failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(metricsOptions(cfg)...)

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		svc.Stop(stopCtx)
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	if cfg.Telegram.Token != "" {
		bot, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.PollTimeout, svc)
		if err != nil {
			return err
		}
		go bot.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.RequestIDMiddleware(newMux(ctx, cfg, svc)),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

var openJournal = repository.Open //nolint:gochecknoglobals // replaced in tests

// buildService assembles the classifier, level detector, advice catalog and
// journal described by cfg.
func buildService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	clf, err := classifier.New(ctx, cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	profile, err := levelProfile(cfg.Level)
	if err != nil {
		return nil, err
	}

	catalog := advice.Default()
	if cfg.Advice.CatalogPath != "" {
		if catalog, err = advice.Load(cfg.Advice.CatalogPath); err != nil {
			return nil, err
		}
	}

	opts := []app.Option{
		app.WithLogger(logger.Get().Named("guidance")),
		app.WithClassifierName(cfg.Classifier.Backend),
		app.WithDetector(level.NewDetector(profile)),
		app.WithCatalog(catalog),
		app.WithTopEmotions(cfg.TopEmotions),
		app.WithCacheSize(cfg.CacheSize),
	}
	if cfg.Journal.Enabled {
		store, err := openJournal(ctx, cfg.Journal.Backend, cfg.Journal.DSN)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		opts = append(opts,
			app.WithJournal(store, cfg.Journal.Backend, cfg.Journal.QueueSize, cfg.Journal.Workers),
			app.WithRetention(cfg.Journal.Retention, cfg.Journal.PruneSchedule),
		)
		svc, err := app.New(clf, opts...)
		if err != nil {
			if cerr := store.Close(); cerr != nil {
				logger.Get().Warn(ctx, "closing journal store", logger.Error(cerr))
			}
			return nil, err
		}
		return svc, nil
	}
	return app.New(clf, opts...)
}

// levelProfile returns the configured keyword sets, or the named built-in.
func levelProfile(c config.LevelConfig) (level.Profile, error) {
	if c.HasKeywords() {
		return level.Profile{
			Name:         "custom",
			Beginner:     c.Beginner,
			Intermediate: c.Intermediate,
			Advanced:     c.Advanced,
		}, nil
	}
	return level.ProfileByName(c.Profile)
}

// newMux registers every HTTP surface.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()

	// Register API docs under /api-docs and /openapi.yaml
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	api.NewServer(svc, svc, cfg.Journal.HistoryLimit).Register(ctx, mux)

	// The form page owns / and /static/.
	site.Register(ctx, mux, svc)
	return mux
}

// metricsOptions maps the metrics config section onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithHistogramBuckets(cfg.Metrics.Buckets),
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.Metrics.RefreshInterval),
		metrics.WithCustomLabels(cfg.Metrics.Labels),
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
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

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. GetStats already
// refreshes the cache and journal entry gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if stats.Journal != nil {
		metrics.UpdateQueueSize(stats.Journal.QueueLength)
	}
}
