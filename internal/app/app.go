package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/followup/internal/config"
	"github.com/MrSnakeDoc/followup/internal/httpserver"
	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/httpserver/mw"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/notify"
	"github.com/MrSnakeDoc/followup/internal/records"
	"github.com/MrSnakeDoc/followup/internal/reminder"
	"github.com/MrSnakeDoc/followup/internal/sources/seed"
	"github.com/MrSnakeDoc/followup/internal/store"
	"github.com/MrSnakeDoc/followup/internal/version"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	backends  *Backends
	server    *httpserver.Server
	reminders *reminder.Service
	seed      *seed.Reloader
}

// New opens the backends and wires the services and the HTTP server.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	backends, err := OpenBackends(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	repo := store.NewRecords(backends.KV)
	inbox := notify.NewInbox(loggerClient.With(logger.Component("notify")))
	recordSvc := records.NewService(repo, cfg.Location, loggerClient.With(logger.Component("records")))
	reminders := reminder.NewService(repo, backends.Timers, inbox, loggerClient.With(logger.Component("reminder")), reminder.Options{
		Location: cfg.Location,
		Snooze:   cfg.Snooze,
		Sweep:    cfg.Sweep,
	})

	// Initialize seed reloader (if a seed file is configured)
	var seedReloader *seed.Reloader
	var seedTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed reloader",
			logger.String("file", cfg.SeedFile))
		seedTrigger = make(chan struct{}, 1)
		seedReloader = seed.NewReloader(cfg.SeedFile, recordSvc, loggerClient.With(logger.Component("seed")), seedTrigger)
	}

	var mutationLimit func(next http.Handler) http.Handler
	if cfg.RateBurst > 0 {
		mutationLimit = mw.RateLimit(mw.RateLimitConfig{
			Burst:      cfg.RateBurst,
			PerMinute:  cfg.RatePerMinute,
			MaxEntries: 10_000,
			IdleTTL:    10 * time.Minute,
			TrustProxy: cfg.TrustProxy,
		}, loggerClient)
	}

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		MutationLimit:  mutationLimit,
		StoreBackend:   cfg.Store,
		TimerBackend:   cfg.Timers,
		KV:             backends.KV,
		Records:        recordSvc,
		Reminders:      reminders,
		Inbox:          inbox,
		SeedTrigger:    seedTrigger,
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		backends:  backends,
		server:    httpserver.New(cfg, loggerClient, d),
		reminders: reminders,
		seed:      seedReloader,
	}, nil
}

// Run serves until SIGINT/SIGTERM or until a component fails, then shuts
// everything down in order: HTTP, reminder loop, timers, store.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting followup %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.backends.Close()

	a.backends.StartTimers(ctx)

	// Import the seed before the first reconcile so seeded follow-ups get armed
	if a.seed != nil {
		if err := a.seed.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		defer a.seed.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.reminders.Run(gctx); err != nil {
			return fmt.Errorf("reminder loop error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		err := a.server.Stop(shutdownCtx)
		a.reminders.Stop()
		if err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("✅ followup stopped cleanly")
	return nil
}
