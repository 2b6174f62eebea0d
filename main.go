package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/leadscout/internal/app"
	"github.com/ibeckermayer/leadscout/internal/auth"
	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/generator"
	"github.com/ibeckermayer/leadscout/internal/httpapi"
	"github.com/ibeckermayer/leadscout/internal/leads"
	"github.com/ibeckermayer/leadscout/internal/logging"
	"github.com/ibeckermayer/leadscout/internal/notifier"
	"github.com/ibeckermayer/leadscout/internal/platform"
	"github.com/ibeckermayer/leadscout/internal/platform/redditapi"
	"github.com/ibeckermayer/leadscout/internal/promote"
	"github.com/ibeckermayer/leadscout/internal/report"
	"github.com/ibeckermayer/leadscout/internal/scheduler"
	"github.com/ibeckermayer/leadscout/internal/scraper"
	"github.com/ibeckermayer/leadscout/internal/store"
	"github.com/ibeckermayer/leadscout/internal/synth"
)

func main() {
	envFile := flag.String("env", ".env", "path to a .env file with secrets")
	flag.Parse()

	logging.Init("info")
	config.LoadEnv(*envFile)

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("leadscout exited", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, creating it with defaults on first run,
// then overlays the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// First run - create default config
			cfg = config.Default()
			if err := cfg.Save(); err != nil {
				slog.Warn("Could not save default config", "error", err)
			} else {
				path, _ := config.ConfigPath()
				slog.Info("Created default config", "path", path)
			}
		} else {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	session := platform.NewSession(
		platform.WithRetry(client, platform.RetryPolicy{
			MaxAttempts:    cfg.Platform.RetryMax,
			InitialBackoff: platform.DefaultRetryPolicy.InitialBackoff,
			MaxBackoff:     platform.DefaultRetryPolicy.MaxBackoff,
		}),
		cfg.Promotion.EngageDelay.Duration,
	)
	defer session.Close()

	gen, err := generator.New(ctx, cfg.Generator)
	if err != nil {
		return fmt.Errorf("text generator: %w", err)
	}
	slog.Info("Text generator ready", "provider", gen.Name())

	dbPath, err := store.DefaultPath()
	if err != nil {
		return err
	}
	runs, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer runs.Close()

	artifactDir, err := config.CacheDir()
	if err != nil {
		return err
	}

	agg := leads.New()
	sy := synth.New(gen)
	orch := promote.New(promote.Deps{
		Session:     session,
		Generator:   gen,
		Synth:       sy,
		Leads:       agg,
		Runs:        runs,
		ArtifactDir: artifactDir,
		Defaults:    cfg.Promotion,
	})

	reports, err := report.New(25)
	if err != nil {
		return err
	}
	notify, err := notifier.NewFromConfig(cfg.Email)
	if err != nil {
		return err
	}

	a := app.New(app.Deps{
		Config:       cfg,
		Session:      session,
		Generator:    gen,
		Leads:        agg,
		Synth:        sy,
		Orchestrator: orch,
		Runs:         runs,
		Posts:        runs,
		Notifier:     notify,
		Reports:      reports,
		ArtifactDir:  artifactDir,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpapi.Serve(ctx, cfg.Server.Addr, httpapi.NewRouter(a))
	})

	if cfg.Schedule.Enabled {
		sched, err := scheduler.New(cfg.Schedule.Timezone)
		if err != nil {
			return err
		}
		if err := sched.AddJob("auto-promote", cfg.Schedule.Cron, a.ScheduledPromotion); err != nil {
			return err
		}
		sched.Start()
		g.Go(func() error {
			<-ctx.Done()
			<-sched.Stop().Done()
			return nil
		})
	}

	slog.Info("leadscout started", "platform", session.Name(), "addr", cfg.Server.Addr, "adapter", cfg.Platform.Adapter)
	return g.Wait()
}

// newClient builds the configured platform adapter
func newClient(cfg *config.Config) (platform.Client, error) {
	switch cfg.Platform.Adapter {
	case "api":
		return redditapi.New(redditapi.Config{
			ClientID:     cfg.Reddit.ClientID,
			ClientSecret: cfg.Reddit.ClientSecret,
			Username:     cfg.Reddit.Username,
			Password:     cfg.Reddit.Password,
			UserAgent:    cfg.Reddit.UserAgent,
		}), nil
	default:
		configDir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		cookiePath, err := auth.DefaultCookieStorePath()
		if err != nil {
			return nil, fmt.Errorf("cookie store path: %w", err)
		}
		profileDir := filepath.Join(configDir, "browser-profile")
		manager := auth.NewManager(auth.NewRedditCookieStore(cookiePath), profileDir, cfg.Platform.LoginTimeout.Duration)
		return scraper.New(scraper.Options{
			Headless:    cfg.Platform.Headless,
			ProfileDir:  profileDir,
			PageTimeout: cfg.Platform.PageTimeout.Duration,
		}, manager), nil
	}
}
