package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lysyi3m/rss-digest/internal/api"
	"github.com/lysyi3m/rss-digest/internal/cfg"
	"github.com/lysyi3m/rss-digest/internal/feed"
	"github.com/lysyi3m/rss-digest/internal/mailer"
	"github.com/lysyi3m/rss-digest/internal/runner"
	"github.com/lysyi3m/rss-digest/internal/scheduler"
	"github.com/lysyi3m/rss-digest/internal/state"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	appCfg, err := cfg.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}
	if appCfg == nil {
		return exitOK
	}

	setupLogging(appCfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(appCfg)
	if err != nil {
		slog.Error("Failed to open state store", "backend", appCfg.StateBackend, "path", appCfg.StatePath, "error", err)
		return exitFailure
	}
	defer closeStore()

	fetcher := feed.NewFetcher(feed.NewHTTPClient(appCfg.HTTPTimeout), feed.NewParser(), appCfg.UserAgent)
	r := runner.NewRunner(appCfg.FeedListPath, store, fetcher, newSender(appCfg), runner.Options{
		InitialRunSend:  appCfg.InitialRunSend,
		SeenLimit:       appCfg.SeenLimit,
		MaxItemsPerFeed: appCfg.MaxItemsPerFeed,
		SubjectPrefix:   appCfg.SubjectPrefix,
	})

	slog.Info("Starting rss-digest",
		"version", appCfg.Version,
		"feed_list", appCfg.FeedListPath,
		"state", appCfg.StatePath,
		"backend", appCfg.StateBackend,
		"dry_run", appCfg.DryRun)

	if !appCfg.Scheduled() {
		_, err := r.RunOnce(ctx)
		return exitCode(ctx, err)
	}

	return runScheduled(ctx, appCfg, r, store)
}

func runScheduled(ctx context.Context, appCfg *cfg.Cfg, r *runner.Runner, store state.Backend) int {
	tracker := api.NewTracker()

	sched, err := scheduler.NewScheduler(appCfg.CronSchedule, func(ctx context.Context) error {
		report, err := r.RunOnce(ctx)
		tracker.Record(report, err)
		return err
	}, appCfg.CronImmediate, appCfg.CronMaxSleep)
	if err != nil {
		slog.Error("Invalid schedule", "error", err)
		return exitConfig
	}

	var wg sync.WaitGroup
	if appCfg.Port != "" {
		handler := api.NewHandler(store, tracker, sched, appCfg.Version)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.Serve(ctx, appCfg.Port, api.NewServer(handler)); err != nil {
				slog.Error("Status server error", "error", err)
			}
		}()
	}

	// Run only returns once ctx is done; a signal is a clean shutdown here.
	_ = sched.Run(ctx)
	wg.Wait()

	slog.Info("rss-digest shutdown complete")
	return exitOK
}

func openStore(appCfg *cfg.Cfg) (state.Backend, func(), error) {
	if appCfg.StateBackend == cfg.BackendSQLite {
		store, err := state.NewSQLiteStore(appCfg.StatePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close state database", "error", err)
			}
		}, nil
	}
	return state.NewJSONStore(appCfg.StatePath), func() {}, nil
}

func newSender(appCfg *cfg.Cfg) mailer.Sender {
	if appCfg.DryRun {
		return mailer.NewWriterSender(os.Stdout)
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     appCfg.SMTP.Host,
		Port:     appCfg.SMTP.Port,
		Username: appCfg.SMTP.Username,
		Password: appCfg.SMTP.Password,
		UseTLS:   appCfg.SMTP.UseTLS,
		UseSSL:   appCfg.SMTP.UseSSL,
		From:     appCfg.SMTP.From,
		To:       appCfg.SMTP.To,
		Timeout:  appCfg.HTTPTimeout,
	})
}

func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, runner.ErrConfig):
		slog.Error("Configuration error", "error", err)
		return exitConfig
	case ctx.Err() != nil:
		slog.Warn("Run interrupted", "error", err)
		return exitInterrupted
	default:
		slog.Error("Run failed", "error", err)
		return exitFailure
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
