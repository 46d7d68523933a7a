package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"OilTracker/internal/analytics"
	"OilTracker/internal/config"
	"OilTracker/internal/logging"
	"OilTracker/internal/notifier"
	"OilTracker/internal/scheduler"
	"OilTracker/internal/server"
	"OilTracker/internal/store"
	"OilTracker/internal/watch"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("driver", cfg.Database.Driver).Str("addr", cfg.Server.Addr).Msg("OilTracker starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := openStore(cfg)
	defer st.Close()

	if cfg.SeedEnabled() {
		opts := store.SeedOptions{Days: cfg.Seed.Days, RandomSeed: cfg.Seed.RandomSeed}
		if opts.RandomSeed == 0 {
			opts.RandomSeed = time.Now().UnixNano()
		}
		if err := store.Seed(ctx, st, opts); err != nil {
			log.Fatal().Err(err).Msg("seed store")
		}
	}

	svc := analytics.NewService(st)

	ensureDir(cfg.Watch.StateFile)
	watcher, err := watch.NewWatcher(cfg.Watch.StateFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Watch.StateFile).Msg("load watch state")
	}

	var n notifier.Notifier = notifier.NoopNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	} else {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, svc, st, watcher, n)
	if err := sched.RegisterAll(cfg.Schedule.ScoreCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}
	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, scoring now")
		go sched.RunScoreNow()
	}

	srv := server.New(cfg.Server.Addr, st, svc, watcher)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("OilTracker stopped")
}

// openStore opens the configured store, falling back to memory when the
// SQL backend is unavailable.
func openStore(cfg *config.Config) store.Store {
	if cfg.Database.Driver == "sqlite" {
		ensureDir(cfg.Database.DSN)
	}
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Database.Driver).Msg("open store failed, using memory")
		return store.NewMemoryStore()
	}
	return st
}

func ensureDir(file string) {
	if file == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		log.Warn().Err(err).Str("file", file).Msg("create data directory")
	}
}
