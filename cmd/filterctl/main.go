package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draknorr/publisheriq-sub000/internal/config"
	"github.com/draknorr/publisheriq-sub000/internal/logging"
	"github.com/draknorr/publisheriq-sub000/internal/notify"
	"github.com/draknorr/publisheriq-sub000/internal/notify/nats"
	"github.com/draknorr/publisheriq-sub000/internal/prefs"
	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/session"
	"github.com/draknorr/publisheriq-sub000/internal/suggest"
)

func main() {
	// 0. Parse Command Line Flags
	configDir := flag.String("config", "config", "Configuration directory")
	location := flag.String("location", "", "Initial query string, e.g. \"minCcu=1000&filters=popular\"")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 2. Open collaborators
	store, err := openStore(cfg.Prefs)
	if err != nil {
		log.Fatalf("Failed to open preference store: %v", err)
	}
	defer store.Close()

	notifier := notify.NewNotifier(nil, slog.Default())
	if cfg.Notify.Enabled {
		pub, err := nats.Dial(ctx, cfg.Notify.NatsURL, notify.PublisherOptions{
			SubjectPrefix: cfg.Notify.SubjectPrefix,
			StreamName:    cfg.Notify.StreamName,
			RetryAttempts: cfg.Notify.RetryAttempts,
		})
		if err != nil {
			slog.Warn("Change notifications disabled", "error", err)
		} else {
			notifier = notify.NewNotifier(pub, slog.Default())
		}
	}
	defer notifier.Close()

	s, err := session.New(session.Options{
		Registry: registry.Default(),
		Location: session.NewMemoryLocation(*location),
		Filters:  cfg.Filters,
		Suggest:  suggest.Options{MaxDistance: cfg.Suggest.MaxDistance, MaxResults: cfg.Suggest.MaxResults},
		Prefs:    prefs.New(store),
		Notifier: notifier,
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	if err := s.Load(ctx); err != nil {
		log.Fatalf("Failed to load filters: %v", err)
	}
	slog.Info("Session started", "session", s.ID())

	// 3. Run until EOF, :quit or a signal
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		runCancel()
		os.Stdin.Close()
	}()

	if err := newREPL(s, os.Stdout).Run(runCtx, os.Stdin); err != nil {
		slog.Error("Session ended with error", "error", err)
	}

	// 4. Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := s.Close(shutdownCtx); err != nil {
		slog.Error("Failed to flush filters", "error", err)
	}
}

func openStore(cfg config.PrefsConfig) (prefs.Store, error) {
	if cfg.Backend == config.PrefsBackendPebble {
		return prefs.OpenPebble(prefs.PebbleOptions{Path: cfg.Path, Logger: slog.Default()})
	}
	return prefs.NewMemoryStore(), nil
}
