package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/RichD/stock-audible/internal/broadcast"
	"github.com/RichD/stock-audible/internal/config"
	"github.com/RichD/stock-audible/internal/logging"
	"github.com/RichD/stock-audible/internal/pricesource"
	"github.com/RichD/stock-audible/internal/server"
	"github.com/RichD/stock-audible/internal/ticker"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, scheduler *ticker.Scheduler, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		scheduler.Shutdown()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	var source = pricesource.NewRetryingSource(
		pricesource.NewBreakerSource(
			pricesource.NewYahooClient(cfg.QuoteAPIURL, cfg.FetchTimeout),
		),
		pricesource.DefaultPolicy,
	)

	store := ticker.NewStore(cfg.MinIntervalSeconds)
	hub := broadcast.NewHub(clock, cfg.MaxClients, store.ReplayEvents)
	scheduler := ticker.NewScheduler(store, source, hub, clock)

	srv, err := server.NewServer(cfg, hub, scheduler, store)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, scheduler, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
