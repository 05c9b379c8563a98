// Package main provides the entrypoint for the RakshaMarg SOS dispatch
// worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/notify"
	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
	"github.com/DNA-Coded/RakshaMarg/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "rakshamarg-worker"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RakshaMarg dispatch worker")

	cfg := worker.ConfigFromEnv()
	if cfg.ProjectID == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required")
	}
	if cfg.RelayURL == "" {
		log.Fatal().Msg("DISPATCH_RELAY_URL is required")
	}

	// Worker also exposes a health endpoint for Cloud Run.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := resilience.NewRegistry()
	relay := notify.NewWebhookChannel(notify.WebhookConfig{
		URL:      cfg.RelayURL,
		Timeout:  cfg.RelayTimeout,
		Registry: registry,
		Logger:   log,
	})

	job := worker.NewDispatchJob(worker.DispatchJobConfig{
		Relay:   relay,
		Timeout: cfg.RelayTimeout,
		Logger:  log,
	})

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.ProjectID,
		SubscriptionName: cfg.SubscriptionName,
		Job:              job,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pubsub handler")
	}
	defer func() {
		if closeErr := handler.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close pubsub handler")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"OK","version":"` + Version + `"}`))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Fatal().Err(serveErr).Msg("health server error")
		}
	}()

	// Receive blocks until the context is canceled.
	receiveDone := make(chan error, 1)
	go func() {
		receiveDone <- handler.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutting down worker")
		cancel()
		if receiveErr := <-receiveDone; receiveErr != nil {
			log.Error().Err(receiveErr).Msg("receive stopped with error")
		}
	case receiveErr := <-receiveDone:
		if receiveErr != nil {
			log.Error().Err(receiveErr).Msg("receive stopped with error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
