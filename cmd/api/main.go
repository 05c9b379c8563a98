// Package main provides the entrypoint for the RakshaMarg API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/api"
	"github.com/DNA-Coded/RakshaMarg/internal/api/handler"
	"github.com/DNA-Coded/RakshaMarg/internal/api/middleware"
	"github.com/DNA-Coded/RakshaMarg/internal/contacts"
	"github.com/DNA-Coded/RakshaMarg/internal/database"
	"github.com/DNA-Coded/RakshaMarg/internal/escalation"
	"github.com/DNA-Coded/RakshaMarg/internal/notify"
	"github.com/DNA-Coded/RakshaMarg/internal/notify/smsgateway"
	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
	"github.com/DNA-Coded/RakshaMarg/internal/risk"
	"github.com/DNA-Coded/RakshaMarg/internal/risk/gemini"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
	"github.com/DNA-Coded/RakshaMarg/internal/routing/googlemaps"
	"github.com/DNA-Coded/RakshaMarg/internal/safety"
	"github.com/DNA-Coded/RakshaMarg/internal/sharetoken"
	"github.com/DNA-Coded/RakshaMarg/internal/telemetry"
	"github.com/DNA-Coded/RakshaMarg/internal/tracking"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "rakshamarg-api"

	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RakshaMarg API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8000"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	apiKey := os.Getenv("APP_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("APP_API_KEY not set - all authenticated endpoints will reject requests")
	}

	// Connect to database when configured; fall back to in-memory
	// storage for local development.
	var contactRepo contacts.Repository
	var sosRepo escalation.Repository
	var db handler.Pinger

	if os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "" {
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		contactRepo = contacts.NewPostgresRepository(pool)
		sosRepo = escalation.NewPostgresRepository(pool)
		db = pool
		log.Info().
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		contactRepo = contacts.NewInMemoryRepository()
		sosRepo = escalation.NewInMemoryRepository()
		log.Warn().Msg("no database configured - using in-memory storage")
	}

	// Provider health registry
	registry := resilience.NewRegistry()

	// Mapping provider and route cache
	mapsClient := googlemaps.NewClient(googlemaps.ClientConfig{
		APIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		Registry: registry,
		Logger:   log,
	})
	routeService := routing.NewService(routing.ServiceConfig{
		Provider: mapsClient,
		Logger:   log,
	})
	log.Info().Msg("routing service initialized")

	// Risk classifier; without a key the adapter serves fallback
	// assessments only.
	var classifier risk.Classifier
	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		classifier = gemini.NewClient(gemini.ClientConfig{
			APIKey:   geminiKey,
			Model:    os.Getenv("GEMINI_MODEL"),
			Registry: registry,
			Logger:   log,
		})
		log.Info().Msg("risk classifier initialized")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - routes will score on fallback risk only")
	}
	riskAdapter := risk.NewAdapter(risk.AdapterConfig{
		Classifier: classifier,
		Logger:     log,
	})

	// Safety ranker
	ranker := safety.NewRanker(safety.RankerConfig{
		Routes: routeService,
		Risk:   riskAdapter,
		Logger: log,
	})

	// Live tracking
	trackers := tracking.NewManager(tracking.ManagerConfig{
		Reranker: ranker,
		Logger:   log,
		OnDeviation: func(ev tracking.DeviationEvent) {
			log.Warn().
				Str("session_id", ev.SessionID).
				Str("traveler_id", ev.TravelerID).
				Float64("distance_m", ev.DistanceMeters).
				Bool("confirmed", ev.Confirmed).
				Msg("route deviation")
		},
	})
	defer trackers.StopAll()
	log.Info().Msg("tracking manager initialized")

	// Trusted contacts
	contactService := contacts.NewService(contactRepo)

	// Notification channels
	smsChannel := smsgateway.NewClient(smsgateway.ClientConfig{
		BaseURL:  os.Getenv("SMS_GATEWAY_URL"),
		APIKey:   os.Getenv("SMS_GATEWAY_API_KEY"),
		Sender:   os.Getenv("SMS_SENDER"),
		Registry: registry,
		Logger:   log,
	})
	if os.Getenv("SMS_GATEWAY_URL") == "" {
		log.Warn().Msg("SMS_GATEWAY_URL not set - contact notifications will fail")
	}

	var emergencyChannel notify.Channel
	if webhookURL := os.Getenv("EMERGENCY_WEBHOOK_URL"); webhookURL != "" {
		emergencyChannel = notify.NewWebhookChannel(notify.WebhookConfig{
			URL:      webhookURL,
			Registry: registry,
			Logger:   log,
		})
		log.Info().Msg("emergency webhook initialized")
	} else {
		log.Warn().Msg("EMERGENCY_WEBHOOK_URL not set - no fallback for travelers without contacts")
	}

	// SOS event reporter (optional)
	var reporter escalation.Reporter
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		publisher, pubErr := escalation.NewPublisher(ctx, escalation.PublisherConfig{
			ProjectID: projectID,
			TopicName: getEnvOrDefault("PUBSUB_TOPIC", "sos-events"),
			Logger:    log,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to initialize sos publisher")
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close sos publisher")
			}
		}()
		reporter = publisher
		log.Info().Msg("sos publisher initialized")
	}

	// Escalation engine
	engine := escalation.NewEngine(escalation.EngineConfig{
		Contacts:   contactService,
		Channel:    smsChannel,
		Emergency:  emergencyChannel,
		Repository: sosRepo,
		Reporter:   reporter,
		Sessions:   trackers,
		Logger:     log,
	})
	log.Info().Msg("escalation engine initialized")

	// Tracking share tokens
	signingKey := os.Getenv("SHARE_TOKEN_SIGNING_KEY")
	if signingKey == "" {
		signingKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default share token signing key - not secure for production")
	}
	shareTokens := sharetoken.NewService(sharetoken.Config{
		SigningKey: signingKey,
	})

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		APIKey:         apiKey,
		Ranker:         ranker,
		TrackerManager: trackers,
		ShareTokens:    shareTokens,
		ContactService: contactService,
		Escalation:     engine,
		Registry:       registry,
		DB:             db,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
