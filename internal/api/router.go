// Package api provides the HTTP API for RakshaMarg.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/api/handler"
	"github.com/DNA-Coded/RakshaMarg/internal/api/middleware"
	"github.com/DNA-Coded/RakshaMarg/internal/contacts"
	"github.com/DNA-Coded/RakshaMarg/internal/escalation"
	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
	"github.com/DNA-Coded/RakshaMarg/internal/sharetoken"
	"github.com/DNA-Coded/RakshaMarg/internal/tracking"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// APIKey authenticates mobile clients on the traveler-facing routes.
	APIKey string

	Ranker         handler.RouteRanker
	TrackerManager *tracking.Manager
	ShareTokens    *sharetoken.Service
	ContactService *contacts.Service
	Escalation     *escalation.Engine
	Registry       *resilience.Registry
	DB             handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "rakshamarg-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.TrackerManager, cfg.DB)
	navigationHandler := handler.NewNavigationHandler(cfg.Ranker)
	trackingHandler := handler.NewTrackingHandler(cfg.TrackerManager, cfg.Ranker, cfg.ShareTokens)
	contactsHandler := handler.NewContactsHandler(cfg.ContactService)
	sosHandler := handler.NewSOSHandler(cfg.Escalation)

	// API key auth for the traveler-facing surface
	apiKeyAuth := middleware.APIKeyAuth(cfg.APIKey)

	// Rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.RateLimitFromEnv(middleware.ExpensiveRateLimit)) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)                               // 100 req/min
	travelerRateLimit := middleware.RateLimitByTraveler(middleware.StandardRateLimit)                         // 100 req/min per traveler

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(apiKeyAuth).Get("/status", opsHandler.SystemStatus)
		})

		// Shared session view (public) - the token is the credential
		r.With(standardRateLimit).Get("/tracking/shared/{token}", trackingHandler.SharedView)

		// Route safety check - expensive upstream calls, strict rate limiting
		r.Route("/navigation", func(r chi.Router) {
			r.Use(apiKeyAuth)
			r.With(expensiveRateLimit).Get("/route", navigationHandler.CheckRoute)
			// SOS is never rate limited
			r.Post("/{travelerId}/sos", sosHandler.Trigger)
		})

		// Live tracking - per-traveler rate limiting
		r.Route("/tracking/{travelerId}", func(r chi.Router) {
			r.Use(apiKeyAuth)
			r.Use(travelerRateLimit)
			r.Post("/start", trackingHandler.Start)
			r.Post("/position", trackingHandler.ReportPosition)
			r.Post("/stop", trackingHandler.Stop)
			r.Get("/status", trackingHandler.Status)
			r.Post("/share", trackingHandler.Share)
		})

		// Trusted contacts
		r.Route("/travelers/{travelerId}/contacts", func(r chi.Router) {
			r.Use(apiKeyAuth)
			r.Use(standardRateLimit)
			r.Get("/", contactsHandler.ListContacts)
			r.Post("/", contactsHandler.CreateContact)
			r.Route("/{contactId}", func(r chi.Router) {
				r.Get("/", contactsHandler.GetContact)
				r.Put("/", contactsHandler.UpdateContact)
				r.Delete("/", contactsHandler.DeleteContact)
			})
		})
	})

	return r
}
