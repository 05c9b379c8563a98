package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the mapping data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache route candidates (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees for
	// coordinate endpoints (default: 0.01 ~ 1.1km). Coordinates within the
	// same grid cell share cached candidates.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale candidates on provider errors
	// (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 5 minutes).
	CleanupInterval time.Duration
}

// Service provides route candidates with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration

	mu          sync.RWMutex
	cache       map[string]*cachedRoutes
	lastCleanup time.Time
}

type cachedRoutes struct {
	response  *RoutesResponse
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01 // ~1.1km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		cache:           make(map[string]*cachedRoutes),
	}
}

// GetRoutes returns candidate routes between two points.
// Uses cached candidates if available and not expired.
func (s *Service) GetRoutes(ctx context.Context, req RoutesRequest) (*RoutesResponse, error) {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "MISSING_LOCATION",
			Message:  "origin and destination are required",
			Err:      ErrInvalidLocation,
		}
	}

	cacheKey := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for route candidates")
		return cached.response, nil
	}
	s.mu.RUnlock()

	return s.fetchRoutes(ctx, req, cacheKey)
}

// fetchRoutes fetches candidates from the provider and updates the cache.
func (s *Service) fetchRoutes(ctx context.Context, req RoutesRequest, cacheKey string) (*RoutesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit after double-check")
		return cached.response, nil
	}

	s.logger.Debug().
		Str("origin", req.Origin).
		Str("destination", req.Destination).
		Str("provider", s.provider.Name()).
		Msg("fetching route candidates from provider")

	resp, err := s.provider.GetRoutes(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Str("origin", req.Origin).
			Str("destination", req.Destination).
			Msg("failed to fetch route candidates")

		// A zero-candidate answer is authoritative, never served stale.
		if cached, ok := s.cache[cacheKey]; ok && !isNoRoute(err) {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale route candidates due to provider error")
				return cached.response, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	s.cache[cacheKey] = &cachedRoutes{
		response:  resp,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.logger.Debug().
		Str("cache_key", cacheKey).
		Int("candidate_count", len(resp.Routes)).
		Msg("cached route candidates")

	s.cleanupIfNeeded()

	return resp, nil
}

func isNoRoute(err error) bool {
	return errors.Is(err, ErrNoRouteFound)
}

// cacheKey generates a cache key for a routes request. Coordinate endpoints
// are quantized to a grid cell; free-text endpoints are normalized.
// Format: {origin}:{destination}.
func (s *Service) cacheKey(req RoutesRequest) string {
	return s.endpointKey(req.Origin) + ":" + s.endpointKey(req.Destination)
}

func (s *Service) endpointKey(endpoint string) string {
	if c, err := geo.ParseCoordinate(endpoint); err == nil {
		gridLat := math.Floor(c.Lat/s.cacheGridSize) * s.cacheGridSize
		gridLon := math.Floor(c.Lon/s.cacheGridSize) * s.cacheGridSize
		return fmt.Sprintf("%.2f,%.2f", gridLat, gridLon)
	}
	return strings.ToLower(strings.TrimSpace(endpoint))
}

// cleanupIfNeeded removes expired entries if the cleanup interval has passed.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		// Remove entries that are past the stale-if-error window
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired routing cache entries")
	}
}

// InvalidateCache clears all cached candidates.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoutes)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
