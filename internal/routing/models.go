// Package routing provides candidate route retrieval from external mapping providers.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrUpstreamUnavailable indicates the mapping provider is unreachable
	// or the circuit breaker is open. Fatal to the current ranking request.
	ErrUpstreamUnavailable = errors.New("mapping provider unavailable")
	// ErrNoRouteFound indicates the provider returned zero candidates
	// between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("mapping provider rate limit exceeded")
	// ErrInvalidLocation indicates the origin or destination could not be used.
	ErrInvalidLocation = errors.New("invalid origin or destination")
)

// Provider defines the interface for mapping providers.
type Provider interface {
	// GetRoutes retrieves candidate routes between two points.
	// Returns every alternative the provider offers.
	GetRoutes(ctx context.Context, req RoutesRequest) (*RoutesResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// RoutesRequest is the request for fetching route candidates.
// Origin and Destination accept either a free-text place name ("Delhi")
// or a "lat,lon" coordinate pair.
type RoutesRequest struct {
	Origin      string
	Destination string
}

// RoutesResponse contains the candidate routes for one origin/destination pair.
type RoutesResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is a single candidate path between origin and destination.
// Immutable once fetched from the provider.
type Route struct {
	ID               string           // Stable identifier within one ranking pass
	Summary          string           // Human-readable route summary ("NH 48")
	GeometryPolyline string           // Encoded overview polyline (precision 5)
	Path             []geo.Coordinate // Decoded waypoints of the overview polyline
	DistanceMeters   int              // Total distance in meters
	DurationSeconds  int              // Total duration in seconds
	Provider         string           // Opaque provider identifier
}

// Error provides detailed error information from the mapping provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying sentinel error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrUpstreamUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
