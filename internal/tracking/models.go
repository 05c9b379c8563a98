package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/DNA-Coded/RakshaMarg/internal/safety"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// Sentinel errors for session state misuse.
var (
	// ErrAlreadyActive is returned when starting a session for a traveler
	// who already has one. The caller must stop the old session first.
	ErrAlreadyActive = errors.New("tracking session already active")

	// ErrNotActive is returned when an operation requires an active session.
	ErrNotActive = errors.New("tracking session not active")

	// ErrSessionNotFound is returned when no session exists for a traveler.
	ErrSessionNotFound = errors.New("tracking session not found")
)

// Status is the lifecycle state of a tracking session.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
)

// Position is one reported location sample. AccuracyMeters is the
// reporter's own confidence radius; it is surfaced for display but never
// gates the deviation decision.
type Position struct {
	Coordinate     geo.Coordinate `json:"coordinate"`
	AccuracyMeters float64        `json:"accuracyMeters,omitempty"`
	RecordedAt     time.Time      `json:"recordedAt"`
}

// DeviationEvent records one over-tolerance sample. Transient: consumed
// by the session's re-route trigger and the event log, never persisted.
type DeviationEvent struct {
	SessionID       string
	TravelerID      string
	Position        Position
	DistanceMeters  float64
	ToleranceMeters float64
	Streak          int
	// Confirmed marks the sample that completed the streak and
	// triggered a re-route.
	Confirmed  bool
	OccurredAt time.Time
}

// Reranker obtains a fresh ranked route set. *safety.Ranker satisfies
// this; deviation-triggered re-routes recompute from the traveler's
// current position, not the original origin.
type Reranker interface {
	Rank(ctx context.Context, origin, destination string) (*safety.RankedRouteSet, error)
}

// Snapshot is a point-in-time view of a session, safe to hand to callers
// while the session keeps running.
type Snapshot struct {
	SessionID         string     `json:"sessionId"`
	TravelerID        string     `json:"travelerId"`
	Status            Status     `json:"status"`
	Destination       string     `json:"destination"`
	RouteID           string     `json:"routeId"`
	RouteSummary      string     `json:"routeSummary"`
	SafetyScore       int        `json:"safetyScore"`
	LastKnownPosition *Position  `json:"lastKnownPosition,omitempty"`
	OffRouteStreak    int        `json:"offRouteStreak"`
	DeviationCount    int        `json:"deviationCount"`
	RerouteCount      int        `json:"rerouteCount"`
	StartedAt         time.Time  `json:"startedAt"`
	StoppedAt         *time.Time `json:"stoppedAt,omitempty"`
}
