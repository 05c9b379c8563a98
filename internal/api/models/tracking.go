package models

// TrackingStartRequest begins a live-tracking session. The routes are
// recomputed server-side and the safest candidate becomes the session's
// active route.
type TrackingStartRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// TrackingPositionRequest reports one position sample.
type TrackingPositionRequest struct {
	Position       Point    `json:"position" validate:"required"`
	AccuracyMeters *float64 `json:"accuracyMeters,omitempty"`
	Timestamp      *string  `json:"timestamp,omitempty"`
}

// TrackingPosition is a position sample as reported back to callers.
type TrackingPosition struct {
	Position       Point     `json:"position"`
	AccuracyMeters float64   `json:"accuracyMeters,omitempty"`
	RecordedAt     Timestamp `json:"recordedAt"`
}

// TrackingSession is the state of a live-tracking session.
type TrackingSession struct {
	SessionID         string            `json:"sessionId"`
	TravelerID        string            `json:"travelerId"`
	Status            string            `json:"status"`
	Destination       string            `json:"destination"`
	Route             RankedRoute       `json:"route"`
	LastKnownPosition *TrackingPosition `json:"lastKnownPosition,omitempty"`
	OffRouteStreak    int               `json:"offRouteStreak"`
	DeviationCount    int               `json:"deviationCount"`
	RerouteCount      int               `json:"rerouteCount"`
	StartedAt         Timestamp         `json:"startedAt"`
}

// TrackingShareResponse carries a signed token a trusted contact can use
// to follow the session.
type TrackingShareResponse struct {
	Token     string    `json:"token"`
	ExpiresAt Timestamp `json:"expiresAt"`
}
