// Package escalation provides the SOS escalation engine: position
// capture, event recording, and the independent fan-out of emergency
// messages to trusted contacts.
package escalation

import (
	"errors"
	"time"

	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// Repository errors.
var (
	ErrEventNotFound = errors.New("sos event not found")
)

// PositionOrigin records which step of the fallback chain produced the
// event's position.
type PositionOrigin string

const (
	// PositionFromRequest: the caller supplied a position.
	PositionFromRequest PositionOrigin = "request"

	// PositionFromSource: a live position fix was obtained in time.
	PositionFromSource PositionOrigin = "source"

	// PositionFromSession: fell back to the tracking session's
	// last-known position.
	PositionFromSession PositionOrigin = "session"

	// PositionUnknown: no position could be obtained. The escalation
	// proceeds regardless.
	PositionUnknown PositionOrigin = "unknown"
)

// DeliveryOutcome is the result of one contact's delivery attempt.
// Partial delivery is deliberate: one failure never rolls back the rest.
type DeliveryOutcome struct {
	ContactID   string    `json:"contactId"`
	ContactName string    `json:"contactName"`
	Channel     string    `json:"channel"`
	Delivered   bool      `json:"delivered"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

// Event is one triggered SOS escalation. Immutable once recorded;
// outcomes are fixed at trigger time.
type Event struct {
	ID             string
	UserID         string
	SessionID      string
	Position       *geo.Coordinate
	PositionOrigin PositionOrigin
	RouteSummary   string
	TriggeredAt    time.Time
	Outcomes       []DeliveryOutcome
}

// PositionKnown reports whether the event carries a usable position.
func (e *Event) PositionKnown() bool {
	return e.Position != nil
}

// DeliveredCount returns how many contacts were reached.
func (e *Event) DeliveredCount() int {
	n := 0
	for _, o := range e.Outcomes {
		if o.Delivered {
			n++
		}
	}
	return n
}
