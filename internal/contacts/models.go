// Package contacts provides trusted-contact management services.
package contacts

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrContactNotFound = errors.New("contact not found")
)

// TrustedContact is one person who receives emergency messages for a
// traveler. The escalation engine reads these as a snapshot; mutation
// only ever happens through the service.
type TrustedContact struct {
	ID           string
	UserID       string
	Name         string
	Phone        string
	Relationship *string
	// Priority orders the fan-out; lower is notified first.
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
