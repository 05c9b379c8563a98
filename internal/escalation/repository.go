package escalation

import "context"

// Repository defines the interface for SOS event persistence. Events
// are append-only; there is no update or delete.
type Repository interface {
	// Create records a new event.
	Create(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*Event, error)

	// ListByUser retrieves a user's events, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Event, error)
}
