package escalation

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events map[string]*Event
}

// NewInMemoryRepository creates a new in-memory event repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		events: make(map[string]*Event),
	}
}

// Create records a new event.
func (r *InMemoryRepository) Create(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *event
	cpy.Outcomes = append([]DeliveryOutcome(nil), event.Outcomes...)
	r.events[event.ID] = &cpy
	return nil
}

// Get retrieves an event by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}

	cpy := *e
	cpy.Outcomes = append([]DeliveryOutcome(nil), e.Outcomes...)
	return &cpy, nil
}

// ListByUser retrieves a user's events, newest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Event
	for _, e := range r.events {
		if e.UserID == userID {
			cpy := *e
			cpy.Outcomes = append([]DeliveryOutcome(nil), e.Outcomes...)
			result = append(result, &cpy)
		}
	}

	sort.Slice(result, func(a, b int) bool {
		return result[a].TriggeredAt.After(result[b].TriggeredAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
