package contacts

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and single-node deployments without a
// database. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	contacts map[string]*TrustedContact
}

// NewInMemoryRepository creates a new in-memory contact repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		contacts: make(map[string]*TrustedContact),
	}
}

// Get retrieves a contact by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*TrustedContact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[id]
	if !ok {
		return nil, ErrContactNotFound
	}

	cpy := *c
	return &cpy, nil
}

// GetByUserAndID retrieves a contact by user ID and contact ID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, contactID string) (*TrustedContact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[contactID]
	if !ok || c.UserID != userID {
		return nil, ErrContactNotFound
	}

	cpy := *c
	return &cpy, nil
}

// ListByUser retrieves all contacts for a user ordered by priority.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]*TrustedContact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*TrustedContact
	for _, c := range r.contacts {
		if c.UserID == userID {
			cpy := *c
			result = append(result, &cpy)
		}
	}

	sort.Slice(result, func(a, b int) bool {
		if result[a].Priority != result[b].Priority {
			return result[a].Priority < result[b].Priority
		}
		return result[a].CreatedAt.Before(result[b].CreatedAt)
	})

	return result, nil
}

// Create creates a new contact.
func (r *InMemoryRepository) Create(_ context.Context, c *TrustedContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *c
	r.contacts[c.ID] = &cpy
	return nil
}

// Update updates an existing contact.
func (r *InMemoryRepository) Update(_ context.Context, c *TrustedContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contacts[c.ID]; !ok {
		return ErrContactNotFound
	}

	cpy := *c
	r.contacts[c.ID] = &cpy
	return nil
}

// Delete deletes a contact by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contacts[id]; !ok {
		return ErrContactNotFound
	}

	delete(r.contacts, id)
	return nil
}
