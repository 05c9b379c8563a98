package contacts

import "context"

// Repository defines the interface for trusted-contact persistence.
type Repository interface {
	// Get retrieves a contact by ID.
	Get(ctx context.Context, id string) (*TrustedContact, error)

	// GetByUserAndID retrieves a contact by user ID and contact ID.
	// Returns ErrContactNotFound if the contact doesn't exist or doesn't
	// belong to the user.
	GetByUserAndID(ctx context.Context, userID, contactID string) (*TrustedContact, error)

	// ListByUser retrieves all contacts for a user, ordered by priority
	// then creation time.
	ListByUser(ctx context.Context, userID string) ([]*TrustedContact, error)

	// Create creates a new contact.
	Create(ctx context.Context, contact *TrustedContact) error

	// Update updates an existing contact.
	Update(ctx context.Context, contact *TrustedContact) error

	// Delete deletes a contact by ID.
	Delete(ctx context.Context, id string) error
}
