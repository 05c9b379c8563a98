package contacts

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength         = 80
	MaxRelationshipLength = 40

	// MaxContactsPerUser bounds the emergency fan-out.
	MaxContactsPerUser = 10
)

// ErrTooManyContacts is returned when a user is at the contact limit.
var ErrTooManyContacts = errors.New("trusted contact limit reached")

// phoneRegex accepts E.164 and common local formats.
var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,18}$`)

// Service provides trusted-contact operations.
type Service struct {
	repo Repository
}

// NewService creates a new contact service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all contacts for a user, ordered by priority.
func (s *Service) List(ctx context.Context, userID string) (*models.ContactList, error) {
	contacts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, s.toAPIContact(c))
	}

	return &models.ContactList{Items: items}, nil
}

// Snapshot returns the user's contacts as domain objects for the
// escalation fan-out. The returned slice is a copy; escalation never
// mutates contact data.
func (s *Service) Snapshot(ctx context.Context, userID string) ([]*TrustedContact, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get retrieves a contact by ID for a user.
func (s *Service) Get(ctx context.Context, userID, contactID string) (*models.Contact, error) {
	contact, err := s.repo.GetByUserAndID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	result := s.toAPIContact(contact)
	return &result, nil
}

// Create adds a new trusted contact for a user.
func (s *Service) Create(ctx context.Context, userID string, input *models.ContactCreateRequest) (*models.Contact, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= MaxContactsPerUser {
		return nil, ErrTooManyContacts
	}

	priority := len(existing) + 1
	if input.Priority != nil {
		priority = *input.Priority
	}

	now := time.Now()
	contact := &TrustedContact{
		ID:           "tc_" + uuid.New().String()[:22],
		UserID:       userID,
		Name:         input.Name,
		Phone:        input.Phone,
		Relationship: input.Relationship,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}

	result := s.toAPIContact(contact)
	return &result, nil
}

// Update updates an existing contact for a user.
func (s *Service) Update(ctx context.Context, userID, contactID string, input *models.ContactUpdateRequest) (*models.Contact, error) {
	contact, err := s.repo.GetByUserAndID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		contact.Name = *input.Name
	}
	if input.Phone != nil {
		contact.Phone = *input.Phone
	}
	if input.Relationship != nil {
		contact.Relationship = input.Relationship
	}
	if input.Priority != nil {
		contact.Priority = *input.Priority
	}
	contact.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, err
	}

	result := s.toAPIContact(contact)
	return &result, nil
}

// Delete removes a contact for a user.
func (s *Service) Delete(ctx context.Context, userID, contactID string) error {
	contact, err := s.repo.GetByUserAndID(ctx, userID, contactID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, contact.ID)
}

func (s *Service) validateCreateInput(input *models.ContactCreateRequest) []models.FieldError {
	var fieldErrors []models.FieldError

	if input.Name == "" {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: "name is required", Code: "required",
		})
	} else if len(input.Name) > MaxNameLength {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: "name is too long", Code: "max_length",
		})
	}

	if !phoneRegex.MatchString(input.Phone) {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "phone", Message: "phone must be a valid phone number", Code: "format",
		})
	}

	if input.Relationship != nil && len(*input.Relationship) > MaxRelationshipLength {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "relationship", Message: "relationship is too long", Code: "max_length",
		})
	}

	if input.Priority != nil && *input.Priority < 1 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "priority", Message: "priority must be at least 1", Code: "min",
		})
	}

	return fieldErrors
}

func (s *Service) validateUpdateInput(input *models.ContactUpdateRequest) []models.FieldError {
	var fieldErrors []models.FieldError

	if input.Name != nil && (*input.Name == "" || len(*input.Name) > MaxNameLength) {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: "name must be between 1 and 80 characters", Code: "length",
		})
	}

	if input.Phone != nil && !phoneRegex.MatchString(*input.Phone) {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "phone", Message: "phone must be a valid phone number", Code: "format",
		})
	}

	if input.Priority != nil && *input.Priority < 1 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "priority", Message: "priority must be at least 1", Code: "min",
		})
	}

	return fieldErrors
}

func (s *Service) toAPIContact(c *TrustedContact) models.Contact {
	return models.Contact{
		ID:           c.ID,
		Name:         c.Name,
		Phone:        c.Phone,
		Relationship: c.Relationship,
		Priority:     c.Priority,
		CreatedAt:    models.Timestamp(c.CreatedAt),
		UpdatedAt:    models.Timestamp(c.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
