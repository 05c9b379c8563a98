package models

// Contact is a trusted emergency contact.
type Contact struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Relationship *string   `json:"relationship,omitempty"`
	Priority     int       `json:"priority"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

// ContactCreateRequest adds a trusted contact.
type ContactCreateRequest struct {
	Name         string  `json:"name" validate:"required,max=80"`
	Phone        string  `json:"phone" validate:"required"`
	Relationship *string `json:"relationship,omitempty" validate:"omitempty,max=40"`
	Priority     *int    `json:"priority,omitempty" validate:"omitempty,gte=1"`
}

// ContactUpdateRequest updates a trusted contact. Nil fields are left
// unchanged.
type ContactUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=80"`
	Phone        *string `json:"phone,omitempty"`
	Relationship *string `json:"relationship,omitempty" validate:"omitempty,max=40"`
	Priority     *int    `json:"priority,omitempty" validate:"omitempty,gte=1"`
}

// ContactList is the full contact list for a traveler.
type ContactList struct {
	Items []Contact `json:"items"`
}
