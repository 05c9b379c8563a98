package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
	"github.com/DNA-Coded/RakshaMarg/internal/api/response"
	"github.com/DNA-Coded/RakshaMarg/internal/contacts"
)

// ContactsHandler handles trusted-contact endpoints.
type ContactsHandler struct {
	service *contacts.Service
}

// NewContactsHandler creates a new ContactsHandler.
func NewContactsHandler(service *contacts.Service) *ContactsHandler {
	return &ContactsHandler{service: service}
}

// ListContacts handles GET /v1/travelers/{travelerId}/contacts.
func (h *ContactsHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")

	list, err := h.service.List(r.Context(), travelerID)
	if err != nil {
		response.InternalError(w, r, "could not list contacts")
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

// CreateContact handles POST /v1/travelers/{travelerId}/contacts.
func (h *ContactsHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")

	var input models.ContactCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	contact, err := h.service.Create(r.Context(), travelerID, &input)
	if err != nil {
		writeContactError(w, r, err)
		return
	}
	response.Created(w, r, "/v1/travelers/"+travelerID+"/contacts/"+contact.ID, contact)
}

// GetContact handles GET /v1/travelers/{travelerId}/contacts/{contactId}.
func (h *ContactsHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")
	contactID := chi.URLParam(r, "contactId")

	contact, err := h.service.Get(r.Context(), travelerID, contactID)
	if err != nil {
		writeContactError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, contact)
}

// UpdateContact handles PUT /v1/travelers/{travelerId}/contacts/{contactId}.
func (h *ContactsHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")
	contactID := chi.URLParam(r, "contactId")

	var input models.ContactUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	contact, err := h.service.Update(r.Context(), travelerID, contactID, &input)
	if err != nil {
		writeContactError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, contact)
}

// DeleteContact handles DELETE /v1/travelers/{travelerId}/contacts/{contactId}.
func (h *ContactsHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")
	contactID := chi.URLParam(r, "contactId")

	if err := h.service.Delete(r.Context(), travelerID, contactID); err != nil {
		writeContactError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func writeContactError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *contacts.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "invalid contact", validationErr.Errors)
	case errors.Is(err, contacts.ErrContactNotFound):
		response.NotFound(w, r, "contact not found")
	case errors.Is(err, contacts.ErrTooManyContacts):
		response.Conflict(w, r, "contact limit reached")
	default:
		response.InternalError(w, r, "contact operation failed")
	}
}
