package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rosterhq/roster/internal/auth"
	"github.com/rosterhq/roster/internal/domain"
	"github.com/rosterhq/roster/internal/repository"
)

// ContactHandler exposes contact CRUD and filtered search over REST.
type ContactHandler struct {
	contacts repository.ContactRepository
}

func NewContactHandler(contacts repository.ContactRepository) http.Handler {
	return &ContactHandler{contacts: contacts}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/search"):
		h.handleSearch(w, r)
	case r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet:
		h.handleGet(w, r)
	case r.Method == http.MethodPut:
		h.handleUpdate(w, r)
	case r.Method == http.MethodDelete:
		h.handleDelete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type searchPayload struct {
	OrganizationID string              `json:"organizationId"`
	Filter         domain.FilterConfig `json:"filter"`
	Limit          int                 `json:"limit"`
	Offset         int                 `json:"offset"`
}

type searchResponse struct {
	Contacts    []domain.Contact `json:"contacts"`
	Total       int              `json:"total"`
	Description string           `json:"description"`
}

func (h *ContactHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload searchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: %v", err)
		return
	}
	orgID, err := uuid.Parse(strings.TrimSpace(payload.OrganizationID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organizationId: %v", err)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		writeError(w, http.StatusForbidden, "%v", err)
		return
	}
	if validation := payload.Filter.Validate(); !validation.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, validation)
		return
	}
	if payload.Limit < 0 || payload.Offset < 0 {
		writeError(w, http.StatusBadRequest, "limit and offset must be zero or positive")
		return
	}

	contacts, total, err := h.contacts.List(r.Context(), orgID, payload.Filter, payload.Limit, payload.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Contacts:    contacts,
		Total:       total,
		Description: payload.Filter.Describe(),
	})
}

type contactPayload struct {
	OrganizationID string         `json:"organizationId"`
	Fields         map[string]any `json:"fields"`
}

func (h *ContactHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: %v", err)
		return
	}
	orgID, err := uuid.Parse(strings.TrimSpace(payload.OrganizationID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organizationId: %v", err)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		writeError(w, http.StatusForbidden, "%v", err)
		return
	}
	contact, err := h.contacts.Create(r.Context(), domain.NewContact(orgID, payload.Fields))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create contact: %v", err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact id: %v", err)
		return
	}
	contact, err := h.contacts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get contact: %v", err)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), contact.OrganizationID); err != nil {
		writeError(w, http.StatusForbidden, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact id: %v", err)
		return
	}
	defer r.Body.Close()
	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: %v", err)
		return
	}
	if payload.Fields == nil {
		writeError(w, http.StatusBadRequest, "fields is required")
		return
	}
	existing, err := h.contacts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get contact: %v", err)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), existing.OrganizationID); err != nil {
		writeError(w, http.StatusForbidden, "%v", err)
		return
	}
	updated, err := h.contacts.Update(r.Context(), existing.WithFields(payload.Fields))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update contact: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ContactHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact id: %v", err)
		return
	}
	existing, err := h.contacts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get contact: %v", err)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), existing.OrganizationID); err != nil {
		writeError(w, http.StatusForbidden, "%v", err)
		return
	}
	if err := h.contacts.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete contact: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
