package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rosterhq/roster/internal/domain"
	"github.com/rosterhq/roster/internal/repository"
)

// OrganizationHandler exposes tenant CRUD.
type OrganizationHandler struct {
	organizations repository.OrganizationRepository
}

func NewOrganizationHandler(organizations repository.OrganizationRepository) http.Handler {
	return &OrganizationHandler{organizations: organizations}
}

func (h *OrganizationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		if strings.TrimSuffix(r.URL.Path, "/") == "/api/organizations" {
			h.handleList(w, r)
			return
		}
		h.handleGet(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type organizationPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *OrganizationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload organizationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: %v", err)
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	org, err := h.organizations.Create(r.Context(), domain.NewOrganization(name, payload.Description))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create organization: %v", err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.organizations.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list organizations: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (h *OrganizationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id: %v", err)
		return
	}
	org, err := h.organizations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "organization not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get organization: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id: %v", err)
		return
	}
	if err := h.organizations.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete organization: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
