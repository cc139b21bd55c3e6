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

// FilterHandler serves filter validation and description without touching
// storage. Both endpoints accept a bare filter config.
type FilterHandler struct{}

func NewFilterHandler() http.Handler {
	return &FilterHandler{}
}

type filterPayload struct {
	Filter domain.FilterConfig `json:"filter"`
}

type describeResponse struct {
	Description string `json:"description"`
}

func (h *FilterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()
	var payload filterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: %v", err)
		return
	}
	switch {
	case strings.HasSuffix(r.URL.Path, "/validate"):
		writeJSON(w, http.StatusOK, payload.Filter.Validate())
	case strings.HasSuffix(r.URL.Path, "/describe"):
		writeJSON(w, http.StatusOK, describeResponse{Description: payload.Filter.Describe()})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// SavedFilterHandler exposes CRUD for named filter configs.
type SavedFilterHandler struct {
	filters repository.SavedFilterRepository
}

func NewSavedFilterHandler(filters repository.SavedFilterRepository) http.Handler {
	return &SavedFilterHandler{filters: filters}
}

func (h *SavedFilterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		if strings.TrimSuffix(r.URL.Path, "/") == "/api/saved-filters" {
			h.handleList(w, r)
			return
		}
		h.handleGet(w, r)
	case http.MethodPut:
		h.handleUpdate(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type savedFilterPayload struct {
	OrganizationID string              `json:"organizationId"`
	Name           string              `json:"name"`
	Filter         domain.FilterConfig `json:"filter"`
}

func (h *SavedFilterHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload savedFilterPayload
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
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if validation := payload.Filter.Validate(); !validation.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, validation)
		return
	}
	saved, err := h.filters.Create(r.Context(), domain.NewSavedFilter(orgID, name, payload.Filter))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create saved filter: %v", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *SavedFilterHandler) handleList(w http.ResponseWriter, r *http.Request) {
	orgID, err := queryUUID(r, "organizationId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organizationId: %v", err)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		writeError(w, http.StatusForbidden, "%v", err)
		return
	}
	filters, err := h.filters.ListByOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list saved filters: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

func (h *SavedFilterHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// savedFilterUpdatePayload keeps Filter a pointer so an update that only
// renames does not silently replace the stored config with the empty one.
type savedFilterUpdatePayload struct {
	Name   string               `json:"name"`
	Filter *domain.FilterConfig `json:"filter"`
}

func (h *SavedFilterHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var payload savedFilterUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: %v", err)
		return
	}
	name := strings.TrimSpace(payload.Name)
	if payload.Filter == nil && name == "" {
		writeError(w, http.StatusBadRequest, "nothing to update: provide filter, name, or both")
		return
	}
	updated := saved
	if payload.Filter != nil {
		if validation := payload.Filter.Validate(); !validation.Valid {
			writeJSON(w, http.StatusUnprocessableEntity, validation)
			return
		}
		updated = updated.WithConfig(*payload.Filter)
	}
	if name != "" {
		updated = updated.WithName(name)
	}
	updated, err := h.filters.Update(r.Context(), updated)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update saved filter: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *SavedFilterHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	if err := h.filters.Delete(r.Context(), saved.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "delete saved filter: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadScoped fetches the saved filter addressed by the path and checks
// the caller may act on its organization. On failure it writes the
// response and reports false.
func (h *SavedFilterHandler) loadScoped(w http.ResponseWriter, r *http.Request) (domain.SavedFilter, bool) {
	id, err := pathID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid saved filter id: %v", err)
		return domain.SavedFilter{}, false
	}
	saved, err := h.filters.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "saved filter not found")
			return domain.SavedFilter{}, false
		}
		writeError(w, http.StatusInternalServerError, "get saved filter: %v", err)
		return domain.SavedFilter{}, false
	}
	if err := auth.EnforceOrganizationScope(r.Context(), saved.OrganizationID); err != nil {
		writeError(w, http.StatusForbidden, "%v", err)
		return domain.SavedFilter{}, false
	}
	return saved, true
}
