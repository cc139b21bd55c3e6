package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SavedFilter is a named filter config persisted per organization so the
// filter builder can restore it later.
type SavedFilter struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	Name           string       `json:"name"`
	Config         FilterConfig `json:"config"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewSavedFilter creates a new saved filter with immutable pattern
func NewSavedFilter(organizationID uuid.UUID, name string, config FilterConfig) SavedFilter {
	now := time.Now()
	return SavedFilter{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           name,
		Config:         config,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// WithConfig returns a new saved filter with a replaced config
func (s SavedFilter) WithConfig(config FilterConfig) SavedFilter {
	return SavedFilter{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		Name:           s.Name,
		Config:         config,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      time.Now(),
	}
}

// WithName returns a new saved filter with a replaced name
func (s SavedFilter) WithName(name string) SavedFilter {
	return SavedFilter{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		Name:           name,
		Config:         s.Config,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      time.Now(),
	}
}

// ConfigToJSONB serializes the filter config for storage.
func (s SavedFilter) ConfigToJSONB() (json.RawMessage, error) {
	return json.Marshal(s.Config)
}

// ConfigFromJSONB restores a filter config from its stored form.
func ConfigFromJSONB(configJSON json.RawMessage) (FilterConfig, error) {
	var config FilterConfig
	err := json.Unmarshal(configJSON, &config)
	return config, err
}
