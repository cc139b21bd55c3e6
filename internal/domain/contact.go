package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Contact represents one staffing directory entry with flat key/value fields
type Contact struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Fields         map[string]any `json:"fields"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewContact creates a new contact with immutable pattern
func NewContact(organizationID uuid.UUID, fields map[string]any) Contact {
	now := time.Now()
	return Contact{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Fields:         copyFields(fields),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// WithField returns a new contact with an added/updated field
func (c Contact) WithField(key string, value any) Contact {
	newFields := copyFields(c.Fields)
	newFields[key] = value

	return Contact{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Fields:         newFields,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      time.Now(),
	}
}

// WithoutField returns a new contact without the specified field
func (c Contact) WithoutField(key string) Contact {
	newFields := copyFields(c.Fields)
	delete(newFields, key)

	return Contact{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Fields:         newFields,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      time.Now(),
	}
}

// WithFields returns a new contact with replaced fields
func (c Contact) WithFields(fields map[string]any) Contact {
	return Contact{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Fields:         copyFields(fields),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      time.Now(),
	}
}

// Record exposes the contact's fields to the filter engine.
func (c Contact) Record() Record {
	return c.Fields
}

func (c *Contact) FieldsAsJSONB() (json.RawMessage, error) {
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}
	return json.Marshal(c.Fields)
}

// FromJSONBFields creates a fields map from JSONB data
func FromJSONBFields(fieldsJSON json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	err := json.Unmarshal(fieldsJSON, &fields)
	return fields, err
}

// copyFields creates a shallow copy of the fields map so updated contacts
// never alias the caller's map
func copyFields(fields map[string]any) map[string]any {
	newFields := make(map[string]any, len(fields))
	for k, v := range fields {
		newFields[k] = v
	}
	return newFields
}
