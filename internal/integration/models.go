package integration

import (
	"time"

	"github.com/google/uuid"

	"gather/contracts/connector"
	"gather/internal/scoped"
)

// ExternalConnection stores how to reach one external system. Credentials
// stay server-side; they are never part of API responses.
type ExternalConnection struct {
	ID        uuid.UUID
	Name      string
	Type      connector.Type
	BaseURL   string
	DSN       string
	Username  string
	Password  string
	Token     string
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *ExternalConnection) EntityID() uuid.UUID         { return c.ID }
func (c *ExternalConnection) SetEntityID(id uuid.UUID)    { c.ID = id }
func (c *ExternalConnection) CreatedByID() uuid.UUID      { return c.CreatedBy }
func (c *ExternalConnection) SetCreatedByID(id uuid.UUID) { c.CreatedBy = id }

func (c *ExternalConnection) AttributeValues() map[string]any {
	return map[string]any{
		"name":      c.Name,
		"type":      string(c.Type),
		"baseUrl":   c.BaseURL,
		"dsn":       c.DSN,
		"username":  c.Username,
		"password":  c.Password,
		"token":     c.Token,
		"createdBy": c.CreatedBy,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
}

// Config converts the row into the wire-level connector config.
func (c *ExternalConnection) Config() connector.Config {
	return connector.Config{
		Type:     c.Type,
		BaseURL:  c.BaseURL,
		DSN:      c.DSN,
		Username: c.Username,
		Password: c.Password,
		Token:    c.Token,
	}
}

func Schema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "external_connections",
		Alias:      "conn",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "name", Name: "name"},
			{Attribute: "type", Name: "type"},
			{Attribute: "baseUrl", Name: "base_url"},
			{Attribute: "dsn", Name: "dsn"},
			{Attribute: "username", Name: "username"},
			{Attribute: "password", Name: "password"},
			{Attribute: "token", Name: "token"},
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "createdAt", Name: "created_at"},
			{Attribute: "updatedAt", Name: "updated_at"},
		},
		SoftDelete: "deleted_at",
	}
}
