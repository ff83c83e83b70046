package integration

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gather/contracts/connector"
	"gather/internal/scoped"
)

func NewPostgresStore(db *sql.DB) *scoped.PostgresStore[*ExternalConnection] {
	return scoped.NewPostgresStore(db, Schema(), scanConnection)
}

func NewMemoryStore() *scoped.MemoryStore[*ExternalConnection] {
	return scoped.NewMemoryStore(Schema(), applyConnection)
}

func scanConnection(rows *sql.Rows) (*ExternalConnection, error) {
	var c ExternalConnection
	var kind string
	if err := rows.Scan(
		&c.ID, &c.Name, &kind, &c.BaseURL, &c.DSN, &c.Username, &c.Password,
		&c.Token, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Type = connector.Type(kind)
	return &c, nil
}

func applyConnection(c *ExternalConnection, p scoped.Partial) {
	if v, ok := p["name"].(string); ok {
		c.Name = v
	}
	if v, ok := p["baseUrl"].(string); ok {
		c.BaseURL = v
	}
	if v, ok := p["dsn"].(string); ok {
		c.DSN = v
	}
	if v, ok := p["username"].(string); ok {
		c.Username = v
	}
	if v, ok := p["password"].(string); ok {
		c.Password = v
	}
	if v, ok := p["token"].(string); ok {
		c.Token = v
	}
	if v, ok := p["createdBy"].(uuid.UUID); ok {
		c.CreatedBy = v
	}
	if v, ok := p["updatedAt"].(time.Time); ok {
		c.UpdatedAt = v
	}
}
