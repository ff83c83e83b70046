package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gather/internal/scoped"
)

// NewPostgresStore builds the Postgres-backed user store.
func NewPostgresStore(db *sql.DB) *scoped.PostgresStore[*User] {
	return scoped.NewPostgresStore(db, Schema(), scanUser)
}

// NewMemoryStore builds the in-memory user store for tests and local runs.
func NewMemoryStore() *scoped.MemoryStore[*User] {
	return scoped.NewMemoryStore(Schema(), applyUser)
}

func scanUser(rows *sql.Rows) (*User, error) {
	var u User
	var roles pq.StringArray
	if err := rows.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.EmailVerified, &roles, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func applyUser(u *User, p scoped.Partial) {
	if v, ok := p["email"].(string); ok {
		u.Email = v
	}
	if v, ok := p["firstName"].(string); ok {
		u.FirstName = v
	}
	if v, ok := p["lastName"].(string); ok {
		u.LastName = v
	}
	if v, ok := p["emailVerified"].(bool); ok {
		u.EmailVerified = v
	}
	if v, ok := p["passwordHash"].(string); ok {
		u.PasswordHash = v
	}
	if v, ok := p["roles"].(pq.StringArray); ok {
		u.Roles = v
	}
	if v, ok := p["createdBy"].(uuid.UUID); ok {
		u.CreatedBy = v
	}
	if v, ok := p["updatedAt"].(time.Time); ok {
		u.UpdatedAt = v
	}
}
