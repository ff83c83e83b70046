package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gather/internal/scoped"
)

// User is a platform account. CreatedBy points at the user who provisioned
// the account, which is what ownership scoping keys on.
type User struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	EmailVerified bool
	Roles         []string
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) EntityID() uuid.UUID         { return u.ID }
func (u *User) SetEntityID(id uuid.UUID)    { u.ID = id }
func (u *User) CreatedByID() uuid.UUID      { return u.CreatedBy }
func (u *User) SetCreatedByID(id uuid.UUID) { u.CreatedBy = id }

func (u *User) AttributeValues() map[string]any {
	return map[string]any{
		"email":         u.Email,
		"passwordHash":  u.PasswordHash,
		"firstName":     u.FirstName,
		"lastName":      u.LastName,
		"emailVerified": u.EmailVerified,
		"roles":         pq.StringArray(u.Roles),
		"createdBy":     u.CreatedBy,
		"createdAt":     u.CreatedAt,
		"updatedAt":     u.UpdatedAt,
	}
}

// Schema declares the users table metadata consumed by the scoped layer.
func Schema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "users",
		Alias:      "u",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "email", Name: "email"},
			{Attribute: "passwordHash", Name: "password_hash"},
			{Attribute: "firstName", Name: "first_name"},
			{Attribute: "lastName", Name: "last_name"},
			{Attribute: "emailVerified", Name: "email_verified"},
			{Attribute: "roles", Name: "roles"},
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "createdAt", Name: "created_at"},
			{Attribute: "updatedAt", Name: "updated_at"},
		},
		SoftDelete: "deleted_at",
	}
}
