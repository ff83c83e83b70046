package program

import (
	"time"

	"github.com/google/uuid"

	"gather/internal/scoped"
)

// Program groups workflows under one data-collection effort. Names are
// unique per creator, not globally.
type Program struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Program) EntityID() uuid.UUID         { return p.ID }
func (p *Program) SetEntityID(id uuid.UUID)    { p.ID = id }
func (p *Program) CreatedByID() uuid.UUID      { return p.CreatedBy }
func (p *Program) SetCreatedByID(id uuid.UUID) { p.CreatedBy = id }

func (p *Program) AttributeValues() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"createdBy":   p.CreatedBy,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
}

func Schema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "programs",
		Alias:      "program",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "name", Name: "name"},
			{Attribute: "description", Name: "description"},
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "createdAt", Name: "created_at"},
			{Attribute: "updatedAt", Name: "updated_at"},
		},
		SoftDelete: "deleted_at",
	}
}

// Assignment links a user to a program. Assignments carry their own owner so
// scoping applies to them like any other row.
type Assignment struct {
	ID        uuid.UUID
	ProgramID uuid.UUID
	UserID    uuid.UUID
	CreatedBy uuid.UUID
	CreatedAt time.Time
}

func (a *Assignment) EntityID() uuid.UUID         { return a.ID }
func (a *Assignment) SetEntityID(id uuid.UUID)    { a.ID = id }
func (a *Assignment) CreatedByID() uuid.UUID      { return a.CreatedBy }
func (a *Assignment) SetCreatedByID(id uuid.UUID) { a.CreatedBy = id }

func (a *Assignment) AttributeValues() map[string]any {
	return map[string]any{
		"programId": a.ProgramID,
		"userId":    a.UserID,
		"createdBy": a.CreatedBy,
		"createdAt": a.CreatedAt,
	}
}

func AssignmentSchema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "program_users",
		Alias:      "pu",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "programId", Name: "program_id"},
			{Attribute: "userId", Name: "user_id"},
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "createdAt", Name: "created_at"},
		},
	}
}
