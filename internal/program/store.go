package program

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gather/internal/scoped"
)

func NewPostgresStore(db *sql.DB) *scoped.PostgresStore[*Program] {
	return scoped.NewPostgresStore(db, Schema(), scanProgram)
}

func NewMemoryStore() *scoped.MemoryStore[*Program] {
	return scoped.NewMemoryStore(Schema(), applyProgram)
}

func NewAssignmentPostgresStore(db *sql.DB) *scoped.PostgresStore[*Assignment] {
	return scoped.NewPostgresStore(db, AssignmentSchema(), scanAssignment)
}

func NewAssignmentMemoryStore() *scoped.MemoryStore[*Assignment] {
	return scoped.NewMemoryStore[*Assignment](AssignmentSchema(), nil)
}

func scanProgram(rows *sql.Rows) (*Program, error) {
	var p Program
	if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func applyProgram(p *Program, partial scoped.Partial) {
	if v, ok := partial["name"].(string); ok {
		p.Name = v
	}
	if v, ok := partial["description"].(string); ok {
		p.Description = v
	}
	if v, ok := partial["createdBy"].(uuid.UUID); ok {
		p.CreatedBy = v
	}
	if v, ok := partial["updatedAt"].(time.Time); ok {
		p.UpdatedAt = v
	}
}

func scanAssignment(rows *sql.Rows) (*Assignment, error) {
	var a Assignment
	if err := rows.Scan(&a.ID, &a.ProgramID, &a.UserID, &a.CreatedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
