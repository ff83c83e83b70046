package scoped

import "github.com/google/uuid"

// Entity is the minimal contract a persisted type implements to be managed by
// a Repository. A zero EntityID marks a record as new.
type Entity interface {
	EntityID() uuid.UUID
	SetEntityID(id uuid.UUID)
	// AttributeValues returns the entity's logical attributes keyed by
	// attribute name (not column name), excluding the primary key. Stores use
	// it for inserts and filter evaluation.
	AttributeValues() map[string]any
}

// Owned is implemented by entities whose schema carries an owner column.
// Repositories only assert this interface when the ownership descriptor says
// the column exists, so the two must agree.
type Owned interface {
	Entity
	CreatedByID() uuid.UUID
	SetCreatedByID(id uuid.UUID)
}
