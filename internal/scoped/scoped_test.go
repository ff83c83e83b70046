package scoped

import (
	"context"

	"github.com/google/uuid"

	"gather/pkg/domain"
	"gather/pkg/requestcontext"
)

// note is the fixture entity for the package tests: an owned, soft-deletable
// record with one sortable attribute.
type note struct {
	id        uuid.UUID
	createdBy uuid.UUID
	title     string
	rating    int
}

func (n *note) EntityID() uuid.UUID          { return n.id }
func (n *note) SetEntityID(id uuid.UUID)     { n.id = id }
func (n *note) CreatedByID() uuid.UUID       { return n.createdBy }
func (n *note) SetCreatedByID(id uuid.UUID)  { n.createdBy = id }

func (n *note) AttributeValues() map[string]any {
	return map[string]any{
		"createdBy": n.createdBy,
		"title":     n.title,
		"rating":    n.rating,
	}
}

func noteSchema() *Schema {
	return &Schema{
		Table:      "notes",
		Alias:      "note",
		PrimaryKey: Column{Attribute: "id", Name: "id"},
		Columns: []Column{
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "title", Name: "title"},
			{Attribute: "rating", Name: "rating"},
		},
		SoftDelete: "deleted_at",
	}
}

func applyNote(n *note, p Partial) {
	if v, ok := p["title"].(string); ok {
		n.title = v
	}
	if v, ok := p["rating"].(int); ok {
		n.rating = v
	}
	if v, ok := p["createdBy"].(uuid.UUID); ok {
		n.createdBy = v
	}
}

func newNoteRepo(opts ...Option[*note]) (*Repository[*note], *MemoryStore[*note]) {
	store := NewMemoryStore(noteSchema(), applyNote)
	return NewRepository[*note](store, noteSchema(), opts...), store
}

// tag is the fixture for entities without an owner column.
type tag struct {
	id   uuid.UUID
	name string
}

func (t *tag) EntityID() uuid.UUID      { return t.id }
func (t *tag) SetEntityID(id uuid.UUID) { t.id = id }

func (t *tag) AttributeValues() map[string]any {
	return map[string]any{"name": t.name}
}

func tagSchema() *Schema {
	return &Schema{
		Table:      "tags",
		Alias:      "tag",
		PrimaryKey: Column{Attribute: "id", Name: "id"},
		Columns:    []Column{{Attribute: "name", Name: "name"}},
	}
}

func userCtx(id uuid.UUID, roles ...string) context.Context {
	return requestcontext.WithUser(context.Background(), domain.UserID(id), roles)
}

type recordedDenial struct {
	entity    string
	operation string
}

// fakeMetrics records counter calls for assertions.
type fakeMetrics struct {
	queries int
	denials []recordedDenial
}

func (m *fakeMetrics) QueryIssued(string) { m.queries++ }

func (m *fakeMetrics) OwnershipDenied(entity, operation string) {
	m.denials = append(m.denials, recordedDenial{entity: entity, operation: operation})
}
