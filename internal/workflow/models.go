package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gather/internal/program"
	"gather/internal/scoped"
	dErrors "gather/pkg/domain-errors"
)

// Status is the workflow lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus validates an external status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown workflow status %q", s)
}

// FieldType constrains what a collected field may hold.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldSelect  FieldType = "select"
	FieldBoolean FieldType = "boolean"
)

// ParseFieldType validates an external field type value.
func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(s) {
	case FieldText, FieldNumber, FieldDate, FieldSelect, FieldBoolean:
		return FieldType(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown field type %q", s)
}

// Workflow is one collection form inside a program. Version counts child-set
// replacements so collectors can detect stale cached forms.
type Workflow struct {
	ID        uuid.UUID
	ProgramID uuid.UUID
	Name      string
	Status    Status
	Languages []string
	Modes     []string
	Version   int
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Workflow) EntityID() uuid.UUID         { return w.ID }
func (w *Workflow) SetEntityID(id uuid.UUID)    { w.ID = id }
func (w *Workflow) CreatedByID() uuid.UUID      { return w.CreatedBy }
func (w *Workflow) SetCreatedByID(id uuid.UUID) { w.CreatedBy = id }

func (w *Workflow) AttributeValues() map[string]any {
	return map[string]any{
		"programId": w.ProgramID,
		"name":      w.Name,
		"status":    string(w.Status),
		"languages": pq.StringArray(w.Languages),
		"modes":     pq.StringArray(w.Modes),
		"version":   w.Version,
		"createdBy": w.CreatedBy,
		"createdAt": w.CreatedAt,
		"updatedAt": w.UpdatedAt,
	}
}

// Schema declares workflow metadata including the relations eager queries
// traverse ("program", "fields", "mappings", "configurations").
func Schema() *scoped.Schema {
	s := &scoped.Schema{
		Table:      "workflows",
		Alias:      "workflow",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "programId", Name: "program_id"},
			{Attribute: "name", Name: "name"},
			{Attribute: "status", Name: "status"},
			{Attribute: "languages", Name: "languages"},
			{Attribute: "modes", Name: "modes"},
			{Attribute: "version", Name: "version"},
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "createdAt", Name: "created_at"},
			{Attribute: "updatedAt", Name: "updated_at"},
		},
		SoftDelete: "deleted_at",
	}
	s.Relations = map[string]scoped.Relation{
		"program":        {Target: program.Schema(), LocalColumn: "program_id"},
		"fields":         {Target: FieldSchema(), ForeignColumn: "workflow_id"},
		"mappings":       {Target: MappingSchema(), ForeignColumn: "workflow_id"},
		"configurations": {Target: ConfigurationSchema(), ForeignColumn: "workflow_id"},
	}
	return s
}

// ProgramSchema returns the program schema with its workflows relation wired,
// for paths like "workflows.fields" rooted at a program.
func ProgramSchema() *scoped.Schema {
	p := program.Schema()
	p.Relations = map[string]scoped.Relation{
		"workflows": {Target: Schema(), ForeignColumn: "program_id"},
	}
	return p
}

// Field is one input on a workflow's form.
type Field struct {
	ID         uuid.UUID
	WorkflowID uuid.UUID
	Label      string
	Type       FieldType
	Required   bool
	Options    []string
	Position   int
}

func (f *Field) EntityID() uuid.UUID      { return f.ID }
func (f *Field) SetEntityID(id uuid.UUID) { f.ID = id }

func (f *Field) AttributeValues() map[string]any {
	return map[string]any{
		"workflowId": f.WorkflowID,
		"label":      f.Label,
		"type":       string(f.Type),
		"required":   f.Required,
		"options":    pq.StringArray(f.Options),
		"position":   f.Position,
	}
}

func FieldSchema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "workflow_fields",
		Alias:      "field",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "workflowId", Name: "workflow_id"},
			{Attribute: "label", Name: "label"},
			{Attribute: "type", Name: "type"},
			{Attribute: "required", Name: "required"},
			{Attribute: "options", Name: "options"},
			{Attribute: "position", Name: "position"},
		},
	}
}

// Mapping routes one collected field to a remote target attribute.
type Mapping struct {
	ID         uuid.UUID
	WorkflowID uuid.UUID
	Source     string
	Target     string
}

func (m *Mapping) EntityID() uuid.UUID      { return m.ID }
func (m *Mapping) SetEntityID(id uuid.UUID) { m.ID = id }

func (m *Mapping) AttributeValues() map[string]any {
	return map[string]any{
		"workflowId": m.WorkflowID,
		"source":     m.Source,
		"target":     m.Target,
	}
}

func MappingSchema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "field_mappings",
		Alias:      "mapping",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "workflowId", Name: "workflow_id"},
			{Attribute: "source", Name: "source"},
			{Attribute: "target", Name: "target"},
		},
	}
}

// Configuration is one key/value setting row attached to a workflow.
type Configuration struct {
	ID         uuid.UUID
	WorkflowID uuid.UUID
	Key        string
	Value      string
}

func (c *Configuration) EntityID() uuid.UUID      { return c.ID }
func (c *Configuration) SetEntityID(id uuid.UUID) { c.ID = id }

func (c *Configuration) AttributeValues() map[string]any {
	return map[string]any{
		"workflowId": c.WorkflowID,
		"key":        c.Key,
		"value":      c.Value,
	}
}

func ConfigurationSchema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "workflow_configurations",
		Alias:      "cfg",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "workflowId", Name: "workflow_id"},
			{Attribute: "key", Name: "key"},
			{Attribute: "value", Name: "value"},
		},
	}
}
