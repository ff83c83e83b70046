package workflow

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gather/internal/scoped"
)

func NewPostgresStore(db *sql.DB) *scoped.PostgresStore[*Workflow] {
	return scoped.NewPostgresStore(db, Schema(), scanWorkflow)
}

func NewMemoryStore() *scoped.MemoryStore[*Workflow] {
	return scoped.NewMemoryStore(Schema(), applyWorkflow)
}

func NewFieldPostgresStore(db *sql.DB) *scoped.PostgresStore[*Field] {
	return scoped.NewPostgresStore(db, FieldSchema(), scanField)
}

func NewFieldMemoryStore() *scoped.MemoryStore[*Field] {
	return scoped.NewMemoryStore[*Field](FieldSchema(), nil)
}

func NewMappingPostgresStore(db *sql.DB) *scoped.PostgresStore[*Mapping] {
	return scoped.NewPostgresStore(db, MappingSchema(), scanMapping)
}

func NewMappingMemoryStore() *scoped.MemoryStore[*Mapping] {
	return scoped.NewMemoryStore[*Mapping](MappingSchema(), nil)
}

func NewConfigurationPostgresStore(db *sql.DB) *scoped.PostgresStore[*Configuration] {
	return scoped.NewPostgresStore(db, ConfigurationSchema(), scanConfiguration)
}

func NewConfigurationMemoryStore() *scoped.MemoryStore[*Configuration] {
	return scoped.NewMemoryStore[*Configuration](ConfigurationSchema(), nil)
}

func scanWorkflow(rows *sql.Rows) (*Workflow, error) {
	var w Workflow
	var status string
	var languages, modes pq.StringArray
	if err := rows.Scan(
		&w.ID, &w.ProgramID, &w.Name, &status, &languages, &modes,
		&w.Version, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	w.Status = Status(status)
	w.Languages = languages
	w.Modes = modes
	return &w, nil
}

func applyWorkflow(w *Workflow, p scoped.Partial) {
	if v, ok := p["name"].(string); ok {
		w.Name = v
	}
	if v, ok := p["status"].(string); ok {
		w.Status = Status(v)
	}
	if v, ok := p["languages"].(pq.StringArray); ok {
		w.Languages = v
	}
	if v, ok := p["modes"].(pq.StringArray); ok {
		w.Modes = v
	}
	if v, ok := p["version"].(int); ok {
		w.Version = v
	}
	if v, ok := p["createdBy"].(uuid.UUID); ok {
		w.CreatedBy = v
	}
	if v, ok := p["updatedAt"].(time.Time); ok {
		w.UpdatedAt = v
	}
}

func scanField(rows *sql.Rows) (*Field, error) {
	var f Field
	var kind string
	var options pq.StringArray
	if err := rows.Scan(&f.ID, &f.WorkflowID, &f.Label, &kind, &f.Required, &options, &f.Position); err != nil {
		return nil, err
	}
	f.Type = FieldType(kind)
	f.Options = options
	return &f, nil
}

func scanMapping(rows *sql.Rows) (*Mapping, error) {
	var m Mapping
	if err := rows.Scan(&m.ID, &m.WorkflowID, &m.Source, &m.Target); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanConfiguration(rows *sql.Rows) (*Configuration, error) {
	var c Configuration
	if err := rows.Scan(&c.ID, &c.WorkflowID, &c.Key, &c.Value); err != nil {
		return nil, err
	}
	return &c, nil
}
