package workflow

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"gather/internal/program"
	"gather/internal/scoped"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	pstrings "gather/pkg/platform/strings"
	"gather/pkg/platform/tx"
	"gather/pkg/requestcontext"
)

// Service manages workflows and their child rows. Children carry no owner
// column; every path to them goes through an ownership check on the parent
// workflow first.
type Service struct {
	workflows *scoped.Repository[*Workflow]
	fields    *scoped.Repository[*Field]
	mappings  *scoped.Repository[*Mapping]
	configs   *scoped.Repository[*Configuration]
	programs  *scoped.Repository[*program.Program]
	db        *sql.DB
	log       *slog.Logger
}

func NewService(
	workflows *scoped.Repository[*Workflow],
	fields *scoped.Repository[*Field],
	mappings *scoped.Repository[*Mapping],
	configs *scoped.Repository[*Configuration],
	programs *scoped.Repository[*program.Program],
	db *sql.DB,
	log *slog.Logger,
) *Service {
	return &Service{
		workflows: workflows,
		fields:    fields,
		mappings:  mappings,
		configs:   configs,
		programs:  programs,
		db:        db,
		log:       log,
	}
}

// FieldInput describes one form field on create/upsert.
type FieldInput struct {
	Label    string
	Type     string
	Required bool
	Options  []string
	Position int
}

// MappingInput routes a source field to a remote target.
type MappingInput struct {
	Source string
	Target string
}

// ConfigurationInput is one key/value setting.
type ConfigurationInput struct {
	Key   string
	Value string
}

// CreateInput is the workflow creation payload.
type CreateInput struct {
	ProgramID      domain.ProgramID
	Name           string
	Languages      []string
	Modes          []string
	Fields         []FieldInput
	Mappings       []MappingInput
	Configurations []ConfigurationInput
}

// Detail is a workflow with its children loaded.
type Detail struct {
	Workflow       *Workflow
	Fields         []*Field
	Mappings       []*Mapping
	Configurations []*Configuration
}

// Create persists a workflow and its children in one transaction. The target
// program must belong to the caller.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Detail, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "workflow name is required")
	}

	if _, err := s.programs.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(in.ProgramID)}}); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
		}
		return nil, err
	}

	fields, mappings, configs, err := buildChildren(in.Fields, in.Mappings, in.Configurations)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	w := &Workflow{
		ProgramID: uuid.UUID(in.ProgramID),
		Name:      name,
		Status:    StatusActive,
		Languages: pstrings.DedupeAndTrimLower(in.Languages),
		Modes:     pstrings.DedupeAndTrimLower(in.Modes),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.workflows.Save(ctx, w); err != nil {
			return err
		}
		return s.saveChildren(ctx, w.ID, fields, mappings, configs)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "workflow created",
		"workflow_id", w.ID,
		"program_id", w.ProgramID,
		"fields", len(fields),
	)
	return &Detail{Workflow: w, Fields: fields, Mappings: mappings, Configurations: configs}, nil
}

// Get loads one owned workflow with its children.
func (s *Service) Get(ctx context.Context, id domain.WorkflowID) (*Detail, error) {
	w, err := s.workflows.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(id)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "workflow not found")
	}
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, w)
}

// List returns the caller's workflows, optionally restricted to one program.
func (s *Service) List(ctx context.Context, programID *domain.ProgramID, skip, take int) ([]*Workflow, int, error) {
	query := s.workflows.WithScope("").
		Relations("program").
		OrderBy("createdAt", true).
		Skip(skip).
		Take(take)
	if programID != nil {
		query = query.Where(scoped.Filter{"programId": uuid.UUID(*programID)})
	}
	return query.AllAndCount(ctx)
}

// UpsertChildren replaces the workflow's child rows and bumps its version,
// all in one transaction.
func (s *Service) UpsertChildren(ctx context.Context, id domain.WorkflowID,
	fieldInputs []FieldInput, mappingInputs []MappingInput, configInputs []ConfigurationInput) (*Detail, error) {

	w, err := s.workflows.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(id)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "workflow not found")
	}
	if err != nil {
		return nil, err
	}

	fields, mappings, configs, err := buildChildren(fieldInputs, mappingInputs, configInputs)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.deleteChildren(ctx, w.ID); err != nil {
			return err
		}
		if err := s.saveChildren(ctx, w.ID, fields, mappings, configs); err != nil {
			return err
		}
		_, err := s.workflows.Update(ctx, scoped.ByID(w.ID), scoped.Partial{
			"version":   w.Version + 1,
			"updatedAt": requestcontext.Now(ctx),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	w.Version++
	return &Detail{Workflow: w, Fields: fields, Mappings: mappings, Configurations: configs}, nil
}

// SetStatus flips a workflow between active and inactive.
func (s *Service) SetStatus(ctx context.Context, id domain.WorkflowID, status string) error {
	parsed, err := ParseStatus(status)
	if err != nil {
		return err
	}

	n, err := s.workflows.Update(ctx, scoped.ByID(uuid.UUID(id)), scoped.Partial{
		"status":    string(parsed),
		"updatedAt": requestcontext.Now(ctx),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "workflow not found")
	}
	return nil
}

// Delete soft-deletes one owned workflow and hard-deletes its children.
func (s *Service) Delete(ctx context.Context, id domain.WorkflowID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		n, err := s.workflows.SoftDelete(ctx, scoped.ByID(uuid.UUID(id)))
		if err != nil {
			return err
		}
		if n == 0 {
			return dErrors.New(dErrors.CodeNotFound, "workflow not found")
		}
		return s.deleteChildren(ctx, uuid.UUID(id))
	})
}

func (s *Service) loadDetail(ctx context.Context, w *Workflow) (*Detail, error) {
	byWorkflow := scoped.FindOptions{Where: scoped.Filter{"workflowId": w.ID}}

	fields, err := s.fields.Find(ctx, scoped.FindOptions{
		Where:   byWorkflow.Where,
		OrderBy: []scoped.Order{{Attribute: "position"}},
	})
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappings.Find(ctx, byWorkflow)
	if err != nil {
		return nil, err
	}
	configs, err := s.configs.Find(ctx, byWorkflow)
	if err != nil {
		return nil, err
	}
	return &Detail{Workflow: w, Fields: fields, Mappings: mappings, Configurations: configs}, nil
}

func (s *Service) saveChildren(ctx context.Context, workflowID uuid.UUID,
	fields []*Field, mappings []*Mapping, configs []*Configuration) error {

	for _, f := range fields {
		f.WorkflowID = workflowID
	}
	for _, m := range mappings {
		m.WorkflowID = workflowID
	}
	for _, c := range configs {
		c.WorkflowID = workflowID
	}

	if len(fields) > 0 {
		if err := s.fields.Save(ctx, fields...); err != nil {
			return err
		}
	}
	if len(mappings) > 0 {
		if err := s.mappings.Save(ctx, mappings...); err != nil {
			return err
		}
	}
	if len(configs) > 0 {
		if err := s.configs.Save(ctx, configs...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) deleteChildren(ctx context.Context, workflowID uuid.UUID) error {
	byWorkflow := scoped.Where(scoped.Filter{"workflowId": workflowID})
	if _, err := s.fields.Delete(ctx, byWorkflow); err != nil {
		return err
	}
	if _, err := s.mappings.Delete(ctx, byWorkflow); err != nil {
		return err
	}
	_, err := s.configs.Delete(ctx, byWorkflow)
	return err
}

func buildChildren(fieldInputs []FieldInput, mappingInputs []MappingInput,
	configInputs []ConfigurationInput) ([]*Field, []*Mapping, []*Configuration, error) {

	fields := make([]*Field, 0, len(fieldInputs))
	for _, in := range fieldInputs {
		if strings.TrimSpace(in.Label) == "" {
			return nil, nil, nil, dErrors.New(dErrors.CodeInvalidInput, "field label is required")
		}
		kind, err := ParseFieldType(in.Type)
		if err != nil {
			return nil, nil, nil, err
		}
		if kind == FieldSelect && len(in.Options) == 0 {
			return nil, nil, nil, dErrors.New(dErrors.CodeInvalidInput, "select fields need at least one option")
		}
		fields = append(fields, &Field{
			Label:    in.Label,
			Type:     kind,
			Required: in.Required,
			Options:  in.Options,
			Position: in.Position,
		})
	}

	mappings := make([]*Mapping, 0, len(mappingInputs))
	for _, in := range mappingInputs {
		if in.Source == "" || in.Target == "" {
			return nil, nil, nil, dErrors.New(dErrors.CodeInvalidInput, "mapping source and target are required")
		}
		mappings = append(mappings, &Mapping{Source: in.Source, Target: in.Target})
	}

	configs := make([]*Configuration, 0, len(configInputs))
	for _, in := range configInputs {
		if in.Key == "" {
			return nil, nil, nil, dErrors.New(dErrors.CodeInvalidInput, "configuration key is required")
		}
		configs = append(configs, &Configuration{Key: in.Key, Value: in.Value})
	}

	return fields, mappings, configs, nil
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	return tx.Run(ctx, s.db, fn)
}
