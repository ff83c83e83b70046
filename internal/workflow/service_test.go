package workflow

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gather/internal/program"
	"gather/internal/scoped"
	"gather/internal/user"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/requestcontext"
)

type fixture struct {
	svc      *Service
	programs *program.Service
}

func newFixture() *fixture {
	programRepo := scoped.NewRepository[*program.Program](program.NewMemoryStore(), program.Schema())
	assignmentRepo := scoped.NewRepository[*program.Assignment](program.NewAssignmentMemoryStore(), program.AssignmentSchema())
	userRepo := scoped.NewRepository[*user.User](user.NewMemoryStore(), user.Schema())

	svc := NewService(
		scoped.NewRepository[*Workflow](NewMemoryStore(), Schema()),
		scoped.NewRepository[*Field](NewFieldMemoryStore(), FieldSchema()),
		scoped.NewRepository[*Mapping](NewMappingMemoryStore(), MappingSchema()),
		scoped.NewRepository[*Configuration](NewConfigurationMemoryStore(), ConfigurationSchema()),
		programRepo,
		nil,
		slog.Default(),
	)
	return &fixture{
		svc:      svc,
		programs: program.NewService(programRepo, assignmentRepo, userRepo, nil, slog.Default()),
	}
}

func userCtx() context.Context {
	return requestcontext.WithUser(context.Background(), domain.NewUserID(), nil)
}

func (f *fixture) createProgram(t *testing.T, ctx context.Context) domain.ProgramID {
	t.Helper()
	p, err := f.programs.Create(ctx, program.CreateInput{Name: "Surveillance"})
	require.NoError(t, err)
	return domain.ProgramID(p.ID)
}

func sampleInput(programID domain.ProgramID) CreateInput {
	return CreateInput{
		ProgramID: programID,
		Name:      "Case Report",
		Languages: []string{"en", "fr"},
		Modes:     []string{"online", "offline"},
		Fields: []FieldInput{
			{Label: "Patient age", Type: "number", Required: true, Position: 1},
			{Label: "Severity", Type: "select", Options: []string{"mild", "severe"}, Position: 2},
		},
		Mappings:       []MappingInput{{Source: "Patient age", Target: "AGE_Y"}},
		Configurations: []ConfigurationInput{{Key: "autosave", Value: "true"}},
	}
}

func TestCreate(t *testing.T) {
	t.Run("persists the workflow with its children", func(t *testing.T) {
		f := newFixture()
		ctx := userCtx()
		programID := f.createProgram(t, ctx)

		detail, err := f.svc.Create(ctx, sampleInput(programID))
		require.NoError(t, err)

		assert.Equal(t, StatusActive, detail.Workflow.Status)
		assert.Equal(t, 1, detail.Workflow.Version)
		assert.Len(t, detail.Fields, 2)
		assert.Len(t, detail.Mappings, 1)
		assert.Len(t, detail.Configurations, 1)

		got, err := f.svc.Get(ctx, domain.WorkflowID(detail.Workflow.ID))
		require.NoError(t, err)
		assert.Len(t, got.Fields, 2)
		assert.Equal(t, "Patient age", got.Fields[0].Label)
	})

	t.Run("normalizes languages and modes", func(t *testing.T) {
		f := newFixture()
		ctx := userCtx()
		in := sampleInput(f.createProgram(t, ctx))
		in.Languages = []string{" EN ", "fr", "en"}
		in.Modes = []string{"Online", "online", ""}

		detail, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []string{"en", "fr"}, detail.Workflow.Languages)
		assert.Equal(t, []string{"online"}, detail.Workflow.Modes)
	})

	t.Run("requires an owned program", func(t *testing.T) {
		f := newFixture()
		owner := userCtx()
		programID := f.createProgram(t, owner)

		_, err := f.svc.Create(userCtx(), sampleInput(programID))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("rejects select fields without options", func(t *testing.T) {
		f := newFixture()
		ctx := userCtx()
		in := sampleInput(f.createProgram(t, ctx))
		in.Fields = []FieldInput{{Label: "Severity", Type: "select"}}

		_, err := f.svc.Create(ctx, in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects unknown field types", func(t *testing.T) {
		f := newFixture()
		ctx := userCtx()
		in := sampleInput(f.createProgram(t, ctx))
		in.Fields = []FieldInput{{Label: "Age", Type: "integer"}}

		_, err := f.svc.Create(ctx, in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestUpsertChildren(t *testing.T) {
	f := newFixture()
	ctx := userCtx()
	detail, err := f.svc.Create(ctx, sampleInput(f.createProgram(t, ctx)))
	require.NoError(t, err)
	id := domain.WorkflowID(detail.Workflow.ID)

	updated, err := f.svc.UpsertChildren(ctx, id,
		[]FieldInput{{Label: "Patient name", Type: "text", Position: 1}},
		nil,
		[]ConfigurationInput{{Key: "autosave", Value: "false"}},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Workflow.Version)
	require.Len(t, updated.Fields, 1)
	assert.Equal(t, "Patient name", updated.Fields[0].Label)

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Fields, 1)
	assert.Empty(t, got.Mappings)
	assert.Equal(t, 2, got.Workflow.Version)

	t.Run("foreign workflows are unreachable", func(t *testing.T) {
		_, err := f.svc.UpsertChildren(userCtx(), id, nil, nil, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestSetStatus(t *testing.T) {
	f := newFixture()
	ctx := userCtx()
	detail, err := f.svc.Create(ctx, sampleInput(f.createProgram(t, ctx)))
	require.NoError(t, err)
	id := domain.WorkflowID(detail.Workflow.ID)

	require.NoError(t, f.svc.SetStatus(ctx, id, "inactive"))

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, got.Workflow.Status)

	err = f.svc.SetStatus(ctx, id, "archived")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture()
	ctx := userCtx()
	programID := f.createProgram(t, ctx)

	for _, name := range []string{"One", "Two", "Three"} {
		in := sampleInput(programID)
		in.Name = name
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	rows, total, err := f.svc.List(ctx, &programID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, rows, 2)

	otherProgram := domain.NewProgramID()
	rows, total, err = f.svc.List(ctx, &otherProgram, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestDeleteRemovesChildren(t *testing.T) {
	f := newFixture()
	ctx := userCtx()
	detail, err := f.svc.Create(ctx, sampleInput(f.createProgram(t, ctx)))
	require.NoError(t, err)
	id := domain.WorkflowID(detail.Workflow.ID)

	require.NoError(t, f.svc.Delete(ctx, id))

	_, err = f.svc.Get(ctx, id)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRelationPathsResolve(t *testing.T) {
	steps, err := scoped.ResolveRelations("workflow", Schema(), []string{"program", "fields", "configurations"})
	require.NoError(t, err)
	assert.Len(t, steps, 3)

	steps, err = scoped.ResolveRelations("program", ProgramSchema(), []string{"workflows.fields", "workflows.mappings"})
	require.NoError(t, err)
	// shared "workflows" prefix joins once
	assert.Len(t, steps, 3)
}
