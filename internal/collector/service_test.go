package collector

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gather/internal/scoped"
	"gather/internal/workflow"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/requestcontext"
)

type fixture struct {
	svc       *Service
	workflows *scoped.MemoryStore[*workflow.Workflow]
	counters  *countingCounters
}

type countingCounters struct{ received int }

func (c *countingCounters) IncrementSubmissionsReceived() { c.received++ }

func newFixture() *fixture {
	workflows := workflow.NewMemoryStore()
	counters := &countingCounters{}
	svc := NewService(
		scoped.NewRepository[*Submission](NewMemoryStore(), Schema()),
		scoped.NewRepository[*workflow.Workflow](workflows, workflow.Schema()),
		counters,
		slog.Default(),
	)
	return &fixture{svc: svc, workflows: workflows, counters: counters}
}

func userCtx() (context.Context, domain.UserID) {
	id := domain.NewUserID()
	return requestcontext.WithUser(context.Background(), id, nil), id
}

func (f *fixture) seedWorkflow(t *testing.T, owner domain.UserID, status workflow.Status) domain.WorkflowID {
	t.Helper()
	w := &workflow.Workflow{
		ID:        uuid.New(),
		ProgramID: uuid.New(),
		Name:      "Case Report",
		Status:    status,
		Languages: []string{"en"},
		Modes:     []string{"online"},
		Version:   1,
		CreatedBy: uuid.UUID(owner),
	}
	require.NoError(t, f.workflows.Insert(context.Background(), []*workflow.Workflow{w}))
	return domain.WorkflowID(w.ID)
}

func payload() json.RawMessage {
	return json.RawMessage(`{"age": 34, "severity": "mild"}`)
}

func TestSubmit(t *testing.T) {
	t.Run("accepts a record for an active owned workflow", func(t *testing.T) {
		f := newFixture()
		ctx, owner := userCtx()
		workflowID := f.seedWorkflow(t, owner, workflow.StatusActive)

		sub, err := f.svc.Submit(ctx, SubmitInput{
			WorkflowID: workflowID,
			Payload:    payload(),
			Language:   "en",
			Mode:       "online",
		})
		require.NoError(t, err)
		assert.Equal(t, StatusReceived, sub.Status)
		assert.Equal(t, uuid.UUID(owner), sub.CreatedBy)
		assert.Equal(t, 1, f.counters.received)
	})

	t.Run("rejects inactive workflows", func(t *testing.T) {
		f := newFixture()
		ctx, owner := userCtx()
		workflowID := f.seedWorkflow(t, owner, workflow.StatusInactive)

		_, err := f.svc.Submit(ctx, SubmitInput{WorkflowID: workflowID, Payload: payload()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("a foreign workflow reads as not found", func(t *testing.T) {
		f := newFixture()
		_, owner := userCtx()
		workflowID := f.seedWorkflow(t, owner, workflow.StatusActive)

		otherCtx, _ := userCtx()
		_, err := f.svc.Submit(otherCtx, SubmitInput{WorkflowID: workflowID, Payload: payload()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("rejects disabled language or mode", func(t *testing.T) {
		f := newFixture()
		ctx, owner := userCtx()
		workflowID := f.seedWorkflow(t, owner, workflow.StatusActive)

		_, err := f.svc.Submit(ctx, SubmitInput{WorkflowID: workflowID, Payload: payload(), Language: "sw"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = f.svc.Submit(ctx, SubmitInput{WorkflowID: workflowID, Payload: payload(), Mode: "offline"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		f := newFixture()
		ctx, owner := userCtx()
		workflowID := f.seedWorkflow(t, owner, workflow.StatusActive)

		_, err := f.svc.Submit(ctx, SubmitInput{WorkflowID: workflowID, Payload: json.RawMessage(`{oops`)})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestMarkStatus(t *testing.T) {
	f := newFixture()
	ctx, owner := userCtx()
	workflowID := f.seedWorkflow(t, owner, workflow.StatusActive)

	first, err := f.svc.Submit(ctx, SubmitInput{WorkflowID: workflowID, Payload: payload()})
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, SubmitInput{WorkflowID: workflowID, Payload: payload()})
	require.NoError(t, err)

	ids := []domain.SubmissionID{domain.SubmissionID(first.ID), domain.SubmissionID(second.ID)}
	require.NoError(t, f.svc.MarkStatus(ctx, ids, "pushed"))

	got, err := f.svc.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, StatusPushed, got.Status)

	err = f.svc.MarkStatus(ctx, ids, "teleported")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDiscard(t *testing.T) {
	f := newFixture()
	ctx, owner := userCtx()
	workflowID := f.seedWorkflow(t, owner, workflow.StatusActive)

	mine, err := f.svc.Submit(ctx, SubmitInput{WorkflowID: workflowID, Payload: payload()})
	require.NoError(t, err)

	otherCtx, other := userCtx()
	otherWorkflow := f.seedWorkflow(t, other, workflow.StatusActive)
	theirs, err := f.svc.Submit(otherCtx, SubmitInput{WorkflowID: otherWorkflow, Payload: payload()})
	require.NoError(t, err)

	t.Run("a batch touching foreign records deletes nothing", func(t *testing.T) {
		err := f.svc.Discard(ctx, []domain.SubmissionID{
			domain.SubmissionID(mine.ID),
			domain.SubmissionID(theirs.ID),
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = f.svc.Get(ctx, domain.SubmissionID(mine.ID))
		assert.NoError(t, err)
	})

	t.Run("an owned batch is deleted", func(t *testing.T) {
		require.NoError(t, f.svc.Discard(ctx, []domain.SubmissionID{domain.SubmissionID(mine.ID)}))
		_, err := f.svc.Get(ctx, domain.SubmissionID(mine.ID))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
