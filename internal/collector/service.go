package collector

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"gather/internal/scoped"
	"gather/internal/workflow"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	"gather/pkg/requestcontext"
)

// Counters is the slice of platform metrics this service feeds.
type Counters interface {
	IncrementSubmissionsReceived()
}

// Service accepts collected records. A submission only lands against an
// active workflow the caller owns.
type Service struct {
	submissions *scoped.Repository[*Submission]
	workflows   *scoped.Repository[*workflow.Workflow]
	counters    Counters
	log         *slog.Logger
}

func NewService(submissions *scoped.Repository[*Submission], workflows *scoped.Repository[*workflow.Workflow], counters Counters, log *slog.Logger) *Service {
	return &Service{submissions: submissions, workflows: workflows, counters: counters, log: log}
}

// SubmitInput is one incoming record.
type SubmitInput struct {
	WorkflowID domain.WorkflowID
	Payload    json.RawMessage
	Language   string
	Mode       string
}

// Submit validates and persists one collected record.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Submission, error) {
	if len(in.Payload) == 0 || !json.Valid(in.Payload) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payload must be valid JSON")
	}

	w, err := s.workflows.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(in.WorkflowID)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "workflow not found")
	}
	if err != nil {
		return nil, err
	}
	if w.Status != workflow.StatusActive {
		return nil, dErrors.New(dErrors.CodeConflict, "workflow is not accepting submissions")
	}
	if in.Language != "" && len(w.Languages) > 0 && !slices.Contains(w.Languages, in.Language) {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "language %q is not enabled for this workflow", in.Language)
	}
	if in.Mode != "" && len(w.Modes) > 0 && !slices.Contains(w.Modes, in.Mode) {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "mode %q is not enabled for this workflow", in.Mode)
	}

	sub := &Submission{
		WorkflowID: w.ID,
		Payload:    in.Payload,
		Language:   in.Language,
		Mode:       in.Mode,
		Status:     StatusReceived,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.submissions.Save(ctx, sub); err != nil {
		return nil, err
	}

	if s.counters != nil {
		s.counters.IncrementSubmissionsReceived()
	}
	s.log.InfoContext(ctx, "submission received", "submission_id", sub.ID, "workflow_id", w.ID)
	return sub, nil
}

// List returns the caller's submissions, optionally for one workflow.
func (s *Service) List(ctx context.Context, workflowID *domain.WorkflowID, skip, take int) ([]*Submission, int, error) {
	query := s.submissions.WithScope("").
		Relations("workflow").
		OrderBy("createdAt", true).
		Skip(skip).
		Take(take)
	if workflowID != nil {
		query = query.Where(scoped.Filter{"workflowId": uuid.UUID(*workflowID)})
	}
	return query.AllAndCount(ctx)
}

// Get returns one owned submission.
func (s *Service) Get(ctx context.Context, id domain.SubmissionID) (*Submission, error) {
	sub, err := s.submissions.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(id)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return sub, err
}

// MarkStatus records a delivery outcome on a batch of submissions.
func (s *Service) MarkStatus(ctx context.Context, ids []domain.SubmissionID, status string) error {
	parsed, err := ParseStatus(status)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "no submissions given")
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = uuid.UUID(id)
	}
	_, err = s.submissions.Update(ctx, scoped.ByIDs(values...), scoped.Partial{"status": string(parsed)})
	return err
}

// Discard hard-deletes a batch of owned submissions; one foreign or missing
// id rejects the whole batch.
func (s *Service) Discard(ctx context.Context, ids []domain.SubmissionID) error {
	entities := make([]*Submission, len(ids))
	for i, id := range ids {
		entities[i] = &Submission{ID: uuid.UUID(id)}
	}
	return s.submissions.Remove(ctx, entities...)
}
