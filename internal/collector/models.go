package collector

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gather/internal/scoped"
	"gather/internal/workflow"
	dErrors "gather/pkg/domain-errors"
)

// Status tracks a submission through its delivery lifecycle.
type Status string

const (
	StatusReceived Status = "received"
	StatusPushed   Status = "pushed"
	StatusFailed   Status = "failed"
)

// ParseStatus validates an external status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusReceived, StatusPushed, StatusFailed:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown submission status %q", s)
}

// Submission is one collected record against a workflow.
type Submission struct {
	ID         uuid.UUID
	WorkflowID uuid.UUID
	Payload    json.RawMessage
	Language   string
	Mode       string
	Status     Status
	CreatedBy  uuid.UUID
	CreatedAt  time.Time
}

func (s *Submission) EntityID() uuid.UUID         { return s.ID }
func (s *Submission) SetEntityID(id uuid.UUID)    { s.ID = id }
func (s *Submission) CreatedByID() uuid.UUID      { return s.CreatedBy }
func (s *Submission) SetCreatedByID(id uuid.UUID) { s.CreatedBy = id }

func (s *Submission) AttributeValues() map[string]any {
	return map[string]any{
		"workflowId": s.WorkflowID,
		"payload":    []byte(s.Payload),
		"language":   s.Language,
		"mode":       s.Mode,
		"status":     string(s.Status),
		"createdBy":  s.CreatedBy,
		"createdAt":  s.CreatedAt,
	}
}

// Schema declares submission metadata; the workflow relation backs eager
// paths like "workflow.program".
func Schema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "submissions",
		Alias:      "s",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "workflowId", Name: "workflow_id"},
			{Attribute: "payload", Name: "payload"},
			{Attribute: "language", Name: "language"},
			{Attribute: "mode", Name: "mode"},
			{Attribute: "status", Name: "status"},
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "createdAt", Name: "created_at"},
		},
		Relations: map[string]scoped.Relation{
			"workflow": {Target: workflow.Schema(), LocalColumn: "workflow_id"},
		},
	}
}
