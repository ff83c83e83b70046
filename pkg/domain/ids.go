// Package domain holds typed identifiers and shared value types. Typed IDs
// prevent cross-entity assignment at compile time; parse functions enforce the
// "valid, non-empty, non-nil UUID" invariant at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "gather/pkg/domain-errors"
)

type (
	// UserID identifies a platform user, the unit of ownership scoping.
	UserID uuid.UUID
	// ProgramID identifies a data-collection program.
	ProgramID uuid.UUID
	// WorkflowID identifies a workflow inside a program.
	WorkflowID uuid.UUID
	// SubmissionID identifies a collected record.
	SubmissionID uuid.UUID
	// ConnectionID identifies an external system connection.
	ConnectionID uuid.UUID
	// UploadID identifies a stored file.
	UploadID uuid.UUID
)

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

// ParseUserID parses external input into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s)
	return UserID(u), err
}

// ParseProgramID parses external input into a ProgramID.
func ParseProgramID(s string) (ProgramID, error) {
	u, err := parse(s)
	return ProgramID(u), err
}

// ParseWorkflowID parses external input into a WorkflowID.
func ParseWorkflowID(s string) (WorkflowID, error) {
	u, err := parse(s)
	return WorkflowID(u), err
}

// ParseSubmissionID parses external input into a SubmissionID.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parse(s)
	return SubmissionID(u), err
}

// ParseConnectionID parses external input into a ConnectionID.
func ParseConnectionID(s string) (ConnectionID, error) {
	u, err := parse(s)
	return ConnectionID(u), err
}

// ParseUploadID parses external input into an UploadID.
func ParseUploadID(s string) (UploadID, error) {
	u, err := parse(s)
	return UploadID(u), err
}

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id ProgramID) String() string    { return uuid.UUID(id).String() }
func (id WorkflowID) String() string   { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id ConnectionID) String() string { return uuid.UUID(id).String() }
func (id UploadID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ProgramID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id WorkflowID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ConnectionID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id UploadID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }

// NewUserID mints a fresh UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewProgramID mints a fresh ProgramID.
func NewProgramID() ProgramID { return ProgramID(uuid.New()) }

// NewWorkflowID mints a fresh WorkflowID.
func NewWorkflowID() WorkflowID { return WorkflowID(uuid.New()) }

// NewSubmissionID mints a fresh SubmissionID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// NewConnectionID mints a fresh ConnectionID.
func NewConnectionID() ConnectionID { return ConnectionID(uuid.New()) }

// NewUploadID mints a fresh UploadID.
func NewUploadID() UploadID { return UploadID(uuid.New()) }
