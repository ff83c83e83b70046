package program

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"gather/internal/scoped"
	"gather/internal/user"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	"gather/pkg/platform/tx"
	"gather/pkg/requestcontext"
)

// Service manages programs and their user assignments.
type Service struct {
	programs    *scoped.Repository[*Program]
	assignments *scoped.Repository[*Assignment]
	users       *scoped.Repository[*user.User]
	db          *sql.DB
	log         *slog.Logger
}

func NewService(
	programs *scoped.Repository[*Program],
	assignments *scoped.Repository[*Assignment],
	users *scoped.Repository[*user.User],
	db *sql.DB,
	log *slog.Logger,
) *Service {
	return &Service{programs: programs, assignments: assignments, users: users, db: db, log: log}
}

// CreateInput is the program creation payload.
type CreateInput struct {
	Name        string
	Description string
}

// Create adds a program for the caller. The name must be unused among the
// caller's own programs; the scoped read makes that exactly the per-creator
// uniqueness rule.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Program, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "program name is required")
	}

	if err := s.ensureNameUnused(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p := &Program{
		Name:        name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.programs.Save(ctx, p); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "program created", "program_id", p.ID, "name", p.Name)
	return p, nil
}

// List returns the caller's programs with the total count, newest first.
func (s *Service) List(ctx context.Context, skip, take int) ([]*Program, int, error) {
	return s.programs.FindAndCount(ctx, scoped.FindOptions{
		OrderBy: []scoped.Order{{Attribute: "createdAt", Desc: true}},
		Skip:    skip,
		Take:    take,
	})
}

// Get returns one program the caller owns.
func (s *Service) Get(ctx context.Context, id domain.ProgramID) (*Program, error) {
	p, err := s.programs.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(id)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
	}
	return p, err
}

// UpdateInput carries the mutable program fields; nil means unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Update applies a partial update to one owned program.
func (s *Service) Update(ctx context.Context, id domain.ProgramID, in UpdateInput) error {
	partial := scoped.Partial{"updatedAt": requestcontext.Now(ctx)}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "program name is required")
		}
		if err := s.ensureNameUnused(ctx, name, uuid.UUID(id)); err != nil {
			return err
		}
		partial["name"] = name
	}
	if in.Description != nil {
		partial["description"] = *in.Description
	}

	n, err := s.programs.Update(ctx, scoped.ByID(uuid.UUID(id)), partial)
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "program not found")
	}
	return nil
}

// Delete soft-deletes one owned program and drops its assignments.
func (s *Service) Delete(ctx context.Context, id domain.ProgramID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		n, err := s.programs.SoftDelete(ctx, scoped.ByID(uuid.UUID(id)))
		if err != nil {
			return err
		}
		if n == 0 {
			return dErrors.New(dErrors.CodeNotFound, "program not found")
		}
		_, err = s.assignments.Delete(ctx, scoped.Where(scoped.Filter{"programId": uuid.UUID(id)}))
		return err
	})
}

// AssignUsers replaces the program's user assignments in one transaction.
// Every target user must be visible to the caller; one invisible or unknown
// id rejects the whole batch.
func (s *Service) AssignUsers(ctx context.Context, id domain.ProgramID, userIDs []domain.UserID) ([]*Assignment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureUsersVisible(ctx, userIDs); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	assignments := make([]*Assignment, 0, len(userIDs))
	for _, userID := range userIDs {
		assignments = append(assignments, &Assignment{
			ProgramID: uuid.UUID(id),
			UserID:    uuid.UUID(userID),
			CreatedAt: now,
		})
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.assignments.Delete(ctx, scoped.Where(scoped.Filter{"programId": uuid.UUID(id)})); err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}
		return s.assignments.Save(ctx, assignments...)
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// Assignments lists the caller's assignments for one program.
func (s *Service) Assignments(ctx context.Context, id domain.ProgramID) ([]*Assignment, error) {
	return s.assignments.Find(ctx, scoped.FindOptions{
		Where: scoped.Filter{"programId": uuid.UUID(id)},
	})
}

func (s *Service) ensureUsersVisible(ctx context.Context, userIDs []domain.UserID) error {
	if len(userIDs) == 0 {
		return nil
	}

	ids := make([]any, len(userIDs))
	for i, userID := range userIDs {
		if userID.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
		}
		ids[i] = uuid.UUID(userID)
	}

	visible, err := s.users.Find(ctx, scoped.FindOptions{
		Where: scoped.Filter{"id": scoped.AnyOf(ids...)},
	})
	if err != nil {
		return err
	}
	if len(visible) != len(userIDs) {
		return dErrors.New(dErrors.CodeConflict, "one or more users do not exist")
	}
	return nil
}

func (s *Service) ensureNameUnused(ctx context.Context, name string, excludeID uuid.UUID) error {
	existing, err := s.programs.Find(ctx, scoped.FindOptions{Where: scoped.Filter{"name": name}})
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.ID != excludeID {
			return dErrors.New(dErrors.CodeConflict, "a program with this name already exists")
		}
	}
	return nil
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	return tx.Run(ctx, s.db, fn)
}
