package user

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"gather/internal/scoped"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/email"
	"gather/pkg/platform/mail"
	"gather/pkg/platform/sentinel"
	pstrings "gather/pkg/platform/strings"
	"gather/pkg/platform/tx"
	"gather/pkg/requestcontext"
)

// Counters is the slice of platform metrics this service feeds.
type Counters interface {
	IncrementUsersCreated()
}

// Service provisions and manages accounts. All reads and writes go through
// the scoped repository, so a caller only ever touches accounts they created.
type Service struct {
	repo     *scoped.Repository[*User]
	db       *sql.DB
	mailer   mail.Enqueuer
	counters Counters
	log      *slog.Logger
}

func NewService(repo *scoped.Repository[*User], db *sql.DB, mailer mail.Enqueuer, counters Counters, log *slog.Logger) *Service {
	return &Service{repo: repo, db: db, mailer: mailer, counters: counters, log: log}
}

// CreateInput is the provisioning payload. Names are optional; absent names
// are derived from the email local part.
type CreateInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Roles     []string
}

// Create provisions one account and queues its invite mail.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	u, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a user with this email already exists")
		}
		return nil, err
	}

	s.created(ctx, u)
	return u, nil
}

// BulkCreate provisions a batch of accounts in one transaction. Password
// hashing runs concurrently; any invalid input rejects the whole batch and
// no mail goes out until every row is committed.
func (s *Service) BulkCreate(ctx context.Context, inputs []CreateInput) ([]*User, error) {
	if len(inputs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no users provided")
	}

	users := make([]*User, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			u, err := s.build(gctx, in)
			if err != nil {
				return err
			}
			users[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		return s.repo.Save(ctx, users...)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a user with this email already exists")
		}
		return nil, err
	}

	for _, u := range users {
		s.created(ctx, u)
	}
	return users, nil
}

// List returns the caller's users with the total count, newest first.
func (s *Service) List(ctx context.Context, skip, take int) ([]*User, int, error) {
	return s.repo.FindAndCount(ctx, scoped.FindOptions{
		OrderBy: []scoped.Order{{Attribute: "createdAt", Desc: true}},
		Skip:    skip,
		Take:    take,
	})
}

// Get returns one user the caller owns.
func (s *Service) Get(ctx context.Context, id domain.UserID) (*User, error) {
	u, err := s.repo.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(id)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return u, err
}

// UpdateInput carries the mutable account fields; nil means unchanged.
type UpdateInput struct {
	FirstName     *string
	LastName      *string
	EmailVerified *bool
	Roles         []string
}

// Update applies a partial update to one owned account.
func (s *Service) Update(ctx context.Context, id domain.UserID, in UpdateInput) error {
	partial := scoped.Partial{"updatedAt": requestcontext.Now(ctx)}
	if in.FirstName != nil {
		partial["firstName"] = *in.FirstName
	}
	if in.LastName != nil {
		partial["lastName"] = *in.LastName
	}
	if in.EmailVerified != nil {
		partial["emailVerified"] = *in.EmailVerified
	}
	if in.Roles != nil {
		partial["roles"] = pq.StringArray(in.Roles)
	}

	n, err := s.repo.Update(ctx, scoped.ByID(uuid.UUID(id)), partial)
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}

// Delete soft-deletes one owned account.
func (s *Service) Delete(ctx context.Context, id domain.UserID) error {
	n, err := s.repo.SoftDelete(ctx, scoped.ByID(uuid.UUID(id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *Service) build(ctx context.Context, in CreateInput) (*User, error) {
	address, ok := email.Normalize(in.Email)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hashing password")
	}

	first, last := in.FirstName, in.LastName
	if first == "" && last == "" {
		first, last = email.DeriveNameFromEmail(address)
	}

	now := requestcontext.Now(ctx)
	return &User{
		Email:        address,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		Roles:        pstrings.DedupeAndTrim(in.Roles),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) created(ctx context.Context, u *User) {
	if s.counters != nil {
		s.counters.IncrementUsersCreated()
	}
	if s.mailer != nil {
		s.mailer.Enqueue(mail.Message{
			To:      u.Email,
			Subject: "Your account is ready",
			Body:    "Hello " + u.FirstName + ", an account has been created for you.",
		})
	}
	s.log.InfoContext(ctx, "user created", "user_id", u.ID, "email", u.Email)
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	return tx.Run(ctx, s.db, fn)
}
