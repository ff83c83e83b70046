package user

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gather/internal/scoped"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/mail"
	"gather/pkg/requestcontext"
)

type countingCounters struct{ usersCreated int }

func (c *countingCounters) IncrementUsersCreated() { c.usersCreated++ }

func newTestService(t *testing.T) (*Service, *mail.MemorySender, *countingCounters, *mail.Worker) {
	t.Helper()

	sender := mail.NewMemorySender()
	worker := mail.NewWorker(sender, slog.Default(), 32)
	counters := &countingCounters{}

	repo := scoped.NewRepository[*User](NewMemoryStore(), Schema())
	svc := NewService(repo, nil, worker, counters, slog.Default())
	return svc, sender, counters, worker
}

func adminCtx() (context.Context, domain.UserID) {
	admin := domain.NewUserID()
	return requestcontext.WithUser(context.Background(), admin, []string{requestcontext.RoleAdmin}), admin
}

func uuidOf(id domain.UserID) uuid.UUID { return uuid.UUID(id) }

func drainMail(t *testing.T, worker *mail.Worker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go worker.Run(ctx)
	worker.Stop()
}

func TestCreate(t *testing.T) {
	t.Run("stamps the creator and hashes the password", func(t *testing.T) {
		svc, _, counters, _ := newTestService(t)
		ctx, admin := adminCtx()

		u, err := svc.Create(ctx, CreateInput{Email: "Nurse.Joy@clinic.example", Password: "hunter2hunter2"})
		require.NoError(t, err)

		assert.Equal(t, "nurse.joy@clinic.example", u.Email)
		assert.Equal(t, uuidOf(admin), u.CreatedBy)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2hunter2")))
		assert.Equal(t, 1, counters.usersCreated)
	})

	t.Run("derives names from the email local part", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		ctx, _ := adminCtx()

		u, err := svc.Create(ctx, CreateInput{Email: "amara.okafor@clinic.example", Password: "hunter2hunter2"})
		require.NoError(t, err)
		assert.Equal(t, "Amara", u.FirstName)
		assert.Equal(t, "Okafor", u.LastName)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		ctx, _ := adminCtx()

		_, err := svc.Create(ctx, CreateInput{Email: "not-an-email", Password: "hunter2hunter2"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = svc.Create(ctx, CreateInput{Email: "a@b.example", Password: "short"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestBulkCreate(t *testing.T) {
	t.Run("provisions every account and queues invite mail", func(t *testing.T) {
		svc, sender, counters, worker := newTestService(t)
		ctx, admin := adminCtx()

		users, err := svc.BulkCreate(ctx, []CreateInput{
			{Email: "one@clinic.example", Password: "hunter2hunter2"},
			{Email: "two@clinic.example", Password: "hunter2hunter2"},
		})
		require.NoError(t, err)
		require.Len(t, users, 2)
		for _, u := range users {
			assert.Equal(t, uuidOf(admin), u.CreatedBy)
		}
		assert.Equal(t, 2, counters.usersCreated)

		drainMail(t, worker)
		assert.Len(t, sender.Messages(), 2)
	})

	t.Run("one invalid input rejects the batch", func(t *testing.T) {
		svc, sender, _, worker := newTestService(t)
		ctx, _ := adminCtx()

		_, err := svc.BulkCreate(ctx, []CreateInput{
			{Email: "ok@clinic.example", Password: "hunter2hunter2"},
			{Email: "broken", Password: "hunter2hunter2"},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		rows, _, listErr := svc.List(ctx, 0, 10)
		require.NoError(t, listErr)
		assert.Empty(t, rows)

		drainMail(t, worker)
		assert.Empty(t, sender.Messages())
	})

	t.Run("empty batch is invalid", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		ctx, _ := adminCtx()
		_, err := svc.BulkCreate(ctx, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestListIsScoped(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	ctxA, _ := adminCtx()
	ctxB, _ := adminCtx()

	_, err := svc.Create(ctxA, CreateInput{Email: "a@clinic.example", Password: "hunter2hunter2"})
	require.NoError(t, err)
	_, err = svc.Create(ctxB, CreateInput{Email: "b@clinic.example", Password: "hunter2hunter2"})
	require.NoError(t, err)

	rows, total, err := svc.List(ctxA, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "a@clinic.example", rows[0].Email)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctxA, _ := adminCtx()
	ctxB, _ := adminCtx()

	created, err := svc.Create(ctxA, CreateInput{Email: "a@clinic.example", Password: "hunter2hunter2"})
	require.NoError(t, err)
	id := domain.UserID(created.ID)

	verified := true
	require.NoError(t, svc.Update(ctxA, id, UpdateInput{EmailVerified: &verified}))

	got, err := svc.Get(ctxA, id)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)

	err = svc.Update(ctxB, id, UpdateInput{EmailVerified: &verified})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = svc.Delete(ctxB, id)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctxA, id))
	_, err = svc.Get(ctxA, id)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
