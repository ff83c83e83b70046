package scoped

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	"gather/pkg/requestcontext"
)

func seedNote(t *testing.T, store *MemoryStore[*note], owner uuid.UUID, title string, rating int) *note {
	t.Helper()
	n := &note{id: uuid.New(), createdBy: owner, title: title, rating: rating}
	require.NoError(t, store.Insert(context.Background(), []*note{n}))
	return n
}

func TestFindScoping(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	repo, store := newNoteRepo()
	seedNote(t, store, alice, "alice 1", 1)
	seedNote(t, store, alice, "alice 2", 2)
	seedNote(t, store, bob, "bob 1", 3)

	t.Run("unauthenticated reads of owned entities match nothing", func(t *testing.T) {
		rows, err := repo.Find(context.Background(), FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("a user sees only their own rows", func(t *testing.T) {
		rows, err := repo.Find(userCtx(alice), FindOptions{})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		for _, n := range rows {
			assert.Equal(t, alice, n.createdBy)
		}
	})

	t.Run("an admin without an owner filter is scoped like anyone else", func(t *testing.T) {
		rows, err := repo.Find(userCtx(alice, requestcontext.RoleAdmin), FindOptions{})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("an admin naming an owner reads that user's rows", func(t *testing.T) {
		rows, err := repo.Find(userCtx(alice, requestcontext.RoleAdmin), FindOptions{
			Where: Filter{"createdBy": bob},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, bob, rows[0].createdBy)
	})

	t.Run("a non-admin naming another owner is forced back to their own rows", func(t *testing.T) {
		rows, err := repo.Find(userCtx(alice), FindOptions{
			Where: Filter{"createdBy": bob},
		})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		for _, n := range rows {
			assert.Equal(t, alice, n.createdBy)
		}
	})

	t.Run("a super-admin sees every row", func(t *testing.T) {
		rows, err := repo.Find(userCtx(alice, requestcontext.RoleSuperAdmin), FindOptions{})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("entities without an owner column are never scoped", func(t *testing.T) {
		tags := NewMemoryStore[*tag](tagSchema(), nil)
		tagRepo := NewRepository[*tag](tags, tagSchema())
		require.NoError(t, tags.Insert(context.Background(), []*tag{{id: uuid.New(), name: "health"}}))

		rows, err := tagRepo.Find(context.Background(), FindOptions{})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestFindOne(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	repo, store := newNoteRepo()
	mine := seedNote(t, store, alice, "mine", 1)
	theirs := seedNote(t, store, bob, "theirs", 2)

	t.Run("returns an owned row", func(t *testing.T) {
		got, err := repo.FindOne(userCtx(alice), FindOptions{Where: Filter{"id": mine.id}})
		require.NoError(t, err)
		assert.Equal(t, mine.id, got.id)
	})

	t.Run("someone else's row reads as not found", func(t *testing.T) {
		_, err := repo.FindOne(userCtx(alice), FindOptions{Where: Filter{"id": theirs.id}})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("a missing row reads as not found", func(t *testing.T) {
		_, err := repo.FindOne(userCtx(alice), FindOptions{Where: Filter{"id": uuid.New()}})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestSave(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	t.Run("new records are stamped with the caller", func(t *testing.T) {
		repo, _ := newNoteRepo()
		n := &note{title: "fresh"}
		require.NoError(t, repo.Save(userCtx(alice), n))
		assert.NotEqual(t, uuid.Nil, n.id)
		assert.Equal(t, alice, n.createdBy)
	})

	t.Run("explicit self-assignment is accepted", func(t *testing.T) {
		repo, _ := newNoteRepo()
		n := &note{title: "fresh", createdBy: alice}
		require.NoError(t, repo.Save(userCtx(alice), n))
		assert.Equal(t, alice, n.createdBy)
	})

	t.Run("creating on behalf of another user is forbidden", func(t *testing.T) {
		metrics := &fakeMetrics{}
		repo, store := newNoteRepo(WithMetrics[*note](metrics))

		err := repo.Save(userCtx(alice), &note{title: "planted", createdBy: bob})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		count, err := store.Count(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Zero(t, count)
		require.Len(t, metrics.denials, 1)
		assert.Equal(t, recordedDenial{entity: "notes", operation: "save"}, metrics.denials[0])
	})

	t.Run("a super-admin may set an explicit owner", func(t *testing.T) {
		repo, _ := newNoteRepo()
		n := &note{title: "assigned", createdBy: bob}
		require.NoError(t, repo.Save(userCtx(alice, requestcontext.RoleSuperAdmin), n))
		assert.Equal(t, bob, n.createdBy)
	})

	t.Run("an unauthenticated insert of an owned record stays unowned", func(t *testing.T) {
		repo, _ := newNoteRepo()
		n := &note{title: "system"}
		require.NoError(t, repo.Save(context.Background(), n))
		assert.Equal(t, uuid.Nil, n.createdBy)
	})

	t.Run("updating an owned record persists the change", func(t *testing.T) {
		repo, store := newNoteRepo()
		n := seedNote(t, store, alice, "draft", 1)

		n.title = "final"
		require.NoError(t, repo.Save(userCtx(alice), n))

		got, err := repo.FindOne(userCtx(alice), FindOptions{Where: Filter{"id": n.id}})
		require.NoError(t, err)
		assert.Equal(t, "final", got.title)
	})

	t.Run("updating someone else's record is indistinguishable from a missing one", func(t *testing.T) {
		repo, store := newNoteRepo()
		theirs := seedNote(t, store, bob, "theirs", 1)

		theirs.title = "hijacked"
		err := repo.Save(userCtx(alice), theirs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.ErrorContains(t, err, "does not exist or does not belong to you")
	})

	t.Run("reassigning ownership through save is forbidden", func(t *testing.T) {
		repo, store := newNoteRepo()
		mine := seedNote(t, store, alice, "mine", 1)

		mine.createdBy = bob
		err := repo.Save(userCtx(alice), mine)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.ErrorContains(t, err, "cannot change record ownership")
	})

	t.Run("a rejected save leaves the stored row untouched", func(t *testing.T) {
		repo, store := newNoteRepo()
		mine := seedNote(t, store, alice, "mine", 1)

		mine.title = "tampered"
		mine.createdBy = bob
		require.Error(t, repo.Save(userCtx(alice), mine))

		got, err := repo.FindOne(userCtx(alice), FindOptions{Where: Filter{"id": mine.id}})
		require.NoError(t, err)
		assert.Equal(t, "mine", got.title)
		assert.Equal(t, alice, got.createdBy)
	})

	t.Run("one bad item rejects the whole batch", func(t *testing.T) {
		repo, store := newNoteRepo()
		theirs := seedNote(t, store, bob, "theirs", 1)

		fresh := &note{title: "fresh"}
		theirs.title = "hijacked"
		err := repo.Save(userCtx(alice), fresh, theirs)
		require.Error(t, err)

		count, err := store.Count(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestUpdate(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	t.Run("criteria updates only touch the caller's rows", func(t *testing.T) {
		repo, store := newNoteRepo()
		seedNote(t, store, alice, "shared title", 1)
		seedNote(t, store, bob, "shared title", 2)

		n, err := repo.Update(userCtx(alice), Where(Filter{"title": "shared title"}), Partial{"rating": 9})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("owner reassignment in the payload is forbidden", func(t *testing.T) {
		repo, store := newNoteRepo()
		mine := seedNote(t, store, alice, "mine", 1)

		_, err := repo.Update(userCtx(alice), ByID(mine.id), Partial{"createdBy": bob})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unauthenticated writes are rejected", func(t *testing.T) {
		repo, _ := newNoteRepo()
		_, err := repo.Update(context.Background(), Where(Filter{"title": "x"}), Partial{"rating": 1})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("a super-admin updates across owners", func(t *testing.T) {
		repo, store := newNoteRepo()
		theirs := seedNote(t, store, bob, "theirs", 1)

		n, err := repo.Update(userCtx(alice, requestcontext.RoleSuperAdmin), ByID(theirs.id), Partial{"rating": 5})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		got, err := repo.FindOne(userCtx(bob), FindOptions{Where: Filter{"id": theirs.id}})
		require.NoError(t, err)
		assert.Equal(t, 5, got.rating)
	})
}

func TestDelete(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	repo, store := newNoteRepo()
	mine := seedNote(t, store, alice, "mine", 1)
	theirs := seedNote(t, store, bob, "theirs", 2)

	n, err := repo.Delete(userCtx(alice), ByID(theirs.id))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Delete(userCtx(alice), ByID(mine.id))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := store.Count(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	alice := uuid.New()
	at := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	repo, store := newNoteRepo()
	mine := seedNote(t, store, alice, "mine", 1)

	ctx := requestcontext.WithTime(userCtx(alice), at)

	n, err := repo.SoftDelete(ctx, ByID(mine.id))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	deletedAt, ok := store.DeletedAt(mine.id)
	require.True(t, ok)
	assert.Equal(t, at, deletedAt)

	rows, err := repo.Find(ctx, FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = repo.Find(ctx, FindOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	n, err = repo.Restore(ctx, ByID(mine.id))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err = repo.Find(ctx, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRemove(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	t.Run("no usable ids is invalid input", func(t *testing.T) {
		repo, _ := newNoteRepo()
		err := repo.Remove(userCtx(alice), &note{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("a mixed-ownership batch deletes nothing", func(t *testing.T) {
		repo, store := newNoteRepo()
		mine := seedNote(t, store, alice, "mine", 1)
		theirs := seedNote(t, store, bob, "theirs", 2)

		err := repo.Remove(userCtx(alice), mine, theirs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.ErrorContains(t, err, "some records do not exist or do not belong to you")

		count, err := store.Count(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("a fully-owned batch is deleted", func(t *testing.T) {
		repo, store := newNoteRepo()
		a := seedNote(t, store, alice, "a", 1)
		b := seedNote(t, store, alice, "b", 2)

		require.NoError(t, repo.Remove(userCtx(alice), a, b))

		count, err := store.Count(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("a super-admin removes across owners", func(t *testing.T) {
		repo, store := newNoteRepo()
		mine := seedNote(t, store, alice, "mine", 1)
		theirs := seedNote(t, store, bob, "theirs", 2)

		require.NoError(t, repo.Remove(userCtx(alice, requestcontext.RoleSuperAdmin), mine, theirs))

		count, err := store.Count(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestWithScopeQuery(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	repo, store := newNoteRepo()
	for i := 1; i <= 5; i++ {
		seedNote(t, store, alice, "note", i)
	}
	seedNote(t, store, bob, "note", 6)

	rows, total, err := repo.WithScope("").
		Where(Filter{"title": "note"}).
		OrderBy("rating", true).
		Skip(1).
		Take(2).
		AllAndCount(userCtx(alice))
	require.NoError(t, err)

	assert.Equal(t, 5, total)
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].rating)
	assert.Equal(t, 3, rows[1].rating)
}
