package core_test

import (
	"context"
	"testing"

	"github.com/aretw0/octonote/pkg/core"
	"github.com/aretw0/octonote/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *core.Service
	repo  *MockRepository
	locks *lock.Manager
	users *MockUsers
}

func newFixture(t *testing.T, users ...string) fixture {
	t.Helper()
	f := fixture{
		repo:  NewMockRepository(),
		locks: lock.New(),
		users: &MockUsers{names: users},
	}
	f.svc = core.NewService(f.repo, f.locks, f.users, nil)
	return f
}

func TestService_CRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()

	id, err := f.svc.CreateNote(ctx, "Groceries", "milk\neggs", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	n, err := f.svc.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "milk\neggs", n.Content)
	assert.Equal(t, "alice", n.LastEditedBy)

	notes, err := f.svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)

	require.NoError(t, f.svc.DeleteNote(ctx, id))
	_, err = f.svc.GetNote(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_CreateNote_Validation(t *testing.T) {
	tests := []struct {
		name                  string
		title, content, user  string
		wantField, wantErrMsg string
	}{
		{"missing title", " ", "c", "u", "title", "Title is required"},
		{"missing content", "t", "", "u", "content", "Content is required"},
		{"missing user", "t", "c", "", "user", "User is required"},
		{"title before content", "", "", "", "title", "Title is required"},
		{"multi-line title", "a\nb", "c", "u", "title", "Title must be a single line"},
		{"user with delimiter", "t", "c", "bob on tour", "user", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateNote(context.TODO(), tt.title, tt.content, tt.user)

			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			if tt.wantErrMsg != "" {
				assert.Equal(t, tt.wantErrMsg, verr.Message)
			}
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestService_OpenNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()
	id, err := f.svc.CreateNote(ctx, "t", "c", "alice")
	require.NoError(t, err)

	n, err := f.svc.OpenNote(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "t", n.Title)
	assert.Equal(t, "alice", f.locks.Status(id).Holder)

	// Idempotent for the holder.
	_, err = f.svc.OpenNote(ctx, id, "alice")
	require.NoError(t, err)

	_, err = f.svc.OpenNote(ctx, id, "bob")
	var conflict *core.LockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "alice", conflict.Holder)

	require.NoError(t, f.svc.CloseNote(ctx, id, "alice"))
	_, err = f.svc.OpenNote(ctx, id, "bob")
	require.NoError(t, err)
}

func TestService_OpenNote_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()

	_, err := f.svc.OpenNote(ctx, "missing", "alice")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Zero(t, f.locks.Count())

	_, err = f.svc.OpenNote(ctx, "missing", "")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.OpenNote(ctx, "../etc/passwd", "alice")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)
}

func TestService_OpenNote_CorruptReleasesFreshLock(t *testing.T) {
	f := newFixture(t)
	f.repo.corrupt["bad"] = true

	_, err := f.svc.OpenNote(context.TODO(), "bad", "alice")
	require.ErrorIs(t, err, core.ErrCorruptRecord)
	assert.False(t, f.locks.Status("bad").Locked)
}

func TestService_SaveNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()
	id, err := f.svc.CreateNote(ctx, "t", "c", "alice")
	require.NoError(t, err)

	t.Run("unlocked note takes a transient lock", func(t *testing.T) {
		require.NoError(t, f.svc.SaveNote(ctx, id, "t2", "c2", "bob"))
		assert.False(t, f.locks.Status(id).Locked)

		n, err := f.svc.GetNote(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "bob", n.LastEditedBy)
		assert.Equal(t, "c2", n.Content)
	})

	t.Run("holder keeps the lock", func(t *testing.T) {
		_, err := f.svc.OpenNote(ctx, id, "alice")
		require.NoError(t, err)
		require.NoError(t, f.svc.SaveNote(ctx, id, "t3", "c3", "alice"))
		assert.Equal(t, "alice", f.locks.Status(id).Holder)
	})

	t.Run("other user is refused", func(t *testing.T) {
		err := f.svc.SaveNote(ctx, id, "t4", "c4", "bob")
		require.ErrorIs(t, err, core.ErrLockConflict)

		n, err := f.svc.GetNote(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "c3", n.Content)
	})

	t.Run("missing note", func(t *testing.T) {
		err := f.svc.SaveNote(ctx, "nope", "t", "c", "alice")
		require.ErrorIs(t, err, core.ErrNotFound)
		assert.False(t, f.locks.Status("nope").Locked)
	})
}

func TestService_CloseNote_Forbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()
	id, _ := f.svc.CreateNote(ctx, "t", "c", "alice")
	require.NoError(t, f.svc.LockNote(ctx, id, "alice"))

	err := f.svc.CloseNote(ctx, id, "bob")
	var forbidden *core.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, "alice", forbidden.Holder)

	st, err := f.svc.LockStatus(ctx, id)
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.Equal(t, "alice", st.Holder)
}

func TestService_LockNote_Missing(t *testing.T) {
	f := newFixture(t)
	err := f.svc.LockNote(context.TODO(), "missing", "alice")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_DeleteNote_Locked(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()
	id, _ := f.svc.CreateNote(ctx, "t", "c", "alice")
	_, err := f.svc.OpenNote(ctx, id, "alice")
	require.NoError(t, err)

	err = f.svc.DeleteNote(ctx, id)
	var conflict *core.LockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "alice", conflict.Holder)

	_, err = f.svc.GetNote(ctx, id)
	require.NoError(t, err, "note must survive a refused delete")

	require.NoError(t, f.svc.CloseNote(ctx, id, "alice"))
	require.NoError(t, f.svc.DeleteNote(ctx, id))
	assert.Zero(t, f.locks.Count())
}

func TestService_ListNotes_Corrupt(t *testing.T) {
	f := newFixture(t)
	f.repo.corrupt["bad"] = true

	_, err := f.svc.ListNotes(context.TODO())
	assert.ErrorIs(t, err, core.ErrCorruptRecord)
}

func TestService_CountByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()
	for _, u := range []string{"alice", "alice", "bob"} {
		_, err := f.svc.CreateNote(ctx, "t", "c", u)
		require.NoError(t, err)
	}

	n, err := f.svc.CountByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.CountByUser(ctx, "carol")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_Users(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()

	require.NoError(t, f.svc.CreateUser(ctx, "alice"))

	err := f.svc.CreateUser(ctx, "alice")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "User already exists", verr.Message)

	assert.ErrorIs(t, f.svc.CreateUser(ctx, "@system"), core.ErrValidation)
	assert.ErrorIs(t, f.svc.CreateUser(ctx, "  "), core.ErrValidation)

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, users)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, "bob"), core.ErrNotFound)
	require.NoError(t, f.svc.DeleteUser(ctx, "alice"))
}

func TestService_DeleteUser_OwnsNotes(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.TODO()
	_, err := f.svc.CreateNote(ctx, "t", "c", "alice")
	require.NoError(t, err)

	err = f.svc.DeleteUser(ctx, "alice")
	require.ErrorIs(t, err, core.ErrForbidden)

	ok, _ := f.users.Exists(ctx, "alice")
	assert.True(t, ok)
}

func TestService_State(t *testing.T) {
	f := newFixture(t)
	ctx := context.TODO()
	id, _ := f.svc.CreateNote(ctx, "t", "c", "alice")
	require.NoError(t, f.svc.LockNote(ctx, id, "alice"))

	st, ok := f.svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, 1, st.ActiveLocks)
	assert.Equal(t, "lock_manager", st.LockerType)
	assert.Equal(t, "repository", st.RepositoryType)

	comps := f.svc.Components()
	assert.Contains(t, comps, "service")
	assert.Contains(t, comps, "lock_manager")
}

func TestService_ReservedHolderNamesRejected(t *testing.T) {
	f := newFixture(t, "alice", "carol")
	ctx := context.TODO()
	f.repo.put(core.Note{ID: "a1", Title: "t", Content: "c", LastEditedBy: "alice"})

	holder := core.ReservedHolderPrefix + "transfer:alice"
	require.NoError(t, f.locks.ReserveAll([]string{"a1"}, holder))

	calls := map[string]func() error{
		"open":  func() error { _, err := f.svc.OpenNote(ctx, "a1", holder); return err },
		"save":  func() error { return f.svc.SaveNote(ctx, "a1", "t", "hijack", holder) },
		"close": func() error { return f.svc.CloseNote(ctx, "a1", holder) },
		"lock":  func() error { return f.svc.LockNote(ctx, "a1", holder) },
		"create": func() error {
			_, err := f.svc.CreateNote(ctx, "t", "c", core.ReservedHolderPrefix+"delete")
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			var verr *core.ValidationError
			require.True(t, core.As(err, &verr), "got %v", err)
			assert.Equal(t, "user", verr.Field)
		})
	}

	st, err := f.svc.LockStatus(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.Equal(t, holder, st.Holder)

	n, err := f.svc.GetNote(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "c", n.Content)

	_, err = f.svc.OpenNote(ctx, "a1", "carol")
	assert.ErrorIs(t, err, core.ErrLockConflict)
}
