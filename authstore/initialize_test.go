package authstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/lingo-session/authstore"
	"github.com/jrsteele09/lingo-session/backend/fakebackend"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/securestore"
	"github.com/jrsteele09/lingo-session/sessions"
	"github.com/jrsteele09/lingo-session/users"
)

func TestInitialize_NoSession(t *testing.T) {
	f := newFixture(t)
	store := f.newStore(t)
	require.False(t, store.State().IsInitialized)

	require.NoError(t, store.Initialize(context.Background()))

	state := store.State()
	require.True(t, state.IsInitialized)
	require.False(t, state.IsLoading)
	require.False(t, store.IsAuthenticated())
	requireBothOrNeither(t, state)
}

func TestInitialize_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.backend.SetCurrent(&sessions.AuthUser{ID: testUserID, Email: testEmail}, f.backend.NewSession())
	store := f.newStore(t)

	require.NoError(t, store.Initialize(context.Background()))
	once := store.State()
	require.NoError(t, store.Initialize(context.Background()))

	require.Equal(t, once, store.State())
	require.Equal(t, 1, f.backend.Calls(fakebackend.OpGetSession))
	require.Equal(t, 1, f.backend.Subscribers())
}

func TestInitialize_RestoresSession(t *testing.T) {
	f := newFixture(t)
	session := f.backend.NewSession()
	f.backend.SetCurrent(&sessions.AuthUser{ID: testUserID, Email: testEmail, Role: "admin-from-nowhere"}, session)
	f.profiles.SetDefault(profileWithRole(users.RoleModerator))
	store := f.newStore(t)

	require.NoError(t, store.Initialize(context.Background()))

	state := store.State()
	require.True(t, state.IsInitialized)
	require.True(t, store.IsAuthenticated())
	require.Equal(t, session.AccessToken, state.Session.AccessToken)
	require.True(t, store.HasRole(users.RoleModerator), "role comes from the profile endpoint")
	require.NotZero(t, store.TimeoutRemaining(), "non-remembered restored sessions are timed")
}

func TestInitialize_Failure(t *testing.T) {
	f := newFixture(t)
	f.backend.SetError(fakebackend.OpGetSession, autherrors.ErrBackendUnavailable)
	store := f.newStore(t)

	err := store.Initialize(context.Background())
	require.ErrorIs(t, err, autherrors.ErrBackendUnavailable)

	state := store.State()
	require.True(t, state.IsInitialized, "callers are never left waiting")
	require.False(t, state.IsLoading)
	require.Equal(t, autherrors.GenericMessage, state.Error)
	require.False(t, store.IsAuthenticated())

	require.NoError(t, store.Initialize(context.Background()))
	require.Equal(t, 1, f.backend.Calls(fakebackend.OpGetSession))
}

func TestInitialize_RememberedRecordIsOnlyAHint(t *testing.T) {
	f := newFixture(t)
	first := f.initializedStore(t)
	require.NoError(t, first.SignIn(context.Background(), testEmail, testPassword, true))
	first.Close()

	restarted := fakebackend.New()
	store, err := authstore.New(restarted,
		authstore.WithProfileFetcher(f.profiles),
		authstore.WithPersister(f.records),
	)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Initialize(context.Background()))

	state := store.State()
	require.False(t, store.IsAuthenticated())
	require.Nil(t, state.User, "a persisted identity never stands in for a session")
	requireBothOrNeither(t, state)
	require.False(t, store.HasRole(users.RoleAdmin))

	hint := store.RememberedUser()
	require.NotNil(t, hint)
	require.Equal(t, testEmail, hint.Email)
	require.NotNil(t, f.persistedRaw(t), "the hint survives a restart without a session")
}

func TestInitialize_RememberedSessionIsNotTimed(t *testing.T) {
	f := newFixture(t)
	first := f.initializedStore(t)
	require.NoError(t, first.SignIn(context.Background(), testEmail, testPassword, true))
	first.Close()

	store := f.newStore(t)
	require.NoError(t, store.Initialize(context.Background()))

	state := store.State()
	require.True(t, store.IsAuthenticated())
	require.True(t, state.RememberMe)
	require.Zero(t, store.TimeoutRemaining())
}

func TestInitialize_CorruptRecord(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.storage.Set(testNamespace, securestore.AuthRecordKey, []byte("not an envelope")))
	store := f.newStore(t)

	require.NoError(t, store.Initialize(context.Background()))
	require.True(t, store.State().IsInitialized)
	require.Nil(t, store.RememberedUser())
	require.Nil(t, f.storage.Raw(testNamespace, securestore.AuthRecordKey), "corrupt records are discarded")
}
