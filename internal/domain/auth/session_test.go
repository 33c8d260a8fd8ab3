package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/storage/kv"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

type fakeAPI struct {
	login    []byte
	loginErr error
	me       []byte
	meErr    error
	register []byte

	gotCreds portalapi.Credentials
}

func (f *fakeAPI) Login(_ context.Context, creds portalapi.Credentials) ([]byte, error) {
	f.gotCreds = creds
	return f.login, f.loginErr
}

func (f *fakeAPI) Register(_ context.Context, _ portalapi.Registration) ([]byte, error) {
	return f.register, nil
}

func (f *fakeAPI) Me(_ context.Context) ([]byte, error) {
	return f.me, f.meErr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newSession(t *testing.T, store kv.Store, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), store, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSession_LoadsPersistedState(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "token", []byte(" opaque ")))
	require.NoError(t, kv.SetJSON(ctx, store, ProfileKey, domain.UserInfo{ID: "1", Username: "alice"}))

	s := newSession(t, store, WithTokenKey("token"))
	assert.Equal(t, "opaque", s.Token())
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)
}

func TestNewSession_RequiresStore(t *testing.T) {
	_, err := NewSession(context.Background(), nil)
	assert.Error(t, err)
}

func TestSetToken_RejectsBlank(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s := newSession(t, store)

	assert.Error(t, s.SetToken(ctx, "   "))
	_, err := store.Get(ctx, DefaultTokenKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
	assert.False(t, s.LoggedIn())
}

func TestToken_ExpiredJWTIsCleared(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := kv.NewMemoryStore()
	s := newSession(t, store, WithClock(func() time.Time { return now }))

	live := signedToken(t, now.Add(time.Hour))
	require.NoError(t, s.SetToken(ctx, live))
	assert.Equal(t, live, s.Token())

	require.NoError(t, s.SetToken(ctx, signedToken(t, now.Add(-time.Second))))
	assert.Equal(t, "", s.Token())
	_, err := store.Get(ctx, DefaultTokenKey)
	assert.ErrorIs(t, err, kv.ErrNotFound, "expired token is removed from the store")
}

func TestToken_ExpiryKeepsTokenStoredMeanwhile(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stale := signedToken(t, now.Add(-time.Minute))
	fresh := signedToken(t, now.Add(time.Hour))
	store := kv.NewMemoryStore()

	var (
		s    *Session
		once sync.Once
	)
	// a login lands while the stale token is being checked
	s = newSession(t, store, WithClock(func() time.Time {
		once.Do(func() { require.NoError(t, s.SetToken(ctx, fresh)) })
		return now
	}))
	require.NoError(t, s.SetToken(ctx, stale))

	assert.Equal(t, fresh, s.Token())
	raw, err := store.Get(ctx, DefaultTokenKey)
	require.NoError(t, err)
	assert.Equal(t, fresh, string(raw))
}

func TestHandleUnauthorized(t *testing.T) {
	ctx := context.Background()
	unauthorized := &portalapi.StatusError{Status: http.StatusUnauthorized}

	t.Run("401 with token tears down", func(t *testing.T) {
		s := newSession(t, kv.NewMemoryStore())
		require.NoError(t, s.SetToken(ctx, "tok"))
		require.NoError(t, s.SetUser(ctx, domain.UserInfo{Username: "alice"}))

		assert.True(t, s.HandleUnauthorized(ctx, unauthorized))
		assert.False(t, s.LoggedIn())
		_, ok := s.User()
		assert.False(t, ok)
	})

	t.Run("401 without token is ignored", func(t *testing.T) {
		s := newSession(t, kv.NewMemoryStore())
		assert.False(t, s.HandleUnauthorized(ctx, unauthorized))
	})

	t.Run("other failures keep the session", func(t *testing.T) {
		s := newSession(t, kv.NewMemoryStore())
		require.NoError(t, s.SetToken(ctx, "tok"))

		for _, err := range []error{
			&portalapi.StatusError{Status: http.StatusForbidden},
			&portalapi.StatusError{Status: http.StatusServiceUnavailable},
			&portalapi.NetworkError{Err: errors.New("connection refused")},
			nil,
		} {
			assert.False(t, s.HandleUnauthorized(ctx, err))
		}
		assert.True(t, s.LoggedIn())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s := newSession(t, store)
	api := &fakeAPI{
		login: []byte(`{"access_token":"tok-1","token_type":"bearer"}`),
		me:    []byte(`{"id":7,"username":"alice","email":"a@example.com"}`),
	}
	svc, err := NewService(api, s, nil)
	require.NoError(t, err)

	user, err := svc.Login(ctx, " alice ", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("7"), user.ID)
	assert.Equal(t, "alice", api.gotCreds.Username)
	assert.Equal(t, "tok-1", s.Token())

	var cached domain.UserInfo
	require.NoError(t, kv.GetJSON(ctx, store, ProfileKey, &cached))
	assert.Equal(t, "a@example.com", cached.Email)

	require.NoError(t, svc.Logout(ctx))
	assert.False(t, s.LoggedIn())
	_, err = store.Get(ctx, ProfileKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestLogin_WrappedToken(t *testing.T) {
	s := newSession(t, kv.NewMemoryStore())
	api := &fakeAPI{
		login: []byte(`{"data":{"token":"tok-2"}}`),
		me:    []byte(`{"data":{"id":1,"username":"bob"}}`),
	}
	svc, err := NewService(api, s, nil)
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.Equal(t, "tok-2", s.Token())
}

func TestLogin_NoTokenInResponse(t *testing.T) {
	s := newSession(t, kv.NewMemoryStore())
	svc, err := NewService(&fakeAPI{login: []byte(`{"message":"ok"}`)}, s, nil)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "pw")
	assert.Error(t, err)
	assert.False(t, s.LoggedIn())
}

func TestLogin_ProfileFailureKeepsSession(t *testing.T) {
	s := newSession(t, kv.NewMemoryStore())
	api := &fakeAPI{
		login: []byte(`{"access_token":"tok"}`),
		meErr: &portalapi.StatusError{Status: http.StatusInternalServerError},
	}
	svc, err := NewService(api, s, nil)
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, s.LoggedIn())
}

func TestFetchUser(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, kv.NewMemoryStore())
	api := &fakeAPI{meErr: &portalapi.StatusError{Status: http.StatusUnauthorized}}
	svc, err := NewService(api, s, nil)
	require.NoError(t, err)

	_, err = svc.FetchUser(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.SetToken(ctx, "revoked"))
	_, err = svc.FetchUser(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
	assert.True(t, portalapi.IsUnauthorized(err))
	assert.False(t, s.LoggedIn(), "a rejected token ends the session")
}

func TestRegister(t *testing.T) {
	s := newSession(t, kv.NewMemoryStore())
	api := &fakeAPI{register: []byte(`{"id":3,"username":"carol","email":"c@example.com"}`)}
	svc, err := NewService(api, s, nil)
	require.NoError(t, err)

	user, err := svc.Register(context.Background(), portalapi.Registration{Username: "carol", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.ID("3"), user.ID)
	assert.Equal(t, "c@example.com", user.Email)
	assert.False(t, s.LoggedIn(), "registering does not sign in")
}
