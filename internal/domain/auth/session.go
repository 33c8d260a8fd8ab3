// Package auth keeps the signed-in state: the bearer token every request
// carries and the cached profile of its owner.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/storage/kv"
	"github.com/honeycarbs/career-compass/pkg/logging"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

const (
	// DefaultTokenKey is where the bearer token is persisted
	DefaultTokenKey = "auth_token"
	// ProfileKey is where the cached user profile is persisted
	ProfileKey = "user_profile"
)

// ErrNoToken is returned by operations that need a signed-in session
var ErrNoToken = errors.New("auth: not logged in")

// Session holds the bearer token and cached profile. It is the token source
// of the portal client. Safe for concurrent use.
type Session struct {
	store    kv.Store
	tokenKey string
	logger   *logging.Logger
	clock    func() time.Time

	// write serializes store writes with the in-memory state they mirror
	write sync.Mutex
	mu    sync.RWMutex
	token string
	user  *domain.UserInfo
}

// Option configures Session
type Option func(*Session)

// WithTokenKey overrides the key the token is stored under
func WithTokenKey(key string) Option {
	return func(s *Session) {
		if key = strings.TrimSpace(key); key != "" {
			s.tokenKey = key
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

var _ portalapi.TokenSource = (*Session)(nil)

// NewSession loads any persisted token and profile from store
func NewSession(ctx context.Context, store kv.Store, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("auth.Session: store is required")
	}
	s := &Session{
		store:    store,
		tokenKey: DefaultTokenKey,
		logger:   logging.NewNop(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("auth")

	raw, err := store.Get(ctx, s.tokenKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("auth: load token: %w", err)
	default:
		s.token = strings.TrimSpace(string(raw))
	}

	var user domain.UserInfo
	err = kv.GetJSON(ctx, store, ProfileKey, &user)
	switch {
	case err == nil:
		s.user = &user
	case !errors.Is(err, kv.ErrNotFound):
		s.logger.Warn("ignoring unreadable cached profile", "err", err)
	}

	return s, nil
}

// Token returns the current bearer token, or "" when signed out. A JWT whose
// exp has passed is dropped and reported as signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" || !s.expired(token) {
		return token
	}

	cleared, err := s.clearIf(context.Background(), func(current string) bool { return current == token })
	if err != nil {
		s.logger.Warn("failed to clear expired token", "err", err)
	}
	if !cleared {
		// replaced while we checked it
		return s.Token()
	}
	s.logger.Info("stored token has expired")
	return ""
}

// expired reads exp without verifying the signature; the backend remains
// the authority, this only avoids sending a token known to be dead. Opaque
// tokens never expire here.
func (s *Session) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.clock().Before(claims.ExpiresAt.Time)
}

// LoggedIn reports whether a usable token is held
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// SetToken stores token; blank tokens are rejected rather than stored
func (s *Session) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("auth: refusing to store an empty token")
	}
	s.write.Lock()
	defer s.write.Unlock()
	if err := s.store.Set(ctx, s.tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("auth: save token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// User returns the cached profile
func (s *Session) User() (domain.UserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.UserInfo{}, false
	}
	return *s.user, true
}

// SetUser caches the profile in memory and in the store
func (s *Session) SetUser(ctx context.Context, user domain.UserInfo) error {
	s.write.Lock()
	defer s.write.Unlock()
	if err := kv.SetJSON(ctx, s.store, ProfileKey, user); err != nil {
		return fmt.Errorf("auth: save profile: %w", err)
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Clear drops the token and the cached profile
func (s *Session) Clear(ctx context.Context) error {
	_, err := s.clearIf(ctx, func(string) bool { return true })
	return err
}

// clearIf drops the session only when match accepts the token held at that
// moment, and reports whether it did
func (s *Session) clearIf(ctx context.Context, match func(current string) bool) (bool, error) {
	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	if !match(s.token) {
		s.mu.Unlock()
		return false, nil
	}
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	return true, errors.Join(
		s.store.Delete(ctx, s.tokenKey),
		s.store.Delete(ctx, ProfileKey),
	)
}

// HandleUnauthorized tears the session down when err is a 401 received while
// a token was held. It reports whether it did. Network failures, other
// statuses and anonymous 401s leave the session alone.
func (s *Session) HandleUnauthorized(ctx context.Context, err error) bool {
	if !portalapi.IsUnauthorized(err) {
		return false
	}
	cleared, clearErr := s.clearIf(ctx, func(current string) bool { return current != "" })
	if clearErr != nil {
		s.logger.Error("failed to clear session", "err", clearErr)
	}
	if cleared {
		s.logger.Warn("session rejected by backend, logged out")
	}
	return cleared
}
