package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/pkg/logging"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

// API is the auth slice of the portal backend
type API interface {
	Login(ctx context.Context, creds portalapi.Credentials) ([]byte, error)
	Register(ctx context.Context, reg portalapi.Registration) ([]byte, error)
	Me(ctx context.Context) ([]byte, error)
}

var _ API = (*portalapi.Client)(nil)

// Service signs users in and out against the backend
type Service struct {
	api     API
	session *Session
	logger  *logging.Logger
}

// NewService wires the backend and the session together
func NewService(api API, session *Session, logger *logging.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("auth.Service: api is required")
	}
	if session == nil {
		return nil, fmt.Errorf("auth.Service: session is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{api: api, session: session, logger: logger.Named("auth")}, nil
}

// Session exposes the underlying session
func (s *Service) Session() *Session {
	return s.session
}

// Login exchanges credentials for a token, stores it and loads the profile.
// A profile that cannot be loaded does not fail the login.
func (s *Service) Login(ctx context.Context, username, password string) (domain.UserInfo, error) {
	username = strings.TrimSpace(username)
	raw, err := s.api.Login(ctx, portalapi.Credentials{Username: username, Password: password})
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("auth: login: %w", err)
	}

	token := normalize.ExtractToken(raw)
	if token == "" {
		return domain.UserInfo{}, fmt.Errorf("auth: login response carried no token")
	}
	if err := s.session.SetToken(ctx, token); err != nil {
		return domain.UserInfo{}, err
	}
	s.logger.Info("logged in", "username", username)

	user, err := s.FetchUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return domain.UserInfo{}, err
		}
		s.logger.Warn("failed to load profile after login", "err", err)
		return domain.UserInfo{Username: username}, nil
	}
	return user, nil
}

// Register creates an account; it does not sign in
func (s *Service) Register(ctx context.Context, reg portalapi.Registration) (domain.UserInfo, error) {
	raw, err := s.api.Register(ctx, reg)
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("auth: register: %w", err)
	}
	user := domain.UserInfo{Username: reg.Username, Email: reg.Email}
	if obj, ok := normalize.ExtractUser(raw); ok {
		if err := json.Unmarshal(obj, &user); err != nil {
			s.logger.Warn("unreadable register response", "err", err)
		}
	}
	s.logger.Info("registered", "username", user.Username)
	return user, nil
}

// FetchUser loads the profile of the token's owner and caches it. A 401
// ends the session.
func (s *Service) FetchUser(ctx context.Context) (domain.UserInfo, error) {
	if !s.session.LoggedIn() {
		return domain.UserInfo{}, ErrNoToken
	}

	raw, err := s.api.Me(ctx)
	if err != nil {
		if s.session.HandleUnauthorized(ctx, err) {
			return domain.UserInfo{}, fmt.Errorf("auth: fetch user: %w: %w", ErrNoToken, err)
		}
		return domain.UserInfo{}, fmt.Errorf("auth: fetch user: %w", err)
	}

	obj, ok := normalize.ExtractUser(raw)
	if !ok {
		return domain.UserInfo{}, fmt.Errorf("auth: unexpected profile payload")
	}
	var user domain.UserInfo
	if err := json.Unmarshal(obj, &user); err != nil {
		return domain.UserInfo{}, fmt.Errorf("auth: decode profile: %w", err)
	}
	if err := s.session.SetUser(ctx, user); err != nil {
		s.logger.Warn("failed to cache profile", "err", err)
	}
	return user, nil
}

// Logout forgets the token and profile
func (s *Service) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}
