package portalapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/honeycarbs/career-compass/pkg/logging"
)

// TokenSource yields the bearer token for the next request. A blank token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

func (t StaticToken) Token() string {
	return string(t)
}

// Config defines portal API client settings
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout is the whole-request deadline, redirects and body included
	Timeout time.Duration
	// MaxRedirects < 0 disables following redirects
	MaxRedirects int
	// MaxRetries applies to idempotent requests that failed with a network
	// error or a gateway status; 0 means every failure is final
	MaxRetries int
	RetryBase  time.Duration
	UserAgent  string
	Tokens     TokenSource
	Logger     *logging.Logger
}

// Client talks to the portal's /api/v1 REST backend
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	maxRedirects int
	maxRetries   int
	retryBase    time.Duration
	userAgent    string
	tokens       TokenSource
	logger       *logging.Logger
}

// Page is the skip/limit pair list endpoints accept
type Page struct {
	Skip  int
	Limit int
}

// Credentials for the OAuth2 password form
type Credentials struct {
	Username string
	Password string
}

// Registration is the sign-up payload
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// ListOptions are the optional filters shared by career list endpoints
type ListOptions struct {
	SortBy string
}
