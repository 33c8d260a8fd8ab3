package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/honeycarbs/career-compass/pkg/logging"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 10
	defaultRetryBase    = 200 * time.Millisecond
	defaultUserAgent    = "career-compass/0.1"

	// maxBodyBytes caps how much of a response is read into memory
	maxBodyBytes = 8 << 20

	headerRequestID = "X-Request-ID"
)

// NewClient instantiates a portal API client
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("portalapi: base url is required")
	}
	base, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("portalapi: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("portalapi: base url must be http or https, got %q", cfg.BaseURL)
	}
	// endpoints carry the /api/v1 prefix themselves
	base.Path = strings.TrimSuffix(base.Path, APIPrefix)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxRedirects := cfg.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = defaultMaxRedirects
	}

	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Client{
		baseURL:      base,
		maxRedirects: maxRedirects,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBase:    retryBase,
		userAgent:    userAgent,
		tokens:       cfg.Tokens,
		logger:       logger.Named("portalapi"),
	}

	// copy so the redirect policy never leaks into a shared client
	httpClient := http.Client{}
	if cfg.HTTPClient != nil {
		httpClient = *cfg.HTTPClient
	}
	httpClient.Timeout = timeout
	httpClient.CheckRedirect = c.checkRedirect
	c.httpClient = &httpClient

	return c, nil
}

// BaseURL returns the API root requests are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// checkRedirect bounds redirect chains and keeps the bearer token on the
// original host
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if c.maxRedirects < 0 {
		return http.ErrUseLastResponse
	}
	if len(via) >= c.maxRedirects {
		return fmt.Errorf("stopped after %d redirects", c.maxRedirects)
	}
	if origin := via[0].URL; !strings.EqualFold(req.URL.Host, origin.Host) {
		req.Header.Del("Authorization")
	}
	c.logger.Debug("following redirect", "from", via[len(via)-1].URL.Path, "to", req.URL.String())
	return nil
}

// request describes one logical API call
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return false
}

// do executes r, retrying idempotent requests when configured, and returns
// the raw response body of a 2xx answer
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("portalapi: client is nil")
	}
	if c.maxRetries == 0 || !idempotent(r.method) {
		return c.once(ctx, r)
	}

	backoff := retry.NewExponential(c.retryBase)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(uint64(c.maxRetries), backoff)

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		body, err = c.once(ctx, r)
		if err != nil && IsRetryable(err) {
			c.logger.Warn("retrying request", "method", r.method, "path", r.path, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
	return body, err
}

func (c *Client) once(ctx context.Context, r request) ([]byte, error) {
	u := c.resolve(r.path, r.query)

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("portalapi: build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerRequestID, requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("portalapi: %s %s: %w", r.method, r.path, ctxErr)
		}
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ErrorMessage(raw)
		if msg == "" {
			msg = DefaultMessage(resp.StatusCode)
		}
		return nil, &StatusError{
			Method:  r.method,
			Path:    r.path,
			Status:  resp.StatusCode,
			Message: msg,
			Body:    raw,
		}
	}

	return raw, nil
}

// resolve joins p onto the base path, keeping a trailing slash when p has
// one; the backend routes "/careers/" and "/careers" differently
func (c *Client) resolve(p string, query url.Values) string {
	u := *c.baseURL
	joined := path.Join("/", u.Path, p)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	u.Path = joined
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, p string, query url.Values) ([]byte, error) {
	return c.do(ctx, request{method: http.MethodGet, path: p, query: query})
}

func (c *Client) sendJSON(ctx context.Context, method, p string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("portalapi: encode body: %w", err)
		}
	}
	return c.do(ctx, request{method: method, path: p, body: body, contentType: "application/json"})
}

// PostJSON sends payload as a JSON body
func (c *Client) PostJSON(ctx context.Context, p string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPost, p, payload)
}

// PutJSON sends payload as a JSON body
func (c *Client) PutJSON(ctx context.Context, p string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPut, p, payload)
}

// PatchJSON sends payload as a JSON body
func (c *Client) PatchJSON(ctx context.Context, p string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPatch, p, payload)
}

// PostForm sends values form-encoded
func (c *Client) PostForm(ctx context.Context, p string, values url.Values) ([]byte, error) {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        p,
		body:        []byte(values.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
}

// Get fetches p with the given query
func (c *Client) Get(ctx context.Context, p string, query url.Values) ([]byte, error) {
	return c.get(ctx, p, query)
}

// Delete issues a DELETE for p
func (c *Client) Delete(ctx context.Context, p string) ([]byte, error) {
	return c.do(ctx, request{method: http.MethodDelete, path: p})
}

// ErrNoFavoritesPath is returned when every favorites route failed
var ErrNoFavoritesPath = errors.New("portalapi: no favorites endpoint answered")
