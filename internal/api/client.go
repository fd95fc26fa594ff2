// Package api is the HTTP client for the TypingFast REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/model"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 10 * time.Second

// RequestIDHeader carries a per-request id for log correlation.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 4 << 20

// Authorizer supplies the bearer token and is told when the backend rejects it.
type Authorizer interface {
	Token() string
	Expire(ctx context.Context)
}

// Client talks to the backend. A 401 on any call is reported to the
// Authorizer before the error is returned to the caller.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger

	mu   sync.RWMutex
	auth Authorizer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client for the API rooted at baseURL, e.g. "http://host/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseBaseURL validates an absolute http(s) base URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https: %q", raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("api base url has no host: %q", raw)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed, nil
}

// SetAuthorizer installs the token source and 401 handler. It is wired once
// at startup because the auth session itself needs the client.
func (c *Client) SetAuthorizer(a Authorizer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = a
}

func (c *Client) authorizer() Authorizer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login authenticates with username and password.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out)
	return out, err
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", nil, req, &out)
	return out, err
}

// Text fetches a practice text of the given number of words. Zero leaves the
// word count to the backend.
func (c *Client) Text(ctx context.Context, words int) (string, error) {
	if words < 0 {
		return "", fmt.Errorf("words must be >= 0")
	}
	query := url.Values{}
	if words > 0 {
		query.Set("words", strconv.Itoa(words))
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodGet, "/typing/text", query, nil, &out); err != nil {
		return "", err
	}
	if out.Text == "" {
		return "", fmt.Errorf("backend returned an empty text")
	}
	return out.Text, nil
}

// Submit sends a finished transcript for authoritative scoring.
func (c *Client) Submit(ctx context.Context, transcript model.Transcript) (model.SessionResult, error) {
	var out model.SessionResult
	err := c.do(ctx, http.MethodPost, "/typing/submit", nil, transcript, &out)
	return out, err
}

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodGet, "/dashboard/profile", nil, nil, &out)
	return out, err
}

// Stats fetches aggregate statistics.
func (c *Client) Stats(ctx context.Context) (model.UserStats, error) {
	var out model.UserStats
	err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, nil, &out)
	return out, err
}

// AllHistory fetches the complete history, newest first.
func (c *Client) AllHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	var out []model.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/dashboard/history/all", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches one page of history.
func (c *Client) History(ctx context.Context, page, size int) (model.HistoryPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	var out model.HistoryPage
	err := c.do(ctx, http.MethodGet, "/dashboard/history", query, nil, &out)
	return out, err
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth := c.authorizer()
	if auth != nil {
		if token := auth.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Debug("backend request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: errorMessage(data),
		}
		if resp.StatusCode == http.StatusUnauthorized && auth != nil {
			c.logger.Info("backend rejected credentials, expiring session",
				zap.String("request_id", requestID),
				zap.String("path", path),
			)
			auth.Expire(context.WithoutCancel(ctx))
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		if out != nil {
			return fmt.Errorf("decode %s response: %w", path, io.ErrUnexpectedEOF)
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
