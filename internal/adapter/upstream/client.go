// Package upstream talks to the remote event REST API. It offers a verbatim
// forwarder for the pass-through proxy and typed calls for the portal.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	domain "event-portal-service/internal/domain/portal"
	pkgerrors "event-portal-service/pkg/errors"
)

// maxResponseBytes bounds how much of an upstream answer is read into memory.
const maxResponseBytes = 10 << 20

// Config holds the upstream connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is an HTTP client bound to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient normalises the base URL and builds a client with the configured timeout.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	base, err := NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// BaseURL returns the normalised API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a bearer token. No Authorization header is sent.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var result domain.LoginResult
	if _, err := c.do(ctx, http.MethodPost, "/login", "", creds, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, pkgerrors.NewUpstreamError(http.StatusOK, "login response carried no token", nil)
	}
	return &result, nil
}

// ListUsers fetches every user.
func (c *Client) ListUsers(ctx context.Context, token string) ([]domain.User, error) {
	users := make([]domain.User, 0)
	if _, err := c.do(ctx, http.MethodGet, "/users", token, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = make([]domain.User, 0)
	}
	return users, nil
}

// GetUser fetches one user by id.
func (c *Client) GetUser(ctx context.Context, token, id string) (*domain.User, error) {
	var u domain.User
	ok, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), token, nil, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user", "user not found")
	}
	return &u, nil
}

// CreateUser creates a user. When the API answers with an empty body the
// submitted record is returned.
func (c *Client) CreateUser(ctx context.Context, token string, u domain.User) (*domain.User, error) {
	var created domain.User
	ok, err := c.do(ctx, http.MethodPost, "/users", token, u, &created)
	if err != nil {
		return nil, err
	}
	if !ok {
		created = u
	}
	return &created, nil
}

// ListEvents fetches every event in API order.
func (c *Client) ListEvents(ctx context.Context, token string) ([]domain.Event, error) {
	events := make([]domain.Event, 0)
	if _, err := c.do(ctx, http.MethodGet, "/events", token, nil, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = make([]domain.Event, 0)
	}
	return events, nil
}

// GetEvent fetches one event by id.
func (c *Client) GetEvent(ctx context.Context, token, id string) (*domain.Event, error) {
	var e domain.Event
	ok, err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), token, nil, &e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.NewNotFoundError("event", "event not found")
	}
	return &e, nil
}

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, token string, e domain.Event) (*domain.Event, error) {
	var created domain.Event
	ok, err := c.do(ctx, http.MethodPost, "/events", token, e, &created)
	if err != nil {
		return nil, err
	}
	if !ok {
		created = e
	}
	return &created, nil
}

// UpdateEvent replaces an event.
func (c *Client) UpdateEvent(ctx context.Context, token, id string, e domain.Event) (*domain.Event, error) {
	var updated domain.Event
	ok, err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(id), token, e, &updated)
	if err != nil {
		return nil, err
	}
	if !ok {
		updated = e
	}
	return &updated, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), token, nil, nil)
	return err
}

// ListRegistrations fetches registrations, narrowed to one user when userID is set.
func (c *Client) ListRegistrations(ctx context.Context, token, userID string) ([]domain.Registration, error) {
	path := "/registrations"
	if userID != "" {
		path += "?userId=" + url.QueryEscape(userID)
	}
	regs := make([]domain.Registration, 0)
	if _, err := c.do(ctx, http.MethodGet, path, token, nil, &regs); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = make([]domain.Registration, 0)
	}
	return regs, nil
}

// CreateRegistration registers a user for an event.
func (c *Client) CreateRegistration(ctx context.Context, token string, r domain.Registration) (*domain.Registration, error) {
	var created domain.Registration
	ok, err := c.do(ctx, http.MethodPost, "/registrations", token, r, &created)
	if err != nil {
		return nil, err
	}
	if !ok {
		created = r
	}
	return &created, nil
}

// errorPayload is the shape the API uses for failures.
type errorPayload struct {
	Message string `json:"message"`
}

// do performs one JSON round trip. It reports whether a response body was
// decoded into out. Non-2xx answers become *errors.UpstreamError.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) (bool, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return false, pkgerrors.NewInternalError("failed to encode request", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, pkgerrors.NewInternalError("failed to build request", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return false, pkgerrors.NewUpstreamError(0, "could not reach the event API", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, pkgerrors.NewUpstreamError(resp.StatusCode, "failed to read API response", err)
	}
	raw = bytes.TrimSpace(raw)

	c.log.Debug("upstream request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, statusError(resp.StatusCode, raw)
	}

	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || out == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, pkgerrors.NewUpstreamError(resp.StatusCode, "invalid response from the event API", err)
	}
	return true, nil
}

// statusError builds the error for a non-2xx answer, preferring the API's own message.
func statusError(status int, raw []byte) error {
	var payload errorPayload
	if len(raw) > 0 && json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		return pkgerrors.NewUpstreamError(status, payload.Message, nil)
	}
	return pkgerrors.NewUpstreamError(status, fmt.Sprintf("request failed with status %d", status), nil)
}
