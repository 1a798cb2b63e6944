package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ErrNonJSONResponse is returned by Forward when the API answers with a body
// that is not JSON.
var ErrNonJSONResponse = errors.New("upstream returned a non-JSON body")

// ForwardRequest is an incoming proxy call, passed through untouched.
type ForwardRequest struct {
	Method        string
	Path          string // resource path, e.g. /events/E001
	RawQuery      string
	Authorization string // relayed verbatim when non-empty
	Body          []byte // JSON; nil for bodiless methods
}

// ForwardResponse is the upstream answer to relay. Body is nil when the API
// sent no content.
type ForwardResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// Forward relays req to the API and returns its status and JSON body as-is.
// Any status is a successful forward; only transport failures and non-JSON
// bodies are errors.
func (c *Client) Forward(ctx context.Context, req ForwardRequest) (*ForwardResponse, error) {
	target := c.baseURL + req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("proxy forward failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("forward %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	out := &ForwardResponse{StatusCode: resp.StatusCode}
	if len(raw) == 0 {
		return out, nil
	}
	if !json.Valid(raw) {
		c.log.Warn("proxy received non-JSON body",
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, ErrNonJSONResponse
	}
	out.Body = raw
	return out, nil
}
