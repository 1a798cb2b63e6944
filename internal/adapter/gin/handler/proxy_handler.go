package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"event-portal-service/internal/adapter/upstream"
	"event-portal-service/pkg/logger"
)

// maxProxyBodyBytes bounds incoming proxy bodies.
const maxProxyBodyBytes = 1 << 20

var (
	errInvalidJSONBody = errors.New("request body must be valid JSON")
	errBodyTooLarge    = errors.New("request body is too large")
)

// Forwarder relays a request to the remote API unchanged.
type Forwarder interface {
	Forward(ctx context.Context, req upstream.ForwardRequest) (*upstream.ForwardResponse, error)
}

// ProxyHandler serves the /api pass-through routes.
type ProxyHandler struct {
	fwd Forwarder
	log *zap.Logger
}

// NewProxyHandler creates a new ProxyHandler instance
func NewProxyHandler(fwd Forwarder, log *zap.Logger) *ProxyHandler {
	return &ProxyHandler{fwd: fwd, log: log}
}

// proxyError is the only body the proxy produces itself.
type proxyError struct {
	Message string `json:"message"`
}

// Login handles POST /api/login. The Authorization header is never forwarded.
func (h *ProxyHandler) Login(c *gin.Context) {
	h.forward(c, "/login", "", false, "failed to sign in")
}

// Users handles GET and POST /api/users
func (h *ProxyHandler) Users(c *gin.Context) {
	msg := "failed to load users"
	if c.Request.Method == http.MethodPost {
		msg = "failed to create user"
	}
	h.forward(c, "/users", "", true, msg)
}

// Event handles GET, PUT and DELETE /api/events/:id
func (h *ProxyHandler) Event(c *gin.Context) {
	msg := "failed to load event"
	switch c.Request.Method {
	case http.MethodPut:
		msg = "failed to update event"
	case http.MethodDelete:
		msg = "failed to delete event"
	}
	h.forward(c, "/events/"+url.PathEscape(c.Param("id")), "", true, msg)
}

// Registrations handles GET (optional ?userId=) and POST /api/registrations
func (h *ProxyHandler) Registrations(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		h.forward(c, "/registrations", "", true, "failed to create registration")
		return
	}
	query := ""
	if userID := c.Query("userId"); userID != "" {
		query = "userId=" + url.QueryEscape(userID)
	}
	h.forward(c, "/registrations", query, true, "failed to load registrations")
}

func (h *ProxyHandler) forward(c *gin.Context, path, rawQuery string, withAuth bool, failure string) {
	log := logger.WithContext(c.Request.Context(), h.log)

	req := upstream.ForwardRequest{
		Method:   c.Request.Method,
		Path:     path,
		RawQuery: rawQuery,
	}
	if withAuth {
		req.Authorization = c.GetHeader("Authorization")
	}

	if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
		body, err := readJSONBody(c.Request.Body)
		if err != nil {
			log.Warn("proxy rejected request body", zap.String("path", path), zap.Error(err))
			c.JSON(http.StatusInternalServerError, proxyError{Message: err.Error()})
			return
		}
		req.Body = body
	}

	resp, err := h.fwd.Forward(c.Request.Context(), req)
	if err != nil {
		log.Error("proxy forward failed", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, proxyError{Message: failure})
		return
	}

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotModified:
		c.Status(resp.StatusCode)
	case resp.Body == nil:
		c.Data(resp.StatusCode, "application/json", []byte("null"))
	default:
		c.Data(resp.StatusCode, "application/json", resp.Body)
	}
}

// readJSONBody reads a request body and checks that it is one JSON value.
func readJSONBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, errInvalidJSONBody
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxProxyBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxProxyBodyBytes {
		return nil, errBodyTooLarge
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, errInvalidJSONBody
	}
	return raw, nil
}
