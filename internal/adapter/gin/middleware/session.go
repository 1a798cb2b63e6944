package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "event-portal-service/internal/domain/portal"
	pkgerrors "event-portal-service/pkg/errors"
	"event-portal-service/pkg/logger"
)

// SessionHeader carries the portal session id issued by POST /v1/session.
const SessionHeader = "X-Session-ID"

const sessionKey = "portal.session"

// SessionResolver loads a live session by id.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// RequireSession rejects requests without a live session and stores the
// session on the gin context for handlers.
func RequireSession(resolver SessionResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := resolver.ResolveSession(c.Request.Context(), c.GetHeader(SessionHeader))
		if err != nil {
			status := pkgerrors.HTTPStatus(err)
			code := "unauthorized"
			message := err.Error()
			var internal *pkgerrors.InternalError
			if errors.As(err, &internal) {
				code = "internal_error"
				message = "An internal error occurred"
			}
			log.Warn("session rejected",
				zap.String("request_id", logger.GetRequestID(c.Request.Context())),
				zap.Int("status", status),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
			return
		}

		ctx := context.WithValue(c.Request.Context(), logger.SessionIDKey, s.ID)
		if s.UserID != "" {
			ctx = context.WithValue(ctx, logger.UserIDKey, s.UserID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(sessionKey, s)
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (*domain.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*domain.Session)
	return s, ok && s != nil
}
