package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messageboard-backend/internal/shared/response"
	"messageboard-backend/pkg/jwt"
	"messageboard-backend/pkg/logger"
)

// Context keys set by the session guard.
const (
	CtxUserID       = "userID"
	CtxEmail        = "email"
	CtxTokenID      = "tokenID"
	CtxTokenExpires = "tokenExpiresAt"
)

// SessionChecker answers whether a token id has been terminated by logout.
type SessionChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionGuard verifies the active session on every protected request.
// Any failure - missing token, bad signature, expiry, revocation, or a
// failed revocation lookup - is treated identically to "no session":
// a 401 pointing at /login, no retries, and the protected handler never runs.
func SessionGuard(jwtManager *jwt.Manager, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing session token")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}

		revoked, err := sessions.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// The check itself failed; same as no session.
			logger.Warn("session revocation lookup failed", err)
			response.Unauthorized(c, "session check failed")
			c.Abort()
			return
		}
		if revoked {
			response.Unauthorized(c, "session has been terminated")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "invalid user ID in token")
			c.Abort()
			return
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxTokenID, claims.ID)
		c.Set(CtxTokenExpires, claims.ExpiresAt.Time)

		c.Next()
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the session cookie used by the browser client.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie("session")
	if err != nil {
		return ""
	}
	return cookie
}

// UserID returns the authenticated user id set by the guard.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// TokenID returns the session token id set by the guard.
func TokenID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxTokenID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// TokenExpiry returns the session token expiry set by the guard.
func TokenExpiry(c *gin.Context) (time.Time, bool) {
	v, ok := c.Get(CtxTokenExpires)
	if !ok {
		return time.Time{}, false
	}
	exp, ok := v.(time.Time)
	return exp, ok
}
