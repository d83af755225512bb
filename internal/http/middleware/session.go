// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the session gate. Protected routes require a valid
// bearer token; the middleware resolves it to a user id and stores that id in
// the Gin context under "userID", where the rest of the chain (rate limiter
// keys, access logs, handlers) already expects it.
//
// Auth-exempt routes (webhook relay, /auth/*, health, metrics) are simply not
// wrapped with this middleware; there is no path allowlist here.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxKeyUserID is the Gin context key carrying the authenticated user id.
const ctxKeyUserID = "userID"

// SessionParser resolves a bearer token to a user id. Implementations return
// an error for missing, malformed, expired, or tampered tokens.
type SessionParser func(token string) (userID string, err error)

// UserIDFrom returns the authenticated user id stored by Session, or "" when
// the request is unauthenticated.
func UserIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Session returns a middleware that enforces bearer-token authentication.
//
// The token is read from "Authorization: Bearer <token>". Missing or invalid
// credentials abort the request with a 401 JSON envelope; on success the user
// id is stashed in the context and the chain continues.
func Session(parse SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "missing bearer token")
			return
		}
		uid, err := parse(token)
		if err != nil || uid == "" {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value. The
// scheme comparison is case-insensitive per RFC 7235.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
