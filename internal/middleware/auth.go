package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vaultshare/internal/pkg/jwt"
	"vaultshare/internal/pkg/response"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's id and email in the gin context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		tok, err := jwt.BearerToken(header)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}
		claims, err := jwtService.ValidateToken(tok)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present
// and otherwise lets the request through anonymously. A malformed or expired
// token is treated as anonymous, never as an error, so public share links
// keep working for visitors with stale sessions.
func OptionalAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := jwt.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			if claims, err := jwtService.ValidateToken(tok); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextEmail, claims.Email)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated caller, or 0 when anonymous.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}
