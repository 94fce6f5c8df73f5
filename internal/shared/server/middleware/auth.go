package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/auth"
	"docvault-backend/internal/shared/server/respond"
)

const (
	ownerIDKey   = "ownerId"
	ownerEmail   = "ownerEmail"
	ownerName    = "ownerName"
	mockUserHdr  = "X-User-Id"
	authModeJWT  = "jwt"
	authModeMock = "mock"
)

// Options configures the Auth middleware.
type Options struct {
	Mode          string // "jwt" or "mock"
	SessionSecret string
	SkipPrefixes  []string // paths served without identity (auth flows, local upload target)
}

// Auth resolves the caller's identity and stores it in the request context.
// In jwt mode it verifies a Bearer session token; in mock mode it trusts the
// X-User-Id header, which substitutes for a managed identity provider in
// dev and tests.
func Auth(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range opts.SkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		if opts.Mode == authModeMock {
			ownerID := strings.TrimSpace(c.GetHeader(mockUserHdr))
			if ownerID == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
				return
			}
			c.Set(ownerIDKey, ownerID)
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifySession(opts.SessionSecret, token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(ownerIDKey, claims.Subject)
		if claims.Email != "" {
			c.Set(ownerEmail, claims.Email)
		}
		if claims.Name != "" {
			c.Set(ownerName, claims.Name)
		}
		c.Next()
	}
}

// OwnerIDFromContext fetches the owner ID set by the auth middleware.
func OwnerIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(ownerIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
