package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/auth"
)

func newAuthRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(opts))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, OwnerIDFromContext(c))
	})
	return r
}

func TestAuthMockMode(t *testing.T) {
	r := newAuthRouter(Options{Mode: "mock"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "u1" {
		t.Errorf("owner = %q", w.Body.String())
	}
}

func TestAuthMockModeMissingIdentity(t *testing.T) {
	r := newAuthRouter(Options{Mode: "mock"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthJWTMode(t *testing.T) {
	secret := "s3cret"
	token, err := auth.SignSession(secret, "user-42", "", "", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	r := newAuthRouter(Options{Mode: "jwt", SessionSecret: secret})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != "user-42" {
		t.Errorf("owner = %q", w.Body.String())
	}
}

func TestAuthJWTModeRejectsBadToken(t *testing.T) {
	r := newAuthRouter(Options{Mode: "jwt", SessionSecret: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthSkipPrefixes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(Options{Mode: "jwt", SessionSecret: "s", SkipPrefixes: []string{"/api/v1/auth/google/"}}))
	r.GET("/api/v1/auth/google/start", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for skipped prefix", w.Code)
	}
}
