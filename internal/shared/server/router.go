package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "docvault-backend/internal/auth"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/services/health"
	"docvault-backend/internal/shared/config"
	"docvault-backend/internal/shared/metrics"
	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
	localstore "docvault-backend/internal/shared/storage/object/local"
)

// localUploadPrefix is the dev-only route that stands in for presigned S3
// uploads when the local object store is active.
const localUploadPrefix = "/api/v1/uploads/local"

// RouterDeps carries the wired dependencies the router needs.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	GoogleAuth      *googleauth.GoogleService
	Health          *health.Service
	// LocalStore enables the local upload route when non-nil.
	LocalStore *localstore.Store
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	skip := []string{
		"/api/v1/health",
		"/api/v1/metrics",
		"/api/v1/auth/",
	}
	if deps.LocalStore != nil {
		skip = append(skip, localUploadPrefix)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(middleware.Options{
			Mode:          deps.Config.AuthMode,
			SessionSecret: deps.Config.SessionSecret,
			SkipPrefixes:  skip,
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	api.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	deps.DocumentHandler.RegisterRoutes(api)

	if deps.LocalStore != nil {
		registerLocalUploadRoute(api, deps.LocalStore)
	}

	return r
}

// registerLocalUploadRoute accepts the PUT that a presigned URL would take
// in production and writes the bytes into the local store.
func registerLocalUploadRoute(api *gin.RouterGroup, store *localstore.Store) {
	api.PUT("/uploads/local/*key", func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if key == "" {
			respond.Error(c, http.StatusBadRequest, "validation_error", "storage key is required", nil)
			return
		}
		if _, err := store.Put(c.Request.Context(), key, c.ContentType(), c.Request.Body); err != nil {
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store upload", nil)
			return
		}
		c.Status(http.StatusOK)
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
