// Package bootstrap wires configuration into the application's concrete
// dependencies: database or memory repos, object store, extractor, service,
// handlers, and router.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "docvault-backend/internal/auth"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/extraction"
	"docvault-backend/internal/extraction/openai"
	"docvault-backend/internal/services/health"
	"docvault-backend/internal/shared/config"
	"docvault-backend/internal/shared/server"
	"docvault-backend/internal/shared/storage/db"
	"docvault-backend/internal/shared/storage/object"
	localstore "docvault-backend/internal/shared/storage/object/local"
	s3store "docvault-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Store   object.Store
	Repo    documents.Repo
	Service *documents.Service
	Handler *documents.Handler

	localStore *localstore.Store
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if err := buildStore(ctx, app); err != nil {
		return nil, err
	}

	if app.DB != nil {
		app.Repo = &documents.PGRepo{DB: app.DB}
	} else {
		app.Repo = documents.NewMemoryRepo()
	}

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	app.Service = &documents.Service{
		Repo:      app.Repo,
		Store:     app.Store,
		Extractor: extractor,
	}
	app.Handler = documents.NewHandler(app.Service)

	var google *googleauth.GoogleService
	if cfg.GoogleClientID != "" {
		google = googleauth.NewGoogleService(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
			cfg.UIRedirectURL,
			cfg.SessionSecret,
		)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: app.Handler,
		GoogleAuth:      google,
		Health:          health.NewService(),
		LocalStore:      app.localStore,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repository")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repository: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return err
		}
		app.Store = store
		return nil
	default:
		uploadURL := "http://localhost:" + strings.TrimPrefix(server.Addr(cfg.Port), ":") + "/api/v1/uploads/local"
		store := localstore.New(cfg.LocalStoreDir, uploadURL)
		app.Store = store
		app.localStore = store
		return nil
	}
}

func buildExtractor(cfg config.Config) (extraction.Extractor, error) {
	if cfg.OpenAIAPIKey == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; extraction disabled")
			return extraction.Placeholder{}, nil
		}
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.SummaryModel)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
