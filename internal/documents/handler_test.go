package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.Auth(middleware.Options{Mode: "mock"}))
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateDocumentEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/documents", map[string]any{
		"fileName": "invoice.pdf",
		"fileType": "application/pdf",
		"fileSize": 1234,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var doc Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Status != StatusPending {
		t.Errorf("status = %q", doc.Status)
	}
	if doc.OwnerID != "user-1" {
		t.Errorf("ownerId = %q", doc.OwnerID)
	}
	if doc.StorageKey != "user-1/"+doc.ID+"/invoice.pdf" {
		t.Errorf("storageKey = %q", doc.StorageKey)
	}
}

func TestCreateDocumentEndpointValidation(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/documents", map[string]any{
		"fileType": "application/pdf",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "validation_error" {
		t.Errorf("code = %q", resp.Error.Code)
	}
}

func TestCreateDocumentEndpointRequiresIdentity(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGenerateUploadURLEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/documents/upload-url", map[string]any{
		"fileName": "scan.png",
		"fileType": "image/png",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var target UploadTarget
	if err := json.Unmarshal(w.Body.Bytes(), &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if target.UploadURL == "" || target.DocumentID == "" {
		t.Errorf("incomplete target: %+v", target)
	}
}

func TestListDocumentsEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	if _, err := svc.Create(context.Background(), "user-1", sampleMetadata()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-2", sampleMetadata()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, engine, http.MethodGet, "/api/v1/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Documents []Document `json:"documents"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Documents) != 1 {
		t.Errorf("len = %d, want only the caller's documents", len(resp.Documents))
	}
}

func TestListDocumentsEndpointEmpty(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); !bytes.Contains([]byte(body), []byte(`"documents":[]`)) {
		t.Errorf("empty list should serialize as an array: %s", body)
	}
}

func TestGetDocumentEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	doc, err := svc.Create(context.Background(), "user-1", sampleMetadata())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, engine, http.MethodGet, "/api/v1/documents/"+doc.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/v1/documents/does-not-exist", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestProcessDocumentEndpoint(t *testing.T) {
	repo := NewMemoryRepo()
	store := local.New(t.TempDir(), "http://localhost/uploads")
	svc := &Service{Repo: repo, Store: store, Extractor: &staticExtractor{}}
	engine := newTestRouter(t, svc)

	doc, err := svc.Create(context.Background(), "user-1", sampleMetadata())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	uploadBytes(t, store, doc.StorageKey, "invoice body")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/documents/"+doc.ID+"/process", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		DocumentID       string          `json:"documentId"`
		Status           Status          `json:"status"`
		ExtractionResult json.RawMessage `json:"extractionResult"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusCompleted {
		t.Errorf("status = %q", resp.Status)
	}
	if len(resp.ExtractionResult) == 0 || string(resp.ExtractionResult) == "null" {
		t.Error("extractionResult missing from response")
	}
}

func TestProcessDocumentEndpointExtractionError(t *testing.T) {
	repo := NewMemoryRepo()
	store := local.New(t.TempDir(), "http://localhost/uploads")
	svc := &Service{Repo: repo, Store: store, Extractor: failingExtractor{}}
	engine := newTestRouter(t, svc)

	doc, err := svc.Create(context.Background(), "user-1", sampleMetadata())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	uploadBytes(t, store, doc.StorageKey, "text")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/documents/"+doc.ID+"/process", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "extraction_error" {
		t.Errorf("code = %q", resp.Error.Code)
	}
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t, &staticExtractor{})
	engine := newTestRouter(t, svc)

	doc, err := svc.Create(context.Background(), "user-1", sampleMetadata())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, engine, http.MethodDelete, "/api/v1/documents/"+doc.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/documents/"+doc.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", w.Code)
	}
}
