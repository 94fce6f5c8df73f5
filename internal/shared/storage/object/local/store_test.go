package local

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestPutOpenDelete(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/uploads/local")
	ctx := context.Background()

	n, err := store.Put(ctx, "u1/doc-1/invoice.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if n != int64(len("pdf bytes")) {
		t.Errorf("written = %d", n)
	}

	rc, err := store.Open(ctx, "u1/doc-1/invoice.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("content = %q", data)
	}

	if err := store.Delete(ctx, "u1/doc-1/invoice.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, "u1/doc-1/invoice.pdf"); err == nil {
		t.Fatal("expected open to fail after delete")
	}

	// deleting an absent key is fine
	if err := store.Delete(ctx, "u1/doc-1/invoice.pdf"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestPresignPut(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/uploads/local/")
	u, err := store.PresignPut(context.Background(), "u1/doc-1/scan.png", "image/png", 15*time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(u, "http://localhost:8080/uploads/local/") {
		t.Errorf("url = %q", u)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/uploads/local")
	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatal("expected invalid storage key error")
	}
	if _, err := store.Put(context.Background(), "/abs/path", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected invalid storage key error")
	}
}
