package auth

import (
	"strings"
	"testing"
	"time"
)

func TestStateStoreConsumeOnce(t *testing.T) {
	store := newStateStore()
	store.put("abc", time.Now().Add(time.Minute))

	if !store.consume("abc") {
		t.Fatal("first consume should succeed")
	}
	if store.consume("abc") {
		t.Fatal("second consume should fail")
	}
}

func TestStateStoreExpired(t *testing.T) {
	store := newStateStore()
	store.put("abc", time.Now().Add(-time.Second))

	if store.consume("abc") {
		t.Fatal("expired state should be rejected")
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("https://app.example.com/auth?next=%2Fdashboard", "tok123")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if !strings.Contains(got, "token=tok123") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "next=%2Fdashboard") {
		t.Errorf("existing query lost: %q", got)
	}

	if _, err := appendToken("", "tok"); err == nil {
		t.Error("empty redirect should error")
	}
}
