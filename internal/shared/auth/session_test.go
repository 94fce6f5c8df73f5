package auth

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestSignAndVerifySession(t *testing.T) {
	token, err := SignSession(testSecret, "user-1", "u@example.com", "User One", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := VerifySession(testSecret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Email != "u@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestVerifySessionWrongSecret(t *testing.T) {
	token, err := SignSession(testSecret, "user-1", "", "", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifySession("other-secret", token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifySessionExpired(t *testing.T) {
	token, err := SignSession(testSecret, "user-1", "", "", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifySession(testSecret, token); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestSignSessionValidation(t *testing.T) {
	if _, err := SignSession("", "user-1", "", "", time.Hour); err == nil {
		t.Error("expected error for missing secret")
	}
	if _, err := SignSession(testSecret, "", "", "", time.Hour); err == nil {
		t.Error("expected error for missing user id")
	}
	if _, err := VerifySession(testSecret, "not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}
