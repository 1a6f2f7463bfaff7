package token

import (
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("secret", 24)

	tok, err := m.GenerateToken(42, "a@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := m.VerifyToken(tok)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("UserID = %d, %v", id, err)
	}
	if claims.Email != "a@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("expiry window = %v, want 24h", got)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewJWTManager("one", 1).GenerateToken(1, "a@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewJWTManager("two", 1).VerifyToken(tok); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", 1)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	tok, err := m.GenerateToken(1, "a@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	m.now = time.Now
	if _, err := m.VerifyToken(tok); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestRemaining(t *testing.T) {
	m := NewJWTManager("secret", 2)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	tok, _ := m.GenerateToken(1, "a@example.com")
	claims, err := m.VerifyToken(tok)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got := m.Remaining(claims); got != 2*time.Hour {
		t.Fatalf("Remaining = %v", got)
	}
}
