package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Hour, Claims{
		UserID: 42,
		Email:  "prof@example.com",
		Role:   "professor",
	})
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "prof@example.com" || claims.Role != "professor" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", -time.Minute, Claims{UserID: 1})
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := ParseToken("secret", token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Hour, Claims{UserID: 1})
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatalf("expected signature verification to fail")
	}
	if _, err := ParseToken("other-secret", token); errors.Is(err, ErrTokenExpired) {
		t.Fatalf("bad signature must not report expiry")
	}
}

func TestTokenMalformed(t *testing.T) {
	if _, err := ParseToken("secret", "not-a-token"); err == nil {
		t.Fatalf("expected malformed token to fail")
	}
}

func TestBearerToken(t *testing.T) {
	if got := BearerToken("Bearer abc"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := BearerToken("bearer abc"); got != "abc" {
		t.Fatalf("expected case-insensitive scheme, got %q", got)
	}
	for _, header := range []string{"", "abc", "Basic abc"} {
		if got := BearerToken(header); got != "" {
			t.Fatalf("expected empty token for %q, got %q", header, got)
		}
	}
}
