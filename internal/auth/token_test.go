package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	secret := []byte("test-secret")
	token, expiresAt, err := GenerateToken("sess-1", "player-1", secret, DefaultTokenExpiry)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(token, ".") {
		t.Errorf("token missing payload.signature separator: %q", token)
	}
	if expiresAt.Before(time.Now().UTC().Add(23 * time.Hour)) {
		t.Errorf("expiry too soon: %v", expiresAt)
	}

	claims, err := VerifyToken(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.SessionID != "sess-1" || claims.PlayerID != "player-1" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, _, err := GenerateToken("sess-1", "player-1", []byte("secret-a"), time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyToken(token, []byte("secret-b")); err == nil {
		t.Error("expected verification failure with the wrong secret")
	}
}

func TestVerifyToken_Tampered(t *testing.T) {
	secret := []byte("test-secret")
	token, _, err := GenerateToken("sess-1", "player-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other, _, err := GenerateToken("sess-2", "player-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("generate other: %v", err)
	}
	// Payload from one token with the signature of another.
	spliced := strings.SplitN(other, ".", 2)[0] + "." + strings.SplitN(token, ".", 2)[1]
	if _, err := VerifyToken(spliced, secret); err == nil {
		t.Error("expected verification failure for spliced token")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, _, err := GenerateToken("sess-1", "player-1", secret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyToken(token, secret); err == nil {
		t.Error("expected expired-token failure")
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	secret := []byte("test-secret")
	for _, token := range []string{"", "no-separator", "a.b", "!!!.???"} {
		if _, err := VerifyToken(token, secret); err == nil {
			t.Errorf("expected failure for %q", token)
		}
	}
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	if _, _, err := GenerateToken("sess-1", "player-1", nil, time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}
