package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken("alice")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username 'alice', got %q", claims.Username)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", 0)
	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected error validating garbage token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", 0)
	verifier := NewService("secret-b", 0)

	token, err := issuer.GenerateToken("bob")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected error validating token signed with a different secret")
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	svc := NewService("", 0)
	if _, err := svc.GenerateToken("alice"); err == nil {
		t.Fatal("expected error generating token without a configured secret")
	}
}
