package security

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndVerifyAdminToken(t *testing.T) {
	token, err := GenerateAdminToken(time.Hour, "secret")
	if err != nil {
		t.Fatalf("GenerateAdminToken returned error: %v", err)
	}

	claims, err := VerifyAdminToken(token, "secret")
	if err != nil {
		t.Fatalf("VerifyAdminToken returned error: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("Role = %q, want admin", claims.Role)
	}
	if claims.ExpiresAt <= claims.IssuedAt {
		t.Fatalf("expiry %d must be after issue %d", claims.ExpiresAt, claims.IssuedAt)
	}
}

func TestVerifyAdminTokenWrongSecret(t *testing.T) {
	token, err := GenerateAdminToken(time.Hour, "secret")
	if err != nil {
		t.Fatalf("GenerateAdminToken returned error: %v", err)
	}
	if _, err := VerifyAdminToken(token, "other-secret"); err == nil {
		t.Fatalf("expected verification with wrong secret to fail")
	}
}

func TestVerifyAdminTokenExpired(t *testing.T) {
	token, err := GenerateAdminToken(-time.Minute, "secret")
	if err != nil {
		t.Fatalf("GenerateAdminToken returned error: %v", err)
	}
	if _, err := VerifyAdminToken(token, "secret"); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyAdminTokenTampered(t *testing.T) {
	token, err := GenerateAdminToken(time.Hour, "secret")
	if err != nil {
		t.Fatalf("GenerateAdminToken returned error: %v", err)
	}

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	if _, err := VerifyAdminToken(tampered, "secret"); err == nil {
		t.Fatalf("expected tampered payload to fail")
	}
}

func TestVerifyAdminTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "no-dot", "a.b.c extra", "!!!.!!!"} {
		if _, err := VerifyAdminToken(token, "secret"); err == nil {
			t.Fatalf("expected malformed token %q to fail", token)
		}
	}
}

func TestGenerateAdminTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateAdminToken(time.Hour, ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
