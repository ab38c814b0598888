package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckAdminPasswordPlain(t *testing.T) {
	if !CheckAdminPassword("hunter2", "hunter2", "") {
		t.Fatalf("expected matching plaintext password to pass")
	}
	if CheckAdminPassword("wrong", "hunter2", "") {
		t.Fatalf("expected wrong password to fail")
	}
	if CheckAdminPassword("", "hunter2", "") {
		t.Fatalf("expected empty submission to fail")
	}
	if CheckAdminPassword("anything", "", "") {
		t.Fatalf("expected unconfigured secret to fail")
	}
}

func TestCheckAdminPasswordBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate hash: %v", err)
	}

	if !CheckAdminPassword("hunter2", "", string(hash)) {
		t.Fatalf("expected matching bcrypt password to pass")
	}
	if CheckAdminPassword("wrong", "", string(hash)) {
		t.Fatalf("expected wrong bcrypt password to fail")
	}

	// Hash takes precedence even when a plaintext secret is also set.
	if CheckAdminPassword("plain-secret", "plain-secret", string(hash)) {
		t.Fatalf("expected bcrypt hash to take precedence over plaintext secret")
	}
}
