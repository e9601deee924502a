package auth_test

import (
	"testing"

	"pharma-erp/internal/auth"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("orchid-paper-42")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "orchid-paper-42" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !auth.VerifyPassword(hash, "orchid-paper-42") {
		t.Error("correct password must verify")
	}
	if auth.VerifyPassword(hash, "orchid-paper-43") {
		t.Error("wrong password must not verify")
	}

	if _, err := auth.HashPassword(""); err == nil {
		t.Error("empty password must be rejected")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.IssueToken("test-secret", "doc-1", "mehta")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	claims, err := auth.ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.DoctorID != "doc-1" || claims.Username != "mehta" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := auth.ParseToken("other-secret", token); err == nil {
		t.Error("token signed with a different secret must not parse")
	}
	if _, err := auth.ParseToken("test-secret", token+"x"); err == nil {
		t.Error("tampered token must not parse")
	}
	if _, err := auth.IssueToken("", "doc-1", "mehta"); err == nil {
		t.Error("empty secret must be rejected")
	}
}
