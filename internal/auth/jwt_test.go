package auth

import (
	"testing"
	"time"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Generate("user-1", "USER")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if claims.Role != "USER" {
		t.Errorf("Role = %q, want USER", claims.Role)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", time.Hour).Generate("user-1", "USER")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if _, err := NewTokenService("secret-b", time.Hour).Validate(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := &TokenService{secret: []byte("test-secret"), ttl: -time.Minute}

	token, err := svc.Generate("user-1", "USER")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if _, err := svc.Validate(token); err == nil {
		t.Fatal("expected an expired token to be rejected")
	}
}

func TestTokenService_Garbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Validate(tok); err == nil {
			t.Errorf("Validate(%q) accepted garbage", tok)
		}
	}
}

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3nh4-forte")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "s3nh4-forte" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPassword(hash, "s3nh4-forte") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "senha-errada") {
		t.Error("wrong password accepted")
	}
}
