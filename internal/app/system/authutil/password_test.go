package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid short", "abc123", nil},
		{"valid medium", "mySecurePassword", nil},
		{"valid long", strings.Repeat("a", 128), nil},
		{"valid with special chars", "P@ssw0rd!123", nil},
		{"valid with spaces", "my secret password", nil},

		{"too short 5 chars", "abcde", ErrPasswordTooShort},
		{"too short 1 char", "a", ErrPasswordTooShort},
		{"too short empty", "", ErrPasswordTooShort},

		{"too long", strings.Repeat("a", 129), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if err != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "mySecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword() returned empty hash")
	}
	if hash == password {
		t.Error("hash equals the plaintext password")
	}

	if !CheckPassword(hash, password) {
		t.Error("CheckPassword() = false for the right password")
	}
	if CheckPassword(hash, "wrongPassword") {
		t.Error("CheckPassword() = true for the wrong password")
	}
	if CheckPassword("not-a-bcrypt-hash", password) {
		t.Error("CheckPassword() = true for a malformed hash")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("samePassword1")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, err := HashPassword("samePassword1")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
}
