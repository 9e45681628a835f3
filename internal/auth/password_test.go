package auth

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "Valid", password: "Secret123"},
		{name: "Too short", password: "Sec123", wantErr: true},
		{name: "No upper", password: "secret123", wantErr: true},
		{name: "No lower", password: "SECRET123", wantErr: true},
		{name: "No digit", password: "SecretPass", wantErr: true},
		{name: "Too long for bcrypt", password: "Aa1" + strings.Repeat("x", 70), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last+tag@example.co.uk"}
	invalid := []string{"", "invalid", "a@b", "@x.com", "a x@y.com"}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Secret123" {
		t.Fatal("hash must differ from the plain password")
	}
	if !CheckPassword(hash, "Secret123") {
		t.Error("CheckPassword should accept the right password")
	}
	if CheckPassword(hash, "Secret124") {
		t.Error("CheckPassword should reject a wrong password")
	}
}
