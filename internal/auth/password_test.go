package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword(hash, "hunter2hunter2") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "hunter3hunter3") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("not-a-bcrypt-hash", "hunter2hunter2") {
		t.Error("garbage hash accepted")
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		pw, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword: %v", err)
		}
		if len(pw) != 24 {
			t.Errorf("got length %d, want 24", len(pw))
		}
		for _, c := range pw {
			if !strings.ContainsRune(passwordKeyspace, c) {
				t.Errorf("character %q outside keyspace", c)
			}
		}
		if seen[pw] {
			t.Errorf("duplicate password generated: %q", pw)
		}
		seen[pw] = true
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("got length %d, want 32", len(key))
	}
	if strings.ToLower(key) != key {
		t.Errorf("expected lowercase hex, got %q", key)
	}
	other, _ := GenerateAPIKey()
	if key == other {
		t.Error("two generated keys are identical")
	}
}
