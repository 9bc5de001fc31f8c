package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "secret-password" {
		t.Fatal("hash equals plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("unexpected hash format: %q", hash)
	}

	if !hasher.Verify(hash, "secret-password") {
		t.Error("correct password did not verify")
	}
	if hasher.Verify(hash, "wrong-password") {
		t.Error("wrong password verified")
	}
	if hasher.Verify(hash, "") {
		t.Error("empty password verified")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := hasher.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same input are identical")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{"below minimum", bcrypt.MinCost - 2, bcrypt.DefaultCost},
		{"zero", 0, bcrypt.DefaultCost},
		{"above maximum", bcrypt.MaxCost + 1, bcrypt.DefaultCost},
		{"valid", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHasher(tt.cost).Cost(); got != tt.want {
				t.Errorf("NewHasher(%d).Cost() = %d, want %d", tt.cost, got, tt.want)
			}
		})
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)
	if hasher.Verify("not-a-bcrypt-hash", "anything") {
		t.Error("malformed hash verified")
	}
}
