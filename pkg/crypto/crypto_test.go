package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-Phrase!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("s3cret-Phrase!", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	// An out-of-range cost falls back to the bcrypt default instead of failing
	hash, err := HashPassword("s3cret-Phrase!", 99)
	if err != nil {
		t.Fatalf("HashPassword with bad cost: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(8)
	if err != nil {
		t.Fatalf("RandomHex: %v", err)
	}
	if len(a) != 16 {
		t.Errorf("len = %d, want 16", len(a))
	}
	b, _ := RandomHex(8)
	if a == b {
		t.Error("two random values collided")
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	p := GenerateRandomPassword(16)
	if len(p) != 16 {
		t.Fatalf("len = %d, want 16", len(p))
	}
	for _, r := range p {
		if !strings.ContainsRune(passwordAlphabet, r) {
			t.Errorf("unexpected character %q", r)
		}
	}
	if GenerateRandomPassword(0) == "" {
		t.Error("zero length should fall back to a default")
	}
}
