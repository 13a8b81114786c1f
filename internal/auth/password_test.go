package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Tests use the minimum bcrypt cost — the logic is identical, the hashing
// just doesn't burn 250ms per case.
func testPasswords() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	p := testPasswords()

	hash, err := p.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() must not return the plaintext")
	}

	if err := p.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password failed: %v", err)
	}
	if err := p.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() with wrong password should fail")
	}
}

// bcrypt salts per call, so the same input never hashes the same twice.
func TestHash_IsSalted(t *testing.T) {
	p := testPasswords()

	h1, err := p.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	h2, err := p.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	p := testPasswords()

	if _, err := p.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() should reject passwords over 72 bytes")
	}
	if _, err := p.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("Hash() should accept exactly 72 bytes, got: %v", err)
	}
}
