package auth

import (
	"strings"
	"testing"
)

// Cost 4 is the bcrypt minimum — keeps these tests fast.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHash_NeverEqualsPlaintext(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secretpw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secretpw" {
		t.Fatal("Hash() returned the plaintext unchanged")
	}
	if hash == "" {
		t.Fatal("Hash() returned an empty hash")
	}
}

func TestHash_SaltMakesHashesDiffer(t *testing.T) {
	ps := newTestPasswordService()

	// Same plaintext twice — the random salt must produce different hashes.
	hash1, err := ps.Hash("secretpw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hash2, err := ps.Hash("secretpw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same plaintext — salt not applied")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt truncates past 72 bytes; we reject instead
	long := strings.Repeat("x", 73)
	if _, err := ps.Hash(long); err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secretpw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "secretpw"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secretpw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "wrongpw"); err == nil {
		t.Error("Verify() should return an error for a wrong password")
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	// A mangled hash is an error value, never a panic.
	if err := ps.Verify("not-a-bcrypt-hash", "secretpw"); err == nil {
		t.Error("Verify() should return an error for a malformed hash")
	}
}
