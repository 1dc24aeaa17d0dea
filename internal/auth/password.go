package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher returns a Hasher using the given bcrypt cost.
func NewHasher(cost int) (*Hasher, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

// Hash returns a salted one-way hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash.
func (h *Hasher) Verify(hash, plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}

// VerifyMissing burns the same bcrypt work as Verify for an account that
// does not exist, so lookups by unknown email take as long as a bad password.
func (h *Hasher) VerifyMissing(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
