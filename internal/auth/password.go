// Package auth implements password hashing and the legacy-hash verification
// chain used at login.
//
// Accounts created before the switch to bcrypt carry an unsalted SHA-256
// digest. Login checks an ordered list of verifiers; a match on any verifier
// other than the canonical one signals the caller to rewrite the stored hash
// with the canonical scheme. The migration is lazy and one-way: an account is
// upgraded only on its next successful login, never in bulk.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrNoVerifiers = errors.New("verifier chain is empty")

// Hasher hashes passwords and verifies them against stored digests.
type Hasher interface {
	// Name identifies the scheme in logs.
	Name() string
	Hash(password string) (string, error)
	Verify(password, stored string) bool
}

// BcryptHasher is the canonical scheme.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Name() string { return "bcrypt" }

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// SHA256Hasher is the legacy scheme: hex-encoded unsalted digest.
type SHA256Hasher struct{}

func (SHA256Hasher) Name() string { return "sha256" }

func (SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (SHA256Hasher) Verify(password, stored string) bool {
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(digest), []byte(stored)) == 1
}

// Chain is an ordered list of verifiers. The first element is the canonical
// scheme used for new hashes and upgrade rewrites.
type Chain struct {
	verifiers []Hasher
}

// NewChain builds a chain; the first hasher is canonical.
func NewChain(verifiers ...Hasher) *Chain {
	return &Chain{verifiers: verifiers}
}

// DefaultChain is bcrypt with sha256 legacy fallback.
func DefaultChain(bcryptCost int) *Chain {
	return NewChain(NewBcryptHasher(bcryptCost), SHA256Hasher{})
}

// Canonical returns the hasher used for new passwords.
func (c *Chain) Canonical() (Hasher, error) {
	if len(c.verifiers) == 0 {
		return nil, ErrNoVerifiers
	}
	return c.verifiers[0], nil
}

// Hash hashes a password with the canonical scheme.
func (c *Chain) Hash(password string) (string, error) {
	h, err := c.Canonical()
	if err != nil {
		return "", err
	}
	return h.Hash(password)
}

// Verify runs the chain in order. It returns whether any verifier matched,
// whether the stored hash should be upgraded (match on a non-canonical
// verifier), and the name of the matching scheme.
func (c *Chain) Verify(password, stored string) (matched, upgrade bool, scheme string) {
	for i, v := range c.verifiers {
		if v.Verify(password, stored) {
			return true, i > 0, v.Name()
		}
	}
	return false, false, ""
}
