package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// SaltBytes is the number of random bytes in a generated salt.
const SaltBytes = 16

// ErrSaltGeneration is returned when the salt source fails.
var ErrSaltGeneration = errors.New("failed to generate salt")

// SaltSource provides salts for new commitments.
// This interface enables dependency injection for deterministic testing.
type SaltSource interface {
	// NewSalt returns a fresh salt string.
	NewSalt() (string, error)
}

// SaltSourceFunc adapts a function to SaltSource.
type SaltSourceFunc func() (string, error)

// NewSalt calls f.
func (f SaltSourceFunc) NewSalt() (string, error) {
	return f()
}

// cryptoSaltSource wraps crypto/rand for production use
type cryptoSaltSource struct{}

// NewSalt returns SaltBytes of crypto/rand entropy, hex-encoded.
func (cryptoSaltSource) NewSalt() (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSaltGeneration, err)
	}
	return hex.EncodeToString(buf), nil
}

// DefaultSaltSource is a cryptographically strong salt source.
//
// This differs from the web client, which drew short base-36 salts from
// Math.random; those made low-value commitments guessable. Salts here are
// SaltBytes of crypto/rand, hex-encoded. Inject a SaltSource to change that.
var DefaultSaltSource SaltSource = cryptoSaltSource{}

// GenerateCommitment derives a commitment for amount.
// If salt is empty a fresh one is drawn from DefaultSaltSource.
// The amount is expected to have passed ValidateBidData already.
func GenerateCommitment(amount, salt string) (Commitment, error) {
	return GenerateCommitmentWithSource(amount, salt, DefaultSaltSource)
}

// GenerateCommitmentWithSource is GenerateCommitment with an explicit salt source.
// A nil source falls back to DefaultSaltSource.
func GenerateCommitmentWithSource(amount, salt string, src SaltSource) (Commitment, error) {
	if salt == "" {
		if src == nil {
			src = DefaultSaltSource
		}
		generated, err := src.NewSalt()
		if err != nil {
			return Commitment{}, err
		}
		if generated == "" {
			return Commitment{}, fmt.Errorf("%w: empty salt", ErrSaltGeneration)
		}
		salt = generated
	}

	return Commitment{
		Value: ComputeCommitment(amount, salt),
		Salt:  salt,
	}, nil
}

// VerifyCommitment reports whether commitment was produced from amount and salt.
// The comparison is exact and byte-for-byte; an empty salt never verifies
// because GenerateCommitment never commits with one.
func VerifyCommitment(amount, commitment, salt string) bool {
	if salt == "" {
		return false
	}
	expected := ComputeCommitment(amount, salt)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(commitment)) == 1
}
