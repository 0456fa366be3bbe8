// Package sealing turns a validated bid amount into the payload that is
// handed to the auction contract: an encrypted value, a proof and a
// commit-reveal commitment.
//
// Two variants implement Sealer:
//
//   - Simulated hashes the plaintext. It has the right shape for the
//     contract but provides no confidentiality and no zero-knowledge
//     soundness: anyone can brute-force the "ciphertext" of a small amount.
//   - Hybrid seals the amount to the auctioneer's RSA key with RSA-OAEP and
//     AES-256-GCM. It stands in the slot a homomorphic scheme would occupy.
package sealing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudx-io/secretlootbid/core"
)

// ErrEncryptionFailure is the single error surfaced when sealing fails.
// The underlying cause is logged, not returned.
var ErrEncryptionFailure = errors.New("failed to encrypt bid amount")

// ErrBoxMismatch means a sealed value was opened for a box it was not
// sealed for.
var ErrBoxMismatch = errors.New("sealed bid belongs to a different loot box")

// Mode names a Sealer variant.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeHybrid    Mode = "hybrid"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSimulated:
		return ModeSimulated, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return "", fmt.Errorf("unknown sealing mode %q (want %q or %q)", s, ModeSimulated, ModeHybrid)
	}
}

// Sealer produces the contract payload for a bid amount.
type Sealer interface {
	// Seal seals amount for boxID and commits to it with salt. An empty salt
	// makes the sealer draw a fresh one; the salt used is returned in
	// SealedBid.Salt. Any failure is reported as ErrEncryptionFailure with no
	// partial result.
	Seal(ctx context.Context, boxID uint64, amount, salt string) (*core.SealedBid, error)

	// Mode reports which variant this is.
	Mode() Mode
}

// EncryptBidAmount seals amount for boxID with a freshly generated salt.
func EncryptBidAmount(ctx context.Context, s Sealer, boxID uint64, amount string) (*core.SealedBid, error) {
	return s.Seal(ctx, boxID, amount, "")
}

// New builds the sealer for mode. Hybrid mode requires keys.
func New(mode Mode, keys *KeyManager, hashAlg HashAlgorithm, salts core.SaltSource) (Sealer, error) {
	switch mode {
	case ModeSimulated:
		return NewSimulated(salts), nil
	case ModeHybrid:
		if keys == nil {
			return nil, fmt.Errorf("hybrid sealing requires a key manager")
		}
		hybrid, err := NewHybrid(keys.PublicKey, hashAlg, salts)
		if err != nil {
			return nil, err
		}
		return hybrid, nil
	default:
		return nil, fmt.Errorf("unknown sealing mode %q", mode)
	}
}
