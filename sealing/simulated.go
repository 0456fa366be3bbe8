package sealing

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/cloudx-io/secretlootbid/core"
)

// Simulated is the hash-based sealer. Create one per component with
// NewSimulated; instances share no state.
type Simulated struct {
	salts core.SaltSource
}

// NewSimulated returns a Simulated sealer. A nil salt source uses
// core.DefaultSaltSource.
func NewSimulated(salts core.SaltSource) *Simulated {
	if salts == nil {
		salts = core.DefaultSaltSource
	}
	return &Simulated{salts: salts}
}

func (*Simulated) Mode() Mode {
	return ModeSimulated
}

// Seal computes three independent digests: one over the amount (stand-in
// ciphertext), one over amount+"proof" (stand-in proof) and the commitment.
// The digests do not depend on boxID.
func (s *Simulated) Seal(ctx context.Context, _ uint64, amount, salt string) (*core.SealedBid, error) {
	commitment, err := commit(ctx, amount, salt, s.salts)
	if err != nil {
		return nil, fail(err)
	}

	return &core.SealedBid{
		EncryptedValue: core.ComputeCiphertextDigest(amount),
		Proof:          core.ComputeProofDigest(amount),
		Commitment:     commitment.Value,
		Salt:           commitment.Salt,
	}, nil
}

// commit runs the checks shared by every sealer and derives the commitment.
func commit(ctx context.Context, amount, salt string, salts core.SaltSource) (core.Commitment, error) {
	if err := ctx.Err(); err != nil {
		return core.Commitment{}, err
	}
	if !utf8.ValidString(amount) {
		return core.Commitment{}, fmt.Errorf("amount is not valid UTF-8")
	}
	if !utf8.ValidString(salt) {
		return core.Commitment{}, fmt.Errorf("salt is not valid UTF-8")
	}
	return core.GenerateCommitmentWithSource(amount, salt, salts)
}

// fail logs the cause and collapses it into ErrEncryptionFailure.
func fail(cause error) error {
	log.Printf("ERROR: Bid sealing failed: %v", cause)
	return ErrEncryptionFailure
}
