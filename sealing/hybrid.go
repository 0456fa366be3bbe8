package sealing

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/cloudx-io/secretlootbid/core"
)

// Hybrid seals bid amounts to the auctioneer's public key.
type Hybrid struct {
	publicKey *rsa.PublicKey
	hashAlg   HashAlgorithm
	salts     core.SaltSource
}

// NewHybrid returns a Hybrid sealer for publicKey. An empty hashAlg defaults
// to SHA-256; a nil salt source uses core.DefaultSaltSource.
func NewHybrid(publicKey *rsa.PublicKey, hashAlg HashAlgorithm, salts core.SaltSource) (*Hybrid, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("hybrid sealer requires a public key")
	}
	if hashAlg == "" {
		hashAlg = HashAlgorithmSHA256
	}
	if _, err := newHash(hashAlg); err != nil {
		return nil, err
	}
	if salts == nil {
		salts = core.DefaultSaltSource
	}
	return &Hybrid{publicKey: publicKey, hashAlg: hashAlg, salts: salts}, nil
}

func (*Hybrid) Mode() Mode {
	return ModeHybrid
}

// Seal encrypts {"amount": amount, "box_id": boxID} and binds the ciphertext
// to the commitment.
//
// Formula: proof = ComputeBindingProof(encryptedValue, commitment)
func (h *Hybrid) Seal(ctx context.Context, boxID uint64, amount, salt string) (*core.SealedBid, error) {
	commitment, err := commit(ctx, amount, salt, h.salts)
	if err != nil {
		return nil, fail(err)
	}

	plaintext, err := json.Marshal(OpenedBid{Amount: amount, BoxID: boxID})
	if err != nil {
		return nil, fail(fmt.Errorf("marshal plaintext: %w", err))
	}

	env, err := encryptHybrid(plaintext, h.publicKey, h.hashAlg)
	if err != nil {
		return nil, fail(err)
	}

	encryptedValue, err := env.encode()
	if err != nil {
		return nil, fail(err)
	}

	return &core.SealedBid{
		EncryptedValue: encryptedValue,
		Proof:          core.ComputeBindingProof(encryptedValue, commitment.Value),
		Commitment:     commitment.Value,
		Salt:           commitment.Salt,
	}, nil
}
