package core

import (
	"crypto/sha256"
	"fmt"
)

// HexPrefix is prepended to every digest handed to the contract layer.
const HexPrefix = "0x"

// DigestLength is the length of a prefixed SHA-256 hex digest.
const DigestLength = len(HexPrefix) + 2*sha256.Size

// proofSuffix is appended to the amount when deriving the stand-in proof.
const proofSuffix = "proof"

// Digest returns the 0x-prefixed lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s%x", HexPrefix, hash)
}

// ComputeCommitment computes the commit-reveal commitment for a bid.
// This is used both when committing (bidder side) and when verifying a reveal.
//
// Formula: "0x" + hex(SHA256(utf8(amount + salt)))
//
// The amount is hashed exactly as the bidder typed it; "0.5" and "0.50"
// commit to different values.
func ComputeCommitment(amount, salt string) string {
	return Digest([]byte(amount + salt))
}

// ComputeCiphertextDigest computes the stand-in ciphertext used by the
// simulated sealer.
//
// Formula: "0x" + hex(SHA256(utf8(amount)))
//
// The result is publicly invertible for small amount spaces and carries no
// confidentiality.
func ComputeCiphertextDigest(amount string) string {
	return Digest([]byte(amount))
}

// ComputeProofDigest computes the stand-in proof used by the simulated sealer.
//
// Formula: "0x" + hex(SHA256(utf8(amount + "proof")))
func ComputeProofDigest(amount string) string {
	return Digest([]byte(amount + proofSuffix))
}

// ComputeBindingProof binds a sealed value to its commitment.
//
// Formula: "0x" + hex(SHA256(encryptedValue + "|" + commitment))
func ComputeBindingProof(encryptedValue, commitment string) string {
	return Digest([]byte(fmt.Sprintf("%s|%s", encryptedValue, commitment)))
}
