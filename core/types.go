package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Commitment is a commit-reveal commitment together with the salt it was
// derived from. The salt must be retained by the bidder until the reveal
// phase and must never be forwarded to the contract before then.
type Commitment struct {
	Value string `json:"commitment"`
	Salt  string `json:"salt"`
}

// SealedBid is the output of a sealing step.
//
// For the simulated sealer EncryptedValue and Proof are plain digests and
// provide neither confidentiality nor zero-knowledge soundness.
type SealedBid struct {
	EncryptedValue string `json:"encrypted_value"`
	Proof          string `json:"proof"`
	Commitment     string `json:"commitment"`
	Salt           string `json:"-"`
}

// BidSubmission aggregates everything produced for a single bid attempt.
// Salt stays with the bidder; it is not part of the contract payload.
type BidSubmission struct {
	ID             string         `json:"id"`
	BoxID          uint64         `json:"box_id"`
	Bidder         common.Address `json:"bidder"`
	Commitment     string         `json:"commitment"`
	EncryptedValue string         `json:"encrypted_value"`
	Proof          string         `json:"proof"`
	Salt           string         `json:"-"`
	TxHash         common.Hash    `json:"tx_hash"`
	SubmittedAt    time.Time      `json:"submitted_at"`
}

// BidCommitment is the record a bidder keeps for a placed bid.
type BidCommitment struct {
	Bidder     common.Address `json:"bidder"`
	Commitment string         `json:"commitment"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewBidCommitment builds a BidCommitment for a submission.
func NewBidCommitment(sub *BidSubmission) BidCommitment {
	return BidCommitment{
		Bidder:     sub.Bidder,
		Commitment: sub.Commitment,
		Timestamp:  sub.SubmittedAt,
	}
}
