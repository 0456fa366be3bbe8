// Package bidding runs a bid from the amount a user typed to a confirmed
// placeBid transaction.
//
// A submission is a single linear flow: validate, derive a fresh salt,
// commit and seal, hand the payload to the contract and wait for the
// receipt. Nothing is kept between submissions, so retrying after any
// failure is safe and always uses a new salt.
package bidding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cloudx-io/secretlootbid/chain"
	"github.com/cloudx-io/secretlootbid/core"
	"github.com/cloudx-io/secretlootbid/sealing"
)

// ContractWriter is the contract call boundary. *chain.Contract satisfies it.
type ContractWriter interface {
	PlaceBid(ctx context.Context, from common.Address, boxID uint64, encryptedValue, proof string) (chain.TxHandle, error)
	WaitConfirmed(ctx context.Context, tx chain.TxHandle) (*chain.Receipt, error)
}

// BidReceipt is handed to the OnBidPlaced callback once a bid is confirmed.
type BidReceipt struct {
	BidID  string      `json:"bid_id"`
	BoxID  uint64      `json:"box_id"`
	TxHash common.Hash `json:"tx_hash"`
}

// Service submits bids. It holds no per-submission state and is safe for
// concurrent use.
type Service struct {
	validator      *core.Validator
	sealer         sealing.Sealer
	contract       ContractWriter
	salts          core.SaltSource
	now            func() time.Time
	newID          func() string
	onBidPlaced    func(BidReceipt)
	confirmTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithValidator replaces the default 1000 ETH ceiling validator.
func WithValidator(v *core.Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithSaltSource sets where per-submission salts come from.
func WithSaltSource(src core.SaltSource) Option {
	return func(s *Service) { s.salts = src }
}

// WithClock sets the time source for SubmittedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets how bid IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// OnBidPlaced registers the completion callback. It runs only for
// confirmed bids.
func OnBidPlaced(fn func(BidReceipt)) Option {
	return func(s *Service) { s.onBidPlaced = fn }
}

// WithConfirmTimeout bounds how long SubmitBid waits for a receipt.
// Zero waits as long as the caller's context allows.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Service) { s.confirmTimeout = d }
}

// NewService builds a Service around a sealer and a contract boundary.
func NewService(sealer sealing.Sealer, contract ContractWriter, opts ...Option) (*Service, error) {
	if sealer == nil {
		return nil, fmt.Errorf("bidding service requires a sealer")
	}
	if contract == nil {
		return nil, fmt.Errorf("bidding service requires a contract")
	}

	s := &Service{
		validator: core.NewValidator(core.DefaultMaxBidAmount),
		sealer:    sealer,
		contract:  contract,
		salts:     core.DefaultSaltSource,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Validator returns the validator bids are checked with.
func (s *Service) Validator() *core.Validator {
	return s.validator
}

// Prepare validates amount and produces the sealed payload and commitment
// without touching the contract. Each call uses a fresh salt.
func (s *Service) Prepare(ctx context.Context, boxID uint64, amount string, bidder common.Address) (*core.BidSubmission, error) {
	if result := s.validator.Validate(amount); !result.IsValid {
		return nil, result.Error
	}
	amount = strings.TrimSpace(amount)

	salt, err := s.salts.NewSalt()
	if err != nil || salt == "" {
		log.Printf("ERROR: Salt generation failed for box %d: %v", boxID, err)
		return nil, fmt.Errorf("%w: %w", sealing.ErrEncryptionFailure, core.ErrSaltGeneration)
	}

	var (
		commitment core.Commitment
		sealed     *core.SealedBid
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := core.GenerateCommitment(amount, salt)
		if err != nil {
			return fmt.Errorf("%w: %w", sealing.ErrEncryptionFailure, err)
		}
		commitment = c
		return nil
	})
	g.Go(func() error {
		b, err := s.sealer.Seal(gctx, boxID, amount, salt)
		if err != nil {
			return err
		}
		sealed = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if sealed.Commitment != commitment.Value {
		log.Printf("ERROR: Commitment mismatch for box %d, bid not forwarded", boxID)
		return nil, fmt.Errorf("%w: %w", sealing.ErrEncryptionFailure, ErrCommitmentMismatch)
	}

	return &core.BidSubmission{
		ID:             s.newID(),
		BoxID:          boxID,
		Bidder:         bidder,
		Commitment:     commitment.Value,
		EncryptedValue: sealed.EncryptedValue,
		Proof:          sealed.Proof,
		Salt:           commitment.Salt,
		SubmittedAt:    s.now().UTC(),
	}, nil
}

// SubmitBid prepares a bid, sends placeBid and waits for confirmation.
// Validation failures are *core.ValidationError, sealing failures wrap
// sealing.ErrEncryptionFailure and contract failures are *ExternalCallError.
// Failures are not retried.
func (s *Service) SubmitBid(ctx context.Context, boxID uint64, amount string, bidder common.Address) (*core.BidSubmission, error) {
	return s.submit(ctx, boxID, amount, bidder, nil)
}

// submit runs SubmitBid. When current is set, the callback only fires while
// it reports true.
func (s *Service) submit(ctx context.Context, boxID uint64, amount string, bidder common.Address, current func() bool) (*core.BidSubmission, error) {
	sub, err := s.Prepare(ctx, boxID, amount, bidder)
	if err != nil {
		return nil, err
	}

	tx, err := s.contract.PlaceBid(ctx, bidder, boxID, sub.EncryptedValue, sub.Proof)
	if err != nil {
		log.Printf("ERROR: placeBid failed for box %d: %v", boxID, err)
		return nil, &ExternalCallError{Op: "placeBid", Err: err}
	}

	waitCtx := ctx
	if s.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.confirmTimeout)
		defer cancel()
	}

	receipt, err := s.contract.WaitConfirmed(waitCtx, tx)
	if err != nil {
		log.Printf("ERROR: placeBid not confirmed for box %d (tx=%s): %v", boxID, tx.Hash.Hex(), err)
		return nil, &ExternalCallError{Op: "waitConfirmed", Err: err}
	}

	sub.TxHash = receipt.TxHash
	log.Printf("INFO: Bid %s confirmed for box %d in block %d", sub.ID, boxID, receipt.BlockNumber)

	if current != nil && !current() {
		return nil, ErrSuperseded
	}
	if s.onBidPlaced != nil {
		s.onBidPlaced(BidReceipt{BidID: sub.ID, BoxID: boxID, TxHash: sub.TxHash})
	}
	return sub, nil
}

// IsValidationError reports whether err came from amount validation.
func IsValidationError(err error) bool {
	var verr *core.ValidationError
	return errors.As(err, &verr)
}

// IsExternalCallError reports whether err came from the contract boundary.
func IsExternalCallError(err error) bool {
	var cerr *ExternalCallError
	return errors.As(err, &cerr)
}
