package bidding

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/atomic"

	"github.com/cloudx-io/secretlootbid/core"
)

// Form is the bid flow for one bidder on one loot box. Starting a new
// Submit cancels the one in flight; a superseded submission never reaches
// the OnBidPlaced callback and returns ErrSuperseded.
type Form struct {
	service *Service
	boxID   uint64
	bidder  common.Address

	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewForm returns a Form bound to boxID and bidder.
func (s *Service) NewForm(boxID uint64, bidder common.Address) *Form {
	return &Form{service: s, boxID: boxID, bidder: bidder}
}

// Submit places a bid of amount, superseding any earlier Submit.
func (f *Form) Submit(ctx context.Context, amount string) (*core.BidSubmission, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	gen := f.generation.Inc()
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = cancel
	f.mu.Unlock()

	current := func() bool { return f.generation.Load() == gen }

	sub, err := f.service.submit(ctx, f.boxID, amount, f.bidder, current)
	if !current() {
		return nil, ErrSuperseded
	}
	return sub, err
}

// Close cancels the submission in flight, if any. Its result is discarded.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation.Inc()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
