package chain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultPollInterval is how often WaitConfirmed polls for a receipt.
const DefaultPollInterval = 2 * time.Second

// TxHandle identifies a submitted transaction.
type TxHandle struct {
	Hash common.Hash
	From common.Address
}

// Contract binds the SecretLootBid ABI to an address and a Backend.
type Contract struct {
	address      common.Address
	backend      Backend
	abi          abi.ABI
	pollInterval time.Duration
}

// NewContract returns a Contract at address. A zero pollInterval uses
// DefaultPollInterval.
func NewContract(address common.Address, backend Backend, pollInterval time.Duration) (*Contract, error) {
	if backend == nil {
		return nil, fmt.Errorf("contract requires a backend")
	}
	parsed, err := ParseABI()
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Contract{
		address:      address,
		backend:      backend,
		abi:          parsed,
		pollInterval: pollInterval,
	}, nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// PlaceBid submits placeBid(boxID, encryptedValue, proof) from the bidder's
// account. The commitment is not part of the call.
func (c *Contract) PlaceBid(ctx context.Context, from common.Address, boxID uint64, encryptedValue, proof string) (TxHandle, error) {
	payload, err := FormatForContract(encryptedValue, proof)
	if err != nil {
		return TxHandle{}, err
	}

	data, err := PackPlaceBid(c.abi, boxID, payload)
	if err != nil {
		return TxHandle{}, err
	}

	hash, err := c.backend.SendTransaction(ctx, CallMsg{From: from, To: c.address, Data: data})
	if err != nil {
		return TxHandle{}, err
	}

	log.Printf("INFO: placeBid sent for box %d from %s: tx=%s", boxID, from.Hex(), hash.Hex())
	return TxHandle{Hash: hash, From: from}, nil
}

// WaitConfirmed polls until tx is mined. A failed status returns
// ErrTransactionReverted.
func (c *Contract) WaitConfirmed(ctx context.Context, tx TxHandle) (*Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, tx.Hash)
		switch {
		case err == nil:
			if receipt.Status != ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: tx %s", ErrTransactionReverted, tx.Hash.Hex())
			}
			return receipt, nil
		case !errors.Is(err, ErrReceiptNotFound):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// TotalBids returns getTotalBids(bidder).
func (c *Contract) TotalBids(ctx context.Context, bidder common.Address) (*big.Int, error) {
	return c.callUint(ctx, methodGetTotalBids, bidder)
}

// BidderReputation returns getBidderReputation(bidder).
func (c *Contract) BidderReputation(ctx context.Context, bidder common.Address) (*big.Int, error) {
	return c.callUint(ctx, methodGetBidderReputation, bidder)
}

func (c *Contract) callUint(ctx context.Context, method string, args ...any) (*big.Int, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := c.backend.CallContract(ctx, CallMsg{To: c.address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values, want 1", method, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want *big.Int", method, values[0])
	}
	return value, nil
}
