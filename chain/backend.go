// Package chain is the boundary to the SecretLootBid contract. Everything
// behind Backend (signing, broadcast, mining) happens outside this module.
package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrReceiptNotFound means the transaction is not mined yet.
	ErrReceiptNotFound = errors.New("transaction receipt not found")
	// ErrTransactionReverted means the contract rejected the call.
	ErrTransactionReverted = errors.New("transaction reverted")
)

// Receipt status values.
const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

// CallMsg is a contract call or transaction request.
type CallMsg struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *uint256.Int
}

// Receipt is the subset of a transaction receipt this module reads.
type Receipt struct {
	TxHash      common.Hash
	Status      uint64
	BlockNumber uint64
}

// Backend is the wallet/node the service talks to.
type Backend interface {
	// ChainID returns the chain the backend is connected to.
	ChainID(ctx context.Context) (*big.Int, error)

	// SendTransaction asks the wallet to sign and broadcast msg.
	SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error)

	// TransactionReceipt returns ErrReceiptNotFound while the tx is pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)

	// CallContract executes a read-only call at the latest block.
	CallContract(ctx context.Context, msg CallMsg) ([]byte, error)

	// BalanceAt returns the balance of addr in wei.
	BalanceAt(ctx context.Context, addr common.Address) (*uint256.Int, error)
}
