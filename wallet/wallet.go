// Package wallet reads what the front end shows about a connected account:
// its balance and its standing with the auction contract.
package wallet

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/secretlootbid/chain"
)

const (
	// EtherDecimals is the number of decimals between wei and ETH.
	EtherDecimals int32 = 18
	// DisplayPrecision is how many ETH decimals are shown to users.
	DisplayPrecision int32 = 4
	// Symbol is the native currency symbol of the supported chains.
	Symbol = "ETH"
)

// Account is the summary shown next to the connect button.
type Account struct {
	Address        common.Address `json:"address"`
	BalanceWei     string         `json:"balance_wei"`
	BalanceDisplay string         `json:"balance"`
	Symbol         string         `json:"symbol"`
	TotalBids      string         `json:"total_bids"`
	Reputation     string         `json:"reputation"`
}

// Reader resolves Account summaries.
type Reader struct {
	backend  chain.Backend
	contract *chain.Contract
}

// NewReader returns a Reader. contract may be nil, in which case bid counts
// and reputation are reported as "0".
func NewReader(backend chain.Backend, contract *chain.Contract) *Reader {
	return &Reader{backend: backend, contract: contract}
}

// Account loads the summary for addr.
func (r *Reader) Account(ctx context.Context, addr common.Address) (*Account, error) {
	balance, err := r.backend.BalanceAt(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}

	account := &Account{
		Address:        addr,
		BalanceWei:     balance.Dec(),
		BalanceDisplay: FormatEther(balance),
		Symbol:         Symbol,
		TotalBids:      "0",
		Reputation:     "0",
	}

	if r.contract == nil {
		return account, nil
	}

	total, err := r.contract.TotalBids(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("read total bids: %w", err)
	}
	account.TotalBids = total.String()

	reputation, err := r.contract.BidderReputation(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("read reputation: %w", err)
	}
	account.Reputation = reputation.String()

	return account, nil
}

// FormatEther renders wei as ETH with DisplayPrecision decimals, e.g. "1.5000".
func FormatEther(wei *uint256.Int) string {
	if wei == nil {
		return decimal.Zero.StringFixed(DisplayPrecision)
	}
	return decimal.NewFromBigInt(wei.ToBig(), -EtherDecimals).StringFixed(DisplayPrecision)
}

// ParseEther converts a decimal ETH amount to wei. Fractions below one wei
// are rejected.
func ParseEther(amount decimal.Decimal) (*uint256.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", amount)
	}
	wei := amount.Shift(EtherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, EtherDecimals)
	}
	value, overflow := uint256.FromBig(wei.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount %s overflows 256 bits", amount)
	}
	return value, nil
}
