package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/secretlootbid/core"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testBidder   = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func newTestContract(t *testing.T) (*Contract, *SimulatedBackend) {
	t.Helper()
	backend, err := NewSimulatedBackend(11155111)
	assert.NoError(t, err)
	contract, err := NewContract(testContract, backend, time.Millisecond)
	assert.NoError(t, err)
	return contract, backend
}

func TestParseABI(t *testing.T) {
	parsed, err := ParseABI()
	assert.NoError(t, err)

	for _, name := range []string{
		"createLootBox", "placeBid", "revealBid", "revealLootBox", "claimLootBox",
		"withdrawFunds", "getLootBoxInfo", "getBidInfo", "getBidderReputation", "getTotalBids",
	} {
		_, ok := parsed.Methods[name]
		check.True(t, ok)
	}

	selector := crypto.Keccak256([]byte("placeBid(uint256,bytes,bytes)"))[:4]
	check.Equal(t, selector, parsed.Methods["placeBid"].ID)
}

func TestFormatForContract(t *testing.T) {
	payload, err := FormatForContract(core.ComputeCiphertextDigest("1"), core.ComputeProofDigest("1"))
	assert.NoError(t, err)
	check.Equal(t, 32, len(payload.EncryptedValue))
	check.Equal(t, 32, len(payload.Proof))

	_, err = FormatForContract("deadbeef", "0x00")
	check.Error(t, err)

	_, err = FormatForContract("0x00", "0xzz")
	check.Error(t, err)
}

func TestPackPlaceBid(t *testing.T) {
	parsed, err := ParseABI()
	assert.NoError(t, err)

	payload := &ContractPayload{EncryptedValue: []byte{0xaa, 0xbb}, Proof: []byte{0xcc}}
	data, err := PackPlaceBid(parsed, 7, payload)
	assert.NoError(t, err)

	check.True(t, bytes.Equal(parsed.Methods["placeBid"].ID, data[:4]))

	args, err := parsed.Methods["placeBid"].Inputs.Unpack(data[4:])
	assert.NoError(t, err)
	check.Equal(t, 0, args[0].(*big.Int).Cmp(big.NewInt(7)))
	check.Equal(t, payload.EncryptedValue, args[1].([]byte))
	check.Equal(t, payload.Proof, args[2].([]byte))
}

func TestContract_PlaceBidAndConfirm(t *testing.T) {
	contract, backend := newTestContract(t)
	ctx := context.Background()

	tx, err := contract.PlaceBid(ctx, testBidder, 3, core.ComputeCiphertextDigest("2"), core.ComputeProofDigest("2"))
	assert.NoError(t, err)
	check.Equal(t, testBidder, tx.From)

	receipt, err := contract.WaitConfirmed(ctx, tx)
	assert.NoError(t, err)
	check.Equal(t, ReceiptStatusSuccessful, receipt.Status)
	check.Equal(t, tx.Hash, receipt.TxHash)

	sent := backend.Sent()
	check.Equal(t, 1, len(sent))
	check.Equal(t, testContract, sent[0].To)
	check.Equal(t, testBidder, sent[0].From)

	total, err := contract.TotalBids(ctx, testBidder)
	assert.NoError(t, err)
	check.Equal(t, int64(1), total.Int64())
}

func TestContract_WaitConfirmed_Polls(t *testing.T) {
	contract, backend := newTestContract(t)
	backend.SetConfirmationDelay(3)

	tx, err := contract.PlaceBid(context.Background(), testBidder, 1, "0x01", "0x02")
	assert.NoError(t, err)

	receipt, err := contract.WaitConfirmed(context.Background(), tx)
	assert.NoError(t, err)
	check.Equal(t, ReceiptStatusSuccessful, receipt.Status)
}

func TestContract_WaitConfirmed_Reverted(t *testing.T) {
	contract, backend := newTestContract(t)
	backend.RevertWhen(func(CallMsg) bool { return true })

	tx, err := contract.PlaceBid(context.Background(), testBidder, 1, "0x01", "0x02")
	assert.NoError(t, err)

	_, err = contract.WaitConfirmed(context.Background(), tx)
	check.True(t, errors.Is(err, ErrTransactionReverted))

	// Reverted bids are not counted
	total, err := contract.TotalBids(context.Background(), testBidder)
	assert.NoError(t, err)
	check.Equal(t, int64(0), total.Int64())
}

func TestContract_WaitConfirmed_ContextCancelled(t *testing.T) {
	contract, backend := newTestContract(t)
	backend.SetConfirmationDelay(1_000_000)

	tx, err := contract.PlaceBid(context.Background(), testBidder, 1, "0x01", "0x02")
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = contract.WaitConfirmed(ctx, tx)
	check.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestContract_PlaceBid_SendFailure(t *testing.T) {
	contract, backend := newTestContract(t)
	rejected := errors.New("user rejected the request")
	backend.FailSends(rejected)

	_, err := contract.PlaceBid(context.Background(), testBidder, 1, "0x01", "0x02")
	check.True(t, errors.Is(err, rejected))
	check.Equal(t, 0, len(backend.Sent()))
}

func TestContract_PlaceBid_InvalidPayload(t *testing.T) {
	contract, backend := newTestContract(t)

	_, err := contract.PlaceBid(context.Background(), testBidder, 1, "not-hex", "0x02")
	check.Error(t, err)
	check.Equal(t, 0, len(backend.Sent()))
}

func TestContract_BidderReputation(t *testing.T) {
	contract, backend := newTestContract(t)
	backend.SetReputation(testBidder, 87)

	rep, err := contract.BidderReputation(context.Background(), testBidder)
	assert.NoError(t, err)
	check.Equal(t, int64(87), rep.Int64())

	other, err := contract.BidderReputation(context.Background(), common.HexToAddress("0x2222222222222222222222222222222222222222"))
	assert.NoError(t, err)
	check.Equal(t, int64(0), other.Int64())
}

func TestNewContract_RequiresBackend(t *testing.T) {
	_, err := NewContract(testContract, nil, 0)
	check.Error(t, err)
}
