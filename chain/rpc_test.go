package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

// fakeEthAPI serves the eth_ methods RPCBackend uses.
type fakeEthAPI struct {
	lastTx   map[string]any
	receipts map[common.Hash]*rpcReceipt
}

func (f *fakeEthAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(11155111))
}

func (f *fakeEthAPI) SendTransaction(args map[string]any) (common.Hash, error) {
	f.lastTx = args
	if args["data"] == "0xdead" {
		return common.Hash{}, errors.New("execution reverted")
	}
	hash := common.HexToHash("0xabc1")
	f.receipts[hash] = &rpcReceipt{TransactionHash: hash, Status: 1, BlockNumber: 42}
	return hash, nil
}

func (f *fakeEthAPI) GetTransactionReceipt(hash common.Hash) (*rpcReceipt, error) {
	return f.receipts[hash], nil
}

func (f *fakeEthAPI) Call(args map[string]any, block string) (hexutil.Bytes, error) {
	return hexutil.Bytes{0x01, 0x02}, nil
}

func (f *fakeEthAPI) GetBalance(addr common.Address, block string) (*hexutil.Big, error) {
	return (*hexutil.Big)(big.NewInt(1_500_000_000_000_000_000)), nil
}

func newInProcBackend(t *testing.T) (*RPCBackend, *fakeEthAPI) {
	t.Helper()
	api := &fakeEthAPI{receipts: make(map[common.Hash]*rpcReceipt)}
	server := rpc.NewServer()
	assert.NoError(t, server.RegisterName("eth", api))
	t.Cleanup(server.Stop)

	backend := NewRPCBackend(rpc.DialInProc(server))
	t.Cleanup(backend.Close)
	return backend, api
}

func TestRPCBackend_ChainID(t *testing.T) {
	backend, _ := newInProcBackend(t)

	id, err := backend.ChainID(context.Background())
	assert.NoError(t, err)
	check.Equal(t, int64(11155111), id.Int64())
}

func TestRPCBackend_SendAndReceipt(t *testing.T) {
	backend, api := newInProcBackend(t)
	ctx := context.Background()

	hash, err := backend.SendTransaction(ctx, CallMsg{
		From:  testBidder,
		To:    testContract,
		Data:  []byte{0xbe, 0xef},
		Value: uint256.NewInt(5),
	})
	assert.NoError(t, err)
	check.Equal(t, common.HexToHash("0xabc1"), hash)
	check.Equal(t, "0xbeef", api.lastTx["data"])
	check.Equal(t, "0x5", api.lastTx["value"])

	receipt, err := backend.TransactionReceipt(ctx, hash)
	assert.NoError(t, err)
	check.Equal(t, ReceiptStatusSuccessful, receipt.Status)
	check.Equal(t, uint64(42), receipt.BlockNumber)

	_, err = backend.TransactionReceipt(ctx, common.HexToHash("0x99"))
	check.True(t, errors.Is(err, ErrReceiptNotFound))
}

func TestRPCBackend_SendRejected(t *testing.T) {
	backend, _ := newInProcBackend(t)

	_, err := backend.SendTransaction(context.Background(), CallMsg{From: testBidder, To: testContract, Data: []byte{0xde, 0xad}})
	check.Error(t, err)
}

func TestRPCBackend_CallAndBalance(t *testing.T) {
	backend, _ := newInProcBackend(t)
	ctx := context.Background()

	out, err := backend.CallContract(ctx, CallMsg{To: testContract, Data: []byte{0x01}})
	assert.NoError(t, err)
	check.Equal(t, []byte{0x01, 0x02}, out)

	balance, err := backend.BalanceAt(ctx, testBidder)
	assert.NoError(t, err)
	check.Equal(t, "1500000000000000000", balance.Dec())
}
