package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// RPCBackend talks JSON-RPC to a node or wallet that holds the bidder's
// account. Transactions are signed on the other side via eth_sendTransaction.
type RPCBackend struct {
	client *rpc.Client
}

// DialRPC connects to rawURL (http, https, ws or ipc).
func DialRPC(ctx context.Context, rawURL string) (*RPCBackend, error) {
	client, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return NewRPCBackend(client), nil
}

// NewRPCBackend wraps an existing client.
func NewRPCBackend(client *rpc.Client) *RPCBackend {
	return &RPCBackend{client: client}
}

// Close closes the underlying client.
func (b *RPCBackend) Close() {
	b.client.Close()
}

type rpcTxArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Value *hexutil.Big    `json:"value,omitempty"`
}

func toTxArgs(msg CallMsg) rpcTxArgs {
	to := msg.To
	args := rpcTxArgs{From: msg.From, To: &to, Data: msg.Data}
	if msg.Value != nil {
		args.Value = (*hexutil.Big)(msg.Value.ToBig())
	}
	return args
}

type rpcReceipt struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	Status          hexutil.Uint64 `json:"status"`
	BlockNumber     hexutil.Uint64 `json:"blockNumber"`
}

func (b *RPCBackend) ChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := b.client.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return (*big.Int)(&result), nil
}

func (b *RPCBackend) SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error) {
	var hash common.Hash
	if err := b.client.CallContext(ctx, &hash, "eth_sendTransaction", toTxArgs(msg)); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	return hash, nil
}

func (b *RPCBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var raw *rpcReceipt
	if err := b.client.CallContext(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: %w", err)
	}
	if raw == nil {
		return nil, ErrReceiptNotFound
	}
	return &Receipt{
		TxHash:      raw.TransactionHash,
		Status:      uint64(raw.Status),
		BlockNumber: uint64(raw.BlockNumber),
	}, nil
}

func (b *RPCBackend) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	var result hexutil.Bytes
	if err := b.client.CallContext(ctx, &result, "eth_call", toTxArgs(msg), "latest"); err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	return result, nil
}

func (b *RPCBackend) BalanceAt(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	var result hexutil.Big
	if err := b.client.CallContext(ctx, &result, "eth_getBalance", addr, "latest"); err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	balance, overflow := uint256.FromBig((*big.Int)(&result))
	if overflow {
		return nil, fmt.Errorf("balance of %s overflows 256 bits", addr.Hex())
	}
	return balance, nil
}
