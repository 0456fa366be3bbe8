package chain

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// SimulatedBackend is an in-memory Backend that mines every transaction
// immediately and models the read side of the SecretLootBid contract.
// It is used by tests and the demo server.
type SimulatedBackend struct {
	mu sync.Mutex

	abi     abi.ABI
	chainID *big.Int
	nonce   uint64
	block   uint64

	sent       []CallMsg
	receipts   map[common.Hash]*Receipt
	pending    map[common.Hash]int
	balances   map[common.Address]*uint256.Int
	totalBids  map[common.Address]uint64
	reputation map[common.Address]uint64

	sendErr      error
	revert       func(CallMsg) bool
	confirmDelay int
}

// NewSimulatedBackend creates a SimulatedBackend for chainID.
func NewSimulatedBackend(chainID uint64) (*SimulatedBackend, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, err
	}
	return &SimulatedBackend{
		abi:        parsed,
		chainID:    new(big.Int).SetUint64(chainID),
		receipts:   make(map[common.Hash]*Receipt),
		pending:    make(map[common.Hash]int),
		balances:   make(map[common.Address]*uint256.Int),
		totalBids:  make(map[common.Address]uint64),
		reputation: make(map[common.Address]uint64),
	}, nil
}

// SetBalance sets the wei balance reported for addr.
func (s *SimulatedBackend) SetBalance(addr common.Address, wei *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[addr] = new(uint256.Int).Set(wei)
}

// SetReputation sets the reputation reported for addr.
func (s *SimulatedBackend) SetReputation(addr common.Address, score uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reputation[addr] = score
}

// FailSends makes SendTransaction return err. Pass nil to clear.
func (s *SimulatedBackend) FailSends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// RevertWhen makes matching transactions mine with a failed status.
func (s *SimulatedBackend) RevertWhen(fn func(CallMsg) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revert = fn
}

// SetConfirmationDelay makes each new transaction report ErrReceiptNotFound
// for the next polls receipt lookups.
func (s *SimulatedBackend) SetConfirmationDelay(polls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmDelay = polls
}

// Sent returns a copy of every accepted transaction.
func (s *SimulatedBackend) Sent() []CallMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CallMsg, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *SimulatedBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.chainID), nil
}

func (s *SimulatedBackend) SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendErr != nil {
		return common.Hash{}, s.sendErr
	}

	s.nonce++
	s.block++
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], s.nonce)
	hash := crypto.Keccak256Hash(msg.From.Bytes(), nonce[:], msg.Data)

	status := ReceiptStatusSuccessful
	if s.revert != nil && s.revert(msg) {
		status = ReceiptStatusFailed
	}

	if status == ReceiptStatusSuccessful && s.isMethod(msg.Data, methodPlaceBid) {
		s.totalBids[msg.From]++
	}

	s.sent = append(s.sent, msg)
	s.receipts[hash] = &Receipt{TxHash: hash, Status: status, BlockNumber: s.block}
	if s.confirmDelay > 0 {
		s.pending[hash] = s.confirmDelay
	}
	return hash, nil
}

func (s *SimulatedBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if remaining := s.pending[hash]; remaining > 0 {
		s.pending[hash] = remaining - 1
		return nil, ErrReceiptNotFound
	}
	receipt, ok := s.receipts[hash]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	copied := *receipt
	return &copied, nil
}

func (s *SimulatedBackend) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("calldata too short")
	}

	method, err := s.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch method.Name {
	case methodGetTotalBids, methodGetBidderReputation:
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, fmt.Errorf("unpack %s args: %w", method.Name, err)
		}
		bidder, ok := args[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("unexpected %s argument type %T", method.Name, args[0])
		}
		value := s.totalBids[bidder]
		if method.Name == methodGetBidderReputation {
			value = s.reputation[bidder]
		}
		return method.Outputs.Pack(new(big.Int).SetUint64(value))
	default:
		return nil, fmt.Errorf("simulated backend does not implement %s", method.Name)
	}
}

func (s *SimulatedBackend) BalanceAt(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if balance, ok := s.balances[addr]; ok {
		return new(uint256.Int).Set(balance), nil
	}
	return new(uint256.Int), nil
}

func (s *SimulatedBackend) isMethod(data []byte, name string) bool {
	if len(data) < 4 {
		return false
	}
	method, err := s.abi.MethodById(data[:4])
	return err == nil && method.Name == name
}
