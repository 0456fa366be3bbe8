package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SecretLootBidABI describes the auction contract functions this service
// calls or exposes. The contract itself lives on chain.
const SecretLootBidABI = `[
	{"type":"function","name":"createLootBox","stateMutability":"nonpayable",
	 "inputs":[{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"minBid","type":"uint256"},{"name":"duration","type":"uint256"}],
	 "outputs":[{"name":"boxId","type":"uint256"}]},
	{"type":"function","name":"placeBid","stateMutability":"payable",
	 "inputs":[{"name":"boxId","type":"uint256"},{"name":"encryptedValue","type":"bytes"},{"name":"proof","type":"bytes"}],
	 "outputs":[{"name":"bidId","type":"uint256"}]},
	{"type":"function","name":"revealBid","stateMutability":"nonpayable",
	 "inputs":[{"name":"bidId","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"salt","type":"bytes"}],
	 "outputs":[]},
	{"type":"function","name":"revealLootBox","stateMutability":"nonpayable",
	 "inputs":[{"name":"boxId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claimLootBox","stateMutability":"nonpayable",
	 "inputs":[{"name":"boxId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdrawFunds","stateMutability":"nonpayable",
	 "inputs":[],"outputs":[]},
	{"type":"function","name":"getLootBoxInfo","stateMutability":"view",
	 "inputs":[{"name":"boxId","type":"uint256"}],
	 "outputs":[{"name":"name","type":"string"},{"name":"minBid","type":"uint256"},{"name":"endTime","type":"uint256"},{"name":"bidCount","type":"uint256"},{"name":"revealed","type":"bool"}]},
	{"type":"function","name":"getBidInfo","stateMutability":"view",
	 "inputs":[{"name":"bidId","type":"uint256"}],
	 "outputs":[{"name":"boxId","type":"uint256"},{"name":"bidder","type":"address"},{"name":"revealed","type":"bool"}]},
	{"type":"function","name":"getBidderReputation","stateMutability":"view",
	 "inputs":[{"name":"bidder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getTotalBids","stateMutability":"view",
	 "inputs":[{"name":"bidder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const (
	methodPlaceBid            = "placeBid"
	methodGetTotalBids        = "getTotalBids"
	methodGetBidderReputation = "getBidderReputation"
)

// ParseABI parses SecretLootBidABI.
func ParseABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(SecretLootBidABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract ABI: %w", err)
	}
	return parsed, nil
}

// ContractPayload is a sealed bid in the byte form the contract expects.
type ContractPayload struct {
	EncryptedValue []byte
	Proof          []byte
}

// FormatForContract decodes the 0x-hex strings produced by a sealer.
func FormatForContract(encryptedValue, proof string) (*ContractPayload, error) {
	enc, err := hexutil.Decode(encryptedValue)
	if err != nil {
		return nil, fmt.Errorf("encrypted value is not 0x-hex: %w", err)
	}
	prf, err := hexutil.Decode(proof)
	if err != nil {
		return nil, fmt.Errorf("proof is not 0x-hex: %w", err)
	}
	return &ContractPayload{EncryptedValue: enc, Proof: prf}, nil
}

// PackPlaceBid returns the calldata for placeBid(boxId, encryptedValue, proof).
func PackPlaceBid(contractABI abi.ABI, boxID uint64, payload *ContractPayload) ([]byte, error) {
	data, err := contractABI.Pack(methodPlaceBid, new(big.Int).SetUint64(boxID), payload.EncryptedValue, payload.Proof)
	if err != nil {
		return nil, fmt.Errorf("pack placeBid: %w", err)
	}
	return data, nil
}
