package sealing

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxamacker/cbor/v2"
)

const envelopeVersion uint8 = 1

// envelope is the CBOR structure carried in a hybrid sealed bid's
// encrypted value.
type envelope struct {
	Version       uint8  `cbor:"1,keyasint"`
	HashAlgorithm string `cbor:"2,keyasint,omitempty"`
	EncryptedKey  []byte `cbor:"3,keyasint"`
	Nonce         []byte `cbor:"4,keyasint"`
	Ciphertext    []byte `cbor:"5,keyasint"`
}

// OpenedBid is the plaintext of a hybrid sealed bid. The salt is never part
// of it.
type OpenedBid struct {
	Amount string `json:"amount"`
	BoxID  uint64 `json:"box_id"`
}

// ForBox returns ErrBoxMismatch unless the bid was sealed for boxID.
func (b *OpenedBid) ForBox(boxID uint64) error {
	if b.BoxID != boxID {
		return fmt.Errorf("%w: sealed for box %d, expected %d", ErrBoxMismatch, b.BoxID, boxID)
	}
	return nil
}

var envelopeEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("sealing: invalid CBOR options: %v", err))
	}
	return mode
}()

// encode returns the 0x-prefixed hex of the deterministic CBOR encoding.
func (e *envelope) encode() (string, error) {
	data, err := envelopeEncMode.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return hexutil.Encode(data), nil
}

// decodeEnvelope parses the output of envelope.encode.
func decodeEnvelope(encryptedValue string) (*envelope, error) {
	data, err := hexutil.Decode(encryptedValue)
	if err != nil {
		return nil, fmt.Errorf("decode envelope hex: %w", err)
	}

	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}

	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.Version)
	}

	return &env, nil
}
