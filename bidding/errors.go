package bidding

import (
	"errors"
	"fmt"
)

var (
	// ErrCommitmentMismatch means the sealer committed to something other
	// than the commitment computed alongside it. The bid is not forwarded.
	ErrCommitmentMismatch = errors.New("sealed commitment does not match computed commitment")

	// ErrSuperseded is returned by Form.Submit when a newer submission
	// replaced this one before it resolved.
	ErrSuperseded = errors.New("bid superseded by a newer submission")
)

// ExternalCallError reports a failure at the contract boundary: a rejected
// or failed send, a reverted transaction, or a confirmation timeout.
type ExternalCallError struct {
	Op  string
	Err error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("contract call %s failed: %v", e.Op, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}
