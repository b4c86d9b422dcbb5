package orderbook

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchFound is the expected outcome when no resting order offsets
	// the submitted one. The order stays in the book.
	ErrNoMatchFound = errors.New("matching order not found")

	// ErrQuantityMismatch is returned under the abort policy when the scan
	// meets a candidate whose quantity does not offset the new order.
	ErrQuantityMismatch = fmt.Errorf("%w: quantity for order different", ErrNoMatchFound)

	// ErrEmptyLedger is returned by price aggregation when an instrument has
	// no executions yet.
	ErrEmptyLedger = errors.New("no executions for instrument")

	errInvalidOrder  = errors.New("invalid order")
	errInvalidPolicy = errors.New("invalid matching policy")
)
