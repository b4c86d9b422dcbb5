package orderbook

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Execution pairs the resting order that was consumed with the incoming order
// that triggered the match. The execution price is the incoming order's price.
type Execution struct {
	ID         string
	Seq        uint64
	Resting    Order
	Incoming   Order
	ExecutedAt time.Time
}

func newExecution(seq uint64, resting, incoming *Order) Execution {
	return Execution{
		ID:         uuid.NewString(),
		Seq:        seq,
		Resting:    *resting,
		Incoming:   *incoming,
		ExecutedAt: time.Now(),
	}
}

func (e Execution) Instrument() string {
	return e.Incoming.Instrument
}

func (e Execution) Price() decimal.Decimal {
	return e.Incoming.Price
}

func (e Execution) Quantity() int64 {
	return e.Incoming.AbsQuantity()
}

// Notional is price times absolute quantity.
func (e Execution) Notional() decimal.Decimal {
	return e.Incoming.Price.Mul(decimal.NewFromInt(e.Quantity()))
}

func (e Execution) String() string {
	return fmt.Sprintf("Execution{seq=%d resting=%s incoming=%s}", e.Seq, e.Resting.ID, e.Incoming.ID)
}
