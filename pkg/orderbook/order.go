package orderbook

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

// Opposite returns the side an order of side s is matched against.
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

func (s Side) Valid() bool {
	return s == BUY || s == SELL
}

// Order is a single buy or sell intent for one instrument. Quantity is signed:
// buys are positive and sells negative, so two orders offset when their
// quantities sum to zero.
type Order struct {
	ID         string
	Instrument string
	Price      decimal.Decimal
	Quantity   int64
	Side       Side
	Party      string
	CreatedAt  time.Time
}

func NewOrder(instrument string, price decimal.Decimal, qty int64, side Side, party string) *Order {
	return &Order{
		ID:         uuid.NewString(),
		Instrument: instrument,
		Price:      price,
		Quantity:   qty,
		Side:       side,
		Party:      party,
		CreatedAt:  time.Now(),
	}
}

// Equal compares every field, including the generated id.
func (o *Order) Equal(other *Order) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.ID == other.ID &&
		o.Instrument == other.Instrument &&
		o.Price.Equal(other.Price) &&
		o.Quantity == other.Quantity &&
		o.Side == other.Side &&
		o.Party == other.Party
}

func (o *Order) AbsQuantity() int64 {
	if o.Quantity < 0 {
		return -o.Quantity
	}
	return o.Quantity
}

// offsets reports whether o and other have exactly opposite quantities.
func (o *Order) offsets(other *Order) bool {
	return o.Quantity+other.Quantity == 0
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%s instrument=%s side=%s price=%s qty=%d party=%s}",
		o.ID, o.Instrument, o.Side, o.Price.String(), o.Quantity, o.Party)
}
