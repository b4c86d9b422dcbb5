package ledger

import (
	"time"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/shopspring/decimal"
)

// ExecutionRecord is both the kafka event body and the executions table row.
type ExecutionRecord struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Instrument      string          `json:"instrument" gorm:"type:varchar(64);not null"`
	Seq             uint64          `json:"seq" gorm:"not null"`
	Price           decimal.Decimal `json:"price" gorm:"type:numeric(38,10);not null"`
	Quantity        int64           `json:"quantity" gorm:"not null"`
	IncomingOrderID string          `json:"incoming_order_id" gorm:"type:varchar(36);not null"`
	IncomingSide    string          `json:"incoming_side" gorm:"type:varchar(4);not null"`
	IncomingParty   string          `json:"incoming_party" gorm:"type:varchar(128);not null"`
	RestingOrderID  string          `json:"resting_order_id" gorm:"type:varchar(36);not null"`
	RestingSide     string          `json:"resting_side" gorm:"type:varchar(4);not null"`
	RestingParty    string          `json:"resting_party" gorm:"type:varchar(128);not null"`
	RestingPrice    decimal.Decimal `json:"resting_price" gorm:"type:numeric(38,10);not null"`
	ExecutedAt      time.Time       `json:"executed_at" gorm:"not null"`
	CreatedAt       time.Time       `json:"-"`
}

func (ExecutionRecord) TableName() string {
	return "executions"
}

// NewExecutionRecord flattens an execution. Quantity is the absolute traded
// quantity; the sides keep the direction.
func NewExecutionRecord(exec orderbook.Execution) *ExecutionRecord {
	return &ExecutionRecord{
		ID:              exec.ID,
		Instrument:      exec.Instrument(),
		Seq:             exec.Seq,
		Price:           exec.Price(),
		Quantity:        exec.Quantity(),
		IncomingOrderID: exec.Incoming.ID,
		IncomingSide:    string(exec.Incoming.Side),
		IncomingParty:   exec.Incoming.Party,
		RestingOrderID:  exec.Resting.ID,
		RestingSide:     string(exec.Resting.Side),
		RestingParty:    exec.Resting.Party,
		RestingPrice:    exec.Resting.Price,
		ExecutedAt:      exec.ExecutedAt,
	}
}

// Execution rebuilds the engine view of the record, enough for price
// aggregation.
func (r *ExecutionRecord) Execution() orderbook.Execution {
	incomingSide := orderbook.Side(r.IncomingSide)
	incomingQty := r.Quantity
	if incomingSide == orderbook.SELL {
		incomingQty = -incomingQty
	}
	return orderbook.Execution{
		ID:  r.ID,
		Seq: r.Seq,
		Incoming: orderbook.Order{
			ID:         r.IncomingOrderID,
			Instrument: r.Instrument,
			Price:      r.Price,
			Quantity:   incomingQty,
			Side:       incomingSide,
			Party:      r.IncomingParty,
		},
		Resting: orderbook.Order{
			ID:         r.RestingOrderID,
			Instrument: r.Instrument,
			Price:      r.RestingPrice,
			Quantity:   -incomingQty,
			Side:       orderbook.Side(r.RestingSide),
			Party:      r.RestingParty,
		},
		ExecutedAt: r.ExecutedAt,
	}
}

// Executions converts records in the order given.
func Executions(records []*ExecutionRecord) []orderbook.Execution {
	out := make([]orderbook.Execution, 0, len(records))
	for _, r := range records {
		out = append(out, r.Execution())
	}
	return out
}
