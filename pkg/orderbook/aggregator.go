package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// AveragePricePlaces is the number of fractional digits of the average price.
const AveragePricePlaces = 4

type ExecutionSummary struct {
	Instrument   string
	Count        int
	Volume       int64
	Notional     decimal.Decimal
	AveragePrice decimal.Decimal
	LastPrice    decimal.Decimal
	FirstAt      time.Time
	LastAt       time.Time
}

// AveragePrice is the volume weighted execution price, sum(price*|qty|) /
// sum(|qty|), divided exactly and rounded once to four places, half up.
func AveragePrice(execs []Execution) (decimal.Decimal, error) {
	notional, volume := decimal.Zero, decimal.Zero
	for _, e := range execs {
		qty := decimal.NewFromInt(e.Quantity())
		notional = notional.Add(e.Price().Mul(qty))
		volume = volume.Add(qty)
	}
	if volume.IsZero() {
		return decimal.Zero, ErrEmptyLedger
	}
	return notional.DivRound(volume, AveragePricePlaces), nil
}

func Summarize(instrument string, execs []Execution) (ExecutionSummary, error) {
	avg, err := AveragePrice(execs)
	if err != nil {
		return ExecutionSummary{Instrument: instrument}, err
	}

	summary := ExecutionSummary{
		Instrument:   instrument,
		Count:        len(execs),
		Notional:     decimal.Zero,
		AveragePrice: avg,
	}
	for _, e := range execs {
		summary.Volume += e.Quantity()
		summary.Notional = summary.Notional.Add(e.Notional())
	}
	first, last := execs[0], execs[len(execs)-1]
	summary.FirstAt = first.ExecutedAt
	summary.LastAt = last.ExecutedAt
	summary.LastPrice = last.Price()
	return summary, nil
}

// AverageExecutedPrice returns ErrEmptyLedger for an instrument without executions.
func (s *OrderBookManager) AverageExecutedPrice(instrument string) (decimal.Decimal, error) {
	return AveragePrice(s.Executions(instrument))
}

func (s *OrderBookManager) Summary(instrument string) (ExecutionSummary, error) {
	return Summarize(instrument, s.Executions(instrument))
}
