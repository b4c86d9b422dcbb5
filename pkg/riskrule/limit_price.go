package riskrule

import (
	"fmt"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/shopspring/decimal"
)

type limitPrice struct {
	ceil  decimal.Decimal
	floor decimal.Decimal
}

// LimitPriceRule keeps prices inside a per-instrument band. Instruments
// without a band are not checked.
type LimitPriceRule struct {
	prices map[string]*limitPrice
}

func NewLimitPriceRule() *LimitPriceRule {
	return &LimitPriceRule{prices: make(map[string]*limitPrice)}
}

// SetBand parses floor and ceil. Either may be empty to leave that side open.
func (r *LimitPriceRule) SetBand(instrument, floor, ceil string) error {
	band := &limitPrice{}
	var err error
	if floor != "" {
		if band.floor, err = decimal.NewFromString(floor); err != nil {
			return fmt.Errorf("floor for %s: %w", instrument, err)
		}
	}
	if ceil != "" {
		if band.ceil, err = decimal.NewFromString(ceil); err != nil {
			return fmt.Errorf("ceil for %s: %w", instrument, err)
		}
		if band.ceil.LessThan(band.floor) {
			return fmt.Errorf("ceil below floor for %s", instrument)
		}
	}
	r.prices[instrument] = band
	return nil
}

func (r *LimitPriceRule) Check(order *orderbook.Order) error {
	band, ok := r.prices[order.Instrument]
	if !ok {
		return nil
	}
	if !band.ceil.IsZero() && order.Price.GreaterThan(band.ceil) {
		return fmt.Errorf("%w: %s above %s", ErrPriceLimit, order.Price, band.ceil)
	}
	if order.Price.LessThan(band.floor) {
		return fmt.Errorf("%w: %s below %s", ErrPriceLimit, order.Price, band.floor)
	}
	return nil
}
