package riskrule

import (
	"errors"
	"fmt"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
)

var (
	ErrQuantitySide    = errors.New("quantity sign does not agree with side")
	ErrPriceLimit      = errors.New("price limit violation")
	ErrInvalidTickSize = errors.New("invalid tick size")
)

// RiskRule checks an order before it reaches the engine.
type RiskRule interface {
	Check(order *orderbook.Order) error
}

// Chain runs rules in order and stops at the first failure.
type Chain []RiskRule

func (c Chain) Check(order *orderbook.Order) error {
	for _, rule := range c {
		if err := rule.Check(order); err != nil {
			return err
		}
	}
	return nil
}

// SideQuantityRule requires a non-zero quantity, positive for buys and
// negative for sells, and a positive price.
type SideQuantityRule struct{}

func (SideQuantityRule) Check(order *orderbook.Order) error {
	switch {
	case order.Quantity == 0:
		return fmt.Errorf("%w: zero quantity", ErrQuantitySide)
	case order.Side == orderbook.BUY && order.Quantity < 0,
		order.Side == orderbook.SELL && order.Quantity > 0:
		return fmt.Errorf("%w: %s %d", ErrQuantitySide, order.Side, order.Quantity)
	case !order.Price.IsPositive():
		return fmt.Errorf("%w: price %s", ErrPriceLimit, order.Price)
	}
	return nil
}
