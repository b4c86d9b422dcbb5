package riskrule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(price string, qty int64, side orderbook.Side) *orderbook.Order {
	return orderbook.NewOrder("VOD.L", decimal.RequireFromString(price), qty, side, "u")
}

func TestSideQuantityRule(t *testing.T) {
	rule := SideQuantityRule{}

	assert.NoError(t, rule.Check(order("100", 10, orderbook.BUY)))
	assert.NoError(t, rule.Check(order("100", -10, orderbook.SELL)))
	assert.ErrorIs(t, rule.Check(order("100", -10, orderbook.BUY)), ErrQuantitySide)
	assert.ErrorIs(t, rule.Check(order("100", 10, orderbook.SELL)), ErrQuantitySide)
	assert.ErrorIs(t, rule.Check(order("100", 0, orderbook.BUY)), ErrQuantitySide)
	assert.ErrorIs(t, rule.Check(order("0", 10, orderbook.BUY)), ErrPriceLimit)
}

func TestLimitPriceRule(t *testing.T) {
	rule := NewLimitPriceRule()
	require.NoError(t, rule.SetBand("VOD.L", "50", "150"))

	assert.NoError(t, rule.Check(order("100", 1, orderbook.BUY)))
	assert.NoError(t, rule.Check(order("150", 1, orderbook.BUY)))
	assert.ErrorIs(t, rule.Check(order("150.01", 1, orderbook.BUY)), ErrPriceLimit)
	assert.ErrorIs(t, rule.Check(order("49.99", 1, orderbook.BUY)), ErrPriceLimit)

	other := orderbook.NewOrder("BP.L", decimal.NewFromInt(1000), 1, orderbook.BUY, "u")
	assert.NoError(t, rule.Check(other))

	assert.Error(t, rule.SetBand("X", "10", "5"))
	assert.Error(t, rule.SetBand("X", "abc", ""))
}

func TestTickSizeRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tick.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"VOD.L": [
			{"maxPrice": "10", "step": "0.0001"},
			{"maxPrice": "100", "step": "0.01"},
			{"maxPrice": "0", "step": "0.1"}
		]
	}`), 0o600))

	rule, err := NewTickSizeRuleFromFile(path)
	require.NoError(t, err)

	assert.NoError(t, rule.Check(order("9.1234", 1, orderbook.BUY)))
	assert.NoError(t, rule.Check(order("99.99", 1, orderbook.BUY)))
	assert.ErrorIs(t, rule.Check(order("99.995", 1, orderbook.BUY)), ErrInvalidTickSize)
	assert.NoError(t, rule.Check(order("100.2", 1, orderbook.BUY)))
	assert.ErrorIs(t, rule.Check(order("100.25", 1, orderbook.BUY)), ErrInvalidTickSize)

	_, err = NewTickSizeRuleFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestChainStopsAtFirstFailure(t *testing.T) {
	limits := NewLimitPriceRule()
	require.NoError(t, limits.SetBand("VOD.L", "", "10"))
	chain := Chain{SideQuantityRule{}, limits}

	assert.NoError(t, chain.Check(order("5", 1, orderbook.BUY)))
	assert.ErrorIs(t, chain.Check(order("50", -1, orderbook.BUY)), ErrQuantitySide)
	assert.ErrorIs(t, chain.Check(order("50", 1, orderbook.BUY)), ErrPriceLimit)
}
