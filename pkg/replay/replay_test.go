package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/joripage/exchange-matcher/pkg/riskrule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario = `
orders:
  - {instrument: VOD.L, side: SELL, price: "100.2", quantity: -1000, party: user1}
  - {instrument: VOD.L, side: BUY,  price: "100.2", quantity: 1000,  party: user2}
  - {instrument: VOD.L, side: BUY,  price: "99",    quantity: 1000,  party: user1}
  - {instrument: VOD.L, side: BUY,  price: "101",   quantity: 1000,  party: user1}
  - {instrument: VOD.L, side: SELL, price: "102",   quantity: -500,  party: user2}
  - {instrument: VOD.L, side: BUY,  price: "103",   quantity: 500,   party: user1}
  - {instrument: VOD.L, side: SELL, price: "98",    quantity: -1000, party: user2}
  - {instrument: VOD.L, side: BUY,  price: "98",    quantity: -5,    party: user3}
  - {instrument: BP.L,  side: BUY,  price: "abc",   quantity: 5,     party: user3}
  - {instrument: BP.L,  side: BUY,  price: "4.5",   quantity: 5,     party: user3}
`

func TestRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0o600))

	entries, err := LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, entries, 10)

	engine, err := orderbook.NewOrderBookManager(nil)
	require.NoError(t, err)
	report := NewRunner(engine, riskrule.Chain{riskrule.SideQuantityRule{}}, nil).Run(context.Background(), entries)

	outcomes := make([]Outcome, 0, len(report.Results))
	for _, r := range report.Results {
		outcomes = append(outcomes, r.Outcome)
	}
	assert.Equal(t, []Outcome{
		OutcomeResting, OutcomeExecuted,
		OutcomeResting, OutcomeResting, OutcomeResting, OutcomeExecuted,
		OutcomeExecuted,
		OutcomeRejected, OutcomeRejected, OutcomeResting,
	}, outcomes)

	require.Len(t, report.Instruments, 2)
	bp, vod := report.Instruments[0], report.Instruments[1]
	assert.Equal(t, "BP.L", bp.Instrument)
	assert.Nil(t, bp.AveragePrice)
	assert.Len(t, bp.OpenOrders, 1)

	assert.Equal(t, 1, bp.BuyDepth)
	assert.Equal(t, 0, bp.SellDepth)

	assert.Equal(t, "VOD.L", vod.Instrument)
	assert.Len(t, vod.OpenOrders, 1)
	assert.Equal(t, 1, vod.BuyDepth)
	assert.Equal(t, 0, vod.SellDepth)
	assert.Len(t, vod.ExecutedOrders, 3)
	require.NotNil(t, vod.AveragePrice)
	assert.Equal(t, "99.8800", vod.AveragePrice.StringFixed(orderbook.AveragePricePlaces))
}

func TestReportPrint(t *testing.T) {
	engine, err := orderbook.NewOrderBookManager(nil)
	require.NoError(t, err)
	entries, err := ParseOrders([]byte(scenario))
	require.NoError(t, err)
	report := NewRunner(engine, riskrule.Chain{riskrule.SideQuantityRule{}}, nil).Run(context.Background(), entries)

	var out strings.Builder
	require.NoError(t, report.Print(&out))
	assert.Contains(t, out.String(), "== VOD.L")
	assert.Contains(t, out.String(), "(buy 1, sell 0)")
	assert.Contains(t, out.String(), "99.8800")
}

func TestParseOrdersInvalidYAML(t *testing.T) {
	_, err := ParseOrders([]byte("orders: ["))
	assert.Error(t, err)
}
