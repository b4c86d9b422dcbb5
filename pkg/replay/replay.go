// Package replay feeds a file of orders through risk checks and the matching
// engine and reports the resulting books.
package replay

import (
	"context"
	"fmt"
	"os"

	"github.com/joripage/exchange-matcher/pkg/logging"
	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/joripage/exchange-matcher/pkg/riskrule"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type OrderEntry struct {
	Instrument string `yaml:"instrument"`
	Side       string `yaml:"side"`
	Price      string `yaml:"price"`
	Quantity   int64  `yaml:"quantity"`
	Party      string `yaml:"party"`
}

type orderFile struct {
	Orders []OrderEntry `yaml:"orders"`
}

func (s OrderEntry) Order() (*orderbook.Order, error) {
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", s.Price, err)
	}
	return orderbook.NewOrder(s.Instrument, price, s.Quantity, orderbook.Side(s.Side), s.Party), nil
}

func LoadOrders(path string) ([]OrderEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOrders(raw)
}

func ParseOrders(raw []byte) ([]OrderEntry, error) {
	var f orderFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f.Orders, nil
}

type Outcome string

const (
	OutcomeExecuted Outcome = "executed"
	OutcomeResting  Outcome = "resting"
	OutcomeRejected Outcome = "rejected"
)

type Result struct {
	Entry   OrderEntry
	Outcome Outcome
	Err     error
}

type InstrumentReport struct {
	Instrument     string
	OpenOrders     []orderbook.Order
	ExecutedOrders []orderbook.Order
	BuyDepth       int
	SellDepth      int
	AveragePrice   *decimal.Decimal
}

type Report struct {
	Results     []Result
	Instruments []InstrumentReport
}

type Runner struct {
	engine *orderbook.OrderBookManager
	rules  riskrule.RiskRule
	logger *zap.Logger
}

func NewRunner(engine *orderbook.OrderBookManager, rules riskrule.RiskRule, logger *zap.Logger) *Runner {
	if rules == nil {
		rules = riskrule.Chain{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: engine, rules: rules, logger: logger}
}

// Run submits entries in order. A rejected or unmatched order never stops the run.
func (r *Runner) Run(ctx context.Context, entries []OrderEntry) *Report {
	report := &Report{}
	for _, entry := range entries {
		report.Results = append(report.Results, r.submit(logging.NewRequestContext(ctx), entry))
	}

	for _, instrument := range r.engine.Instruments() {
		snap := r.engine.Snapshot(instrument)
		ir := InstrumentReport{
			Instrument:     instrument,
			OpenOrders:     snap.Open,
			ExecutedOrders: make([]orderbook.Order, 0, len(snap.Executions)),
			BuyDepth:       r.engine.Depth(instrument, orderbook.BUY),
			SellDepth:      r.engine.Depth(instrument, orderbook.SELL),
		}
		for _, e := range snap.Executions {
			ir.ExecutedOrders = append(ir.ExecutedOrders, e.Incoming)
		}
		if avg, err := orderbook.AveragePrice(snap.Executions); err == nil {
			ir.AveragePrice = &avg
		}
		report.Instruments = append(report.Instruments, ir)
	}
	return report
}

func (r *Runner) submit(ctx context.Context, entry OrderEntry) Result {
	log := logging.FromContext(ctx, r.logger)

	order, err := entry.Order()
	if err == nil {
		err = r.rules.Check(order)
	}
	if err != nil {
		log.Warn("order rejected", zap.Any("order", entry), zap.Error(err))
		return Result{Entry: entry, Outcome: OutcomeRejected, Err: err}
	}

	_, err = r.engine.Submit(ctx, order)
	switch {
	case err == nil:
		log.Info("order executed", zap.String("order_id", order.ID), zap.String("instrument", order.Instrument))
		return Result{Entry: entry, Outcome: OutcomeExecuted}
	case orderbook.IsNoMatch(err):
		log.Debug("order resting", zap.String("order_id", order.ID), zap.Error(err))
		return Result{Entry: entry, Outcome: OutcomeResting, Err: err}
	default:
		log.Warn("order rejected by engine", zap.String("order_id", order.ID), zap.Error(err))
		return Result{Entry: entry, Outcome: OutcomeRejected, Err: err}
	}
}
