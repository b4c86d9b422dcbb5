package riskrule

import (
	"encoding/json"
	"os"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/shopspring/decimal"
)

type tickSizeConfig struct {
	MaxPrice decimal.Decimal `json:"maxPrice"` // 0 = no limit
	Step     decimal.Decimal `json:"step"`
}

// TickSizeRule holds price steps per instrument, ordered by ascending MaxPrice.
type TickSizeRule struct {
	Config map[string][]tickSizeConfig
}

func NewTickSizeRuleFromFile(path string) (*TickSizeRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewTickSizeRule(data)
}

func NewTickSizeRule(data []byte) (*TickSizeRule, error) {
	var cfg map[string][]tickSizeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &TickSizeRule{Config: cfg}, nil
}

func (r *TickSizeRule) Check(order *orderbook.Order) error {
	rules, ok := r.Config[order.Instrument]
	if !ok { // no config -> no rule
		return nil
	}

	for _, rule := range rules {
		if rule.MaxPrice.IsZero() || order.Price.LessThanOrEqual(rule.MaxPrice) {
			if rule.Step.IsPositive() && !order.Price.Mod(rule.Step).IsZero() {
				return ErrInvalidTickSize
			}
			return nil
		}
	}

	return nil
}
