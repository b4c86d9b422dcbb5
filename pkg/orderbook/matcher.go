package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TieBreak selects which candidate wins among several at the best price.
type TieBreak string

const (
	// TieBreakLatest keeps overwriting the best candidate on equal prices, so
	// the last one scanned wins.
	TieBreakLatest TieBreak = "latest"
	// TieBreakEarliest only replaces the best candidate on a strictly better
	// price, so the earliest resting order at the best price wins.
	TieBreakEarliest TieBreak = "earliest"
)

// MismatchPolicy selects what the scan does with a candidate whose quantity
// does not exactly offset the new order.
type MismatchPolicy string

const (
	MismatchSkip  MismatchPolicy = "skip"
	MismatchAbort MismatchPolicy = "abort"
)

type matchPolicy struct {
	tieBreak TieBreak
	mismatch MismatchPolicy
}

func newMatchPolicy(tieBreak TieBreak, mismatch MismatchPolicy) (matchPolicy, error) {
	if tieBreak == "" {
		tieBreak = TieBreakLatest
	}
	if mismatch == "" {
		mismatch = MismatchSkip
	}
	if tieBreak != TieBreakLatest && tieBreak != TieBreakEarliest {
		return matchPolicy{}, fmt.Errorf("%w: tie break %q", errInvalidPolicy, tieBreak)
	}
	if mismatch != MismatchSkip && mismatch != MismatchAbort {
		return matchPolicy{}, fmt.Errorf("%w: quantity mismatch %q", errInvalidPolicy, mismatch)
	}
	return matchPolicy{tieBreak: tieBreak, mismatch: mismatch}, nil
}

// findBest scans candidates in resting order. The running best price starts
// at the new order's own price, so a buy only meets sells priced at or below
// it and a sell only meets buys priced at or above it.
func (p matchPolicy) findBest(newOrder *Order, candidates []*Order) (*Order, error) {
	var best *Order
	bestPrice := newOrder.Price

	for _, candidate := range candidates {
		if candidate.ID == newOrder.ID {
			continue
		}
		if !newOrder.offsets(candidate) {
			if p.mismatch == MismatchAbort {
				return nil, ErrQuantityMismatch
			}
			continue
		}
		if p.replaces(newOrder.Side, candidate.Price, bestPrice, best != nil) {
			bestPrice = candidate.Price
			best = candidate
		}
	}

	if best == nil {
		return nil, ErrNoMatchFound
	}
	return best, nil
}

// replaces reports whether candidate should become the best so far. Buys look
// for the lowest price, sells for the highest.
func (p matchPolicy) replaces(side Side, candidate, current decimal.Decimal, haveBest bool) bool {
	cmp := candidate.Cmp(current)
	if side == SELL {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return true
	case cmp == 0:
		return !haveBest || p.tieBreak == TieBreakLatest
	default:
		return false
	}
}
