package orderbook

import (
	"errors"
	"testing"
)

func TestFindBestBuyPrefersLowestPrice(t *testing.T) {
	policy, _ := newMatchPolicy(TieBreakLatest, MismatchSkip)

	s1 := newTestOrder(SELL, "101", -10)
	s2 := newTestOrder(SELL, "99", -10)
	s3 := newTestOrder(SELL, "100", -10)
	buy := newTestOrder(BUY, "102", 10)

	best, err := policy.findBest(buy, []*Order{s1, s2, s3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != s2.ID {
		t.Errorf("expected lowest sell at 99, got %s", best.Price)
	}
}

func TestFindBestSellPrefersHighestPrice(t *testing.T) {
	policy, _ := newMatchPolicy(TieBreakLatest, MismatchSkip)

	b1 := newTestOrder(BUY, "99", 10)
	b2 := newTestOrder(BUY, "101", 10)
	sell := newTestOrder(SELL, "98", -10)

	best, err := policy.findBest(sell, []*Order{b1, b2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != b2.ID {
		t.Errorf("expected highest buy at 101, got %s", best.Price)
	}
}

func TestFindBestRespectsOwnPrice(t *testing.T) {
	policy, _ := newMatchPolicy(TieBreakLatest, MismatchSkip)

	buy := newTestOrder(BUY, "100", 10)
	_, err := policy.findBest(buy, []*Order{newTestOrder(SELL, "100.01", -10)})
	if !errors.Is(err, ErrNoMatchFound) {
		t.Fatalf("expected no match above the buy price, got %v", err)
	}

	sell := newTestOrder(SELL, "100", -10)
	_, err = policy.findBest(sell, []*Order{newTestOrder(BUY, "99.99", 10)})
	if !errors.Is(err, ErrNoMatchFound) {
		t.Fatalf("expected no match below the sell price, got %v", err)
	}
}

func TestFindBestTieBreak(t *testing.T) {
	s1 := newTestOrder(SELL, "100", -10)
	s2 := newTestOrder(SELL, "100", -10)
	buy := newTestOrder(BUY, "100", 10)

	latest, _ := newMatchPolicy(TieBreakLatest, MismatchSkip)
	best, err := latest.findBest(buy, []*Order{s1, s2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != s2.ID {
		t.Errorf("latest tie break should pick the last order at the best price")
	}

	earliest, _ := newMatchPolicy(TieBreakEarliest, MismatchSkip)
	best, err = earliest.findBest(buy, []*Order{s1, s2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != s1.ID {
		t.Errorf("earliest tie break should pick the first order at the best price")
	}
}

func TestFindBestQuantityMismatch(t *testing.T) {
	partial := newTestOrder(SELL, "99", -5)
	exact := newTestOrder(SELL, "100", -10)
	buy := newTestOrder(BUY, "100", 10)

	skip, _ := newMatchPolicy(TieBreakLatest, MismatchSkip)
	best, err := skip.findBest(buy, []*Order{partial, exact})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != exact.ID {
		t.Errorf("skip policy should pass over the partial order")
	}

	abort, _ := newMatchPolicy(TieBreakLatest, MismatchAbort)
	_, err = abort.findBest(buy, []*Order{partial, exact})
	if !errors.Is(err, ErrQuantityMismatch) {
		t.Fatalf("expected quantity mismatch, got %v", err)
	}
	if !errors.Is(err, ErrNoMatchFound) {
		t.Errorf("quantity mismatch should still read as no match")
	}
}

func TestFindBestSkipsSelf(t *testing.T) {
	policy, _ := newMatchPolicy(TieBreakLatest, MismatchSkip)
	buy := newTestOrder(BUY, "100", 10)

	if _, err := policy.findBest(buy, []*Order{buy}); !errors.Is(err, ErrNoMatchFound) {
		t.Fatalf("order must never match itself, got %v", err)
	}
}

func TestNewMatchPolicyRejectsUnknown(t *testing.T) {
	if _, err := newMatchPolicy("first", MismatchSkip); err == nil {
		t.Errorf("expected error for unknown tie break")
	}
	if _, err := newMatchPolicy(TieBreakLatest, "ignore"); err == nil {
		t.Errorf("expected error for unknown mismatch policy")
	}
	p, err := newMatchPolicy("", "")
	if err != nil {
		t.Fatalf("empty policy should fall back to defaults: %v", err)
	}
	if p.tieBreak != TieBreakLatest || p.mismatch != MismatchSkip {
		t.Errorf("unexpected defaults %+v", p)
	}
}
