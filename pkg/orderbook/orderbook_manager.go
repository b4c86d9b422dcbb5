package orderbook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type OrderBookManagerConfig struct {
	TieBreak         TieBreak
	QuantityMismatch MismatchPolicy
}

func DefaultOrderBookManagerConfig() *OrderBookManagerConfig {
	return &OrderBookManagerConfig{
		TieBreak:         TieBreakLatest,
		QuantityMismatch: MismatchSkip,
	}
}

// ExecutionCallback is called once per execution, in match order for a given
// instrument. It runs after the instrument lock is released, so it may read
// the engine. It must not Submit to the same instrument: that submission
// waits for the callback to return.
type ExecutionCallback func(ctx context.Context, exec Execution)

// BookCallback receives the open orders of an instrument as they were right
// after a submission. Delivery order and re-entrancy follow ExecutionCallback.
type BookCallback func(ctx context.Context, instrument string, open []Order)

// SubmitHook observes every submission outcome. exec is nil when the order
// was left resting or rejected.
type SubmitHook func(ctx context.Context, order Order, exec *Execution, err error, elapsed time.Duration)

type Option func(*OrderBookManager)

func WithLogger(logger *zap.Logger) Option {
	return func(s *OrderBookManager) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithSubmitHook(hook SubmitHook) Option {
	return func(s *OrderBookManager) {
		s.submitHooks = append(s.submitHooks, hook)
	}
}

// OrderBookManager is the matching engine. It owns one orderBook per
// instrument; submissions on the same instrument are serialized by that
// book's lock while different instruments never contend.
type OrderBookManager struct {
	books  sync.Map
	policy matchPolicy
	logger *zap.Logger

	cbMu          sync.RWMutex
	execCallbacks []ExecutionCallback
	bookCallbacks []BookCallback
	submitHooks   []SubmitHook
}

func NewOrderBookManager(cfg *OrderBookManagerConfig, opts ...Option) (*OrderBookManager, error) {
	if cfg == nil {
		cfg = DefaultOrderBookManagerConfig()
	}
	policy, err := newMatchPolicy(cfg.TieBreak, cfg.QuantityMismatch)
	if err != nil {
		return nil, err
	}

	s := &OrderBookManager{
		policy: policy,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit adds order to its instrument's book and tries to execute it against
// the opposite side. ErrNoMatchFound is an expected outcome: the order stays
// resting and the caller may carry on.
func (s *OrderBookManager) Submit(ctx context.Context, order *Order) (*Execution, error) {
	start := time.Now()
	if err := validateOrder(order); err != nil {
		s.observe(ctx, order, nil, err, time.Since(start))
		return nil, err
	}

	// the book keeps its own copy
	incoming := *order
	book := s.getOrCreateBook(incoming.Instrument)
	execCbs, bookCbs := s.callbacks()

	book.mu.Lock()
	exec, err := book.execute(&incoming, s.policy)
	var open []Order
	if len(bookCbs) > 0 {
		open = book.allOrders()
	}
	ticket := book.takeTicket()
	book.mu.Unlock()

	if err != nil {
		s.logger.Debug("best order match is not found",
			zap.String("instrument", incoming.Instrument),
			zap.String("order_id", incoming.ID),
			zap.Error(err))
	} else {
		s.logger.Debug("best match found",
			zap.String("instrument", incoming.Instrument),
			zap.String("order_id", incoming.ID),
			zap.String("resting_order_id", exec.Resting.ID),
			zap.String("price", exec.Price().String()),
			zap.Int64("qty", exec.Quantity()))
	}

	book.deliver(ticket, func() {
		s.notify(ctx, book.instrument, exec, open, execCbs, bookCbs)
	})
	s.observe(ctx, &incoming, exec, err, time.Since(start))

	if exec == nil {
		return nil, err
	}
	out := *exec
	return &out, nil
}

// OpenOrders returns the resting orders of an instrument, both sides, in
// arrival order. Unknown instruments yield an empty slice.
func (s *OrderBookManager) OpenOrders(instrument string) []Order {
	book, ok := s.loadBook(instrument)
	if !ok {
		return []Order{}
	}
	book.mu.RLock()
	defer book.mu.RUnlock()
	return book.allOrders()
}

// Depth returns the number of resting orders on one side.
func (s *OrderBookManager) Depth(instrument string, side Side) int {
	book, ok := s.loadBook(instrument)
	if !ok {
		return 0
	}
	book.mu.RLock()
	defer book.mu.RUnlock()
	return book.depth(side)
}

// ExecutedOrders returns the incoming order of every execution, oldest first.
func (s *OrderBookManager) ExecutedOrders(instrument string) []Order {
	execs := s.Executions(instrument)
	out := make([]Order, 0, len(execs))
	for _, e := range execs {
		out = append(out, e.Incoming)
	}
	return out
}

func (s *OrderBookManager) Executions(instrument string) []Execution {
	book, ok := s.loadBook(instrument)
	if !ok {
		return []Execution{}
	}
	book.mu.RLock()
	defer book.mu.RUnlock()
	return book.ledger()
}

// BookSnapshot is the open book and ledger of one instrument read under a
// single lock.
type BookSnapshot struct {
	Instrument string
	Open       []Order
	Executions []Execution
}

func (s *OrderBookManager) Snapshot(instrument string) BookSnapshot {
	snap := BookSnapshot{Instrument: instrument, Open: []Order{}, Executions: []Execution{}}
	book, ok := s.loadBook(instrument)
	if !ok {
		return snap
	}
	book.mu.RLock()
	defer book.mu.RUnlock()
	snap.Open = book.allOrders()
	snap.Executions = book.ledger()
	return snap
}

func (s *OrderBookManager) Instruments() []string {
	var out []string
	s.books.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	sort.Strings(out)
	return out
}

func (s *OrderBookManager) RegisterExecutionCallback(cb ExecutionCallback) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.execCallbacks = append(s.execCallbacks, cb)
}

func (s *OrderBookManager) RegisterBookCallback(cb BookCallback) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.bookCallbacks = append(s.bookCallbacks, cb)
}

func (s *OrderBookManager) callbacks() ([]ExecutionCallback, []BookCallback) {
	s.cbMu.RLock()
	defer s.cbMu.RUnlock()
	return s.execCallbacks, s.bookCallbacks
}

func (s *OrderBookManager) notify(ctx context.Context, instrument string, exec *Execution, open []Order,
	execCbs []ExecutionCallback, bookCbs []BookCallback) {
	if exec != nil {
		for _, cb := range execCbs {
			cb(ctx, *exec)
		}
	}
	for _, cb := range bookCbs {
		cb(ctx, instrument, open)
	}
}

func (s *OrderBookManager) observe(ctx context.Context, order *Order, exec *Execution, err error, elapsed time.Duration) {
	if len(s.submitHooks) == 0 {
		return
	}
	var o Order
	if order != nil {
		o = *order
	}
	for _, hook := range s.submitHooks {
		hook(ctx, o, exec, err, elapsed)
	}
}

func (s *OrderBookManager) loadBook(instrument string) (*orderBook, bool) {
	val, ok := s.books.Load(instrument)
	if !ok {
		return nil, false
	}
	return val.(*orderBook), true
}

func (s *OrderBookManager) getOrCreateBook(instrument string) *orderBook {
	if book, ok := s.loadBook(instrument); ok {
		return book
	}
	actual, _ := s.books.LoadOrStore(instrument, newOrderBook(instrument))
	return actual.(*orderBook)
}

func validateOrder(order *Order) error {
	switch {
	case order == nil:
		return fmt.Errorf("%w: nil order", errInvalidOrder)
	case order.Instrument == "":
		return fmt.Errorf("%w: empty instrument", errInvalidOrder)
	case !order.Side.Valid():
		return fmt.Errorf("%w: side %q", errInvalidOrder, order.Side)
	case order.Quantity == 0:
		return fmt.Errorf("%w: zero quantity", errInvalidOrder)
	}
	return nil
}

// IsNoMatch reports whether err only means the order was left resting.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatchFound)
}

// IsInvalidOrder reports whether Submit refused the order before touching the book.
func IsInvalidOrder(err error) bool {
	return errors.Is(err, errInvalidOrder)
}
