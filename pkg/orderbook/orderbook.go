// file: pkg/orderbook/orderbook.go

package orderbook

import (
	"sync"

	"github.com/gammazero/deque"
)

// restingOrder is a book entry. seq is the arrival number inside the book and
// is only used to interleave both sides back into submission order.
type restingOrder struct {
	order *Order
	seq   uint64
}

// orderBook holds the resting orders and the execution ledger of a single
// instrument. mu guards both, so a reader never sees an order that is in the
// ledger and the book at the same time.
type orderBook struct {
	instrument string

	buyOrders  *deque.Deque[*restingOrder]
	sellOrders *deque.Deque[*restingOrder]

	executions []Execution

	arrivals uint64
	execSeq  uint64

	mu sync.RWMutex

	// listener delivery, in ticket order, outside mu
	tickets     uint64
	delivered   uint64
	deliverMu   sync.Mutex
	deliverCond *sync.Cond
}

func newOrderBook(instrument string) *orderBook {
	ob := &orderBook{
		instrument: instrument,
		buyOrders:  &deque.Deque[*restingOrder]{},
		sellOrders: &deque.Deque[*restingOrder]{},
	}
	ob.deliverCond = sync.NewCond(&ob.deliverMu)
	return ob
}

// takeTicket reserves the next delivery slot. Callers hold mu, so tickets
// follow submission order.
func (ob *orderBook) takeTicket() uint64 {
	t := ob.tickets
	ob.tickets++
	return t
}

// deliver waits until every earlier ticket has been delivered, then runs fn.
// mu must not be held.
func (ob *orderBook) deliver(ticket uint64, fn func()) {
	ob.deliverMu.Lock()
	for ob.delivered != ticket {
		ob.deliverCond.Wait()
	}
	ob.deliverMu.Unlock()

	defer func() {
		ob.deliverMu.Lock()
		ob.delivered++
		ob.deliverCond.Broadcast()
		ob.deliverMu.Unlock()
	}()
	fn()
}

func (ob *orderBook) side(side Side) *deque.Deque[*restingOrder] {
	if side == BUY {
		return ob.buyOrders
	}
	return ob.sellOrders
}

func (ob *orderBook) insert(order *Order) {
	ob.arrivals++
	ob.side(order.Side).PushBack(&restingOrder{order: order, seq: ob.arrivals})
}

// remove drops the order with the same id. Removing an absent order is a no-op.
func (ob *orderBook) remove(order *Order) bool {
	q := ob.side(order.Side)
	i := q.Index(func(r *restingOrder) bool { return r.order.ID == order.ID })
	if i < 0 {
		return false
	}
	q.Remove(i)
	return true
}

// sideView returns the resting orders of one side in insertion order.
func (ob *orderBook) sideView(side Side) []*Order {
	q := ob.side(side)
	out := make([]*Order, 0, q.Len())
	for i := 0; i < q.Len(); i++ {
		out = append(out, q.At(i).order)
	}
	return out
}

// allOrders returns copies of every resting order, both sides, in arrival order.
func (ob *orderBook) allOrders() []Order {
	out := make([]Order, 0, ob.buyOrders.Len()+ob.sellOrders.Len())
	i, j := 0, 0
	for i < ob.buyOrders.Len() || j < ob.sellOrders.Len() {
		var next *restingOrder
		switch {
		case j >= ob.sellOrders.Len():
			next = ob.buyOrders.At(i)
			i++
		case i >= ob.buyOrders.Len():
			next = ob.sellOrders.At(j)
			j++
		case ob.buyOrders.At(i).seq < ob.sellOrders.At(j).seq:
			next = ob.buyOrders.At(i)
			i++
		default:
			next = ob.sellOrders.At(j)
			j++
		}
		out = append(out, *next.order)
	}
	return out
}

func (ob *orderBook) depth(side Side) int {
	return ob.side(side).Len()
}

// execute runs one submission against the book. Callers hold mu.
func (ob *orderBook) execute(order *Order, policy matchPolicy) (*Execution, error) {
	ob.insert(order)

	best, err := policy.findBest(order, ob.sideView(order.Side.Opposite()))
	if err != nil {
		return nil, err
	}

	ob.execSeq++
	exec := newExecution(ob.execSeq, best, order)
	ob.executions = append(ob.executions, exec)

	ob.remove(best)
	ob.remove(order)

	return &exec, nil
}

func (ob *orderBook) ledger() []Execution {
	out := make([]Execution, len(ob.executions))
	copy(out, ob.executions)
	return out
}
