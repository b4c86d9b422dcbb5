package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/shopspring/decimal"
)

const (
	minPrice = 9_900 // in cents
	maxPrice = 10_100
)

var quantities = []int64{100, 200, 500, 1000}

func randomOrder(r *rand.Rand, instrument string) *orderbook.Order {
	side := orderbook.BUY
	if r.Intn(2) == 0 {
		side = orderbook.SELL
	}
	price := decimal.New(int64(minPrice+r.Intn(maxPrice-minPrice+1)), -2)
	qty := quantities[r.Intn(len(quantities))]
	if side == orderbook.SELL {
		qty = -qty
	}
	return orderbook.NewOrder(instrument, price, qty, side, fmt.Sprintf("party-%d", r.Intn(10)))
}

func main() {
	var numOrders, numInstruments, workers int
	var tieBreak string
	flag.IntVar(&numOrders, "orders", 50_000, "Orders to submit in total")
	flag.IntVar(&numInstruments, "instruments", 8, "Distinct instruments")
	flag.IntVar(&workers, "workers", 8, "Concurrent submitters")
	flag.StringVar(&tieBreak, "tie-break", string(orderbook.TieBreakLatest), "latest | earliest")
	flag.Parse()

	obm, err := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{
		TieBreak: orderbook.TieBreak(tieBreak),
	})
	if err != nil {
		panic(err)
	}

	var totalMatched, totalQty atomic.Int64
	obm.RegisterExecutionCallback(func(_ context.Context, e orderbook.Execution) {
		totalMatched.Add(1)
		totalQty.Add(e.Quantity())
	})

	instruments := make([]string, numInstruments)
	for i := range instruments {
		instruments[i] = fmt.Sprintf("INS%02d", i)
	}

	ctx := context.Background()
	perWorker := numOrders / workers
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < perWorker; i++ {
				_, _ = obm.Submit(ctx, randomOrder(r, instruments[r.Intn(len(instruments))]))
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	elapsed := time.Since(start)
	submitted := perWorker * workers

	resting := 0
	for _, ins := range obm.Instruments() {
		resting += len(obm.OpenOrders(ins))
	}

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", submitted)
	fmt.Printf("Total Matches    : %d\n", totalMatched.Load())
	fmt.Printf("Total Matched Qty: %d\n", totalQty.Load())
	fmt.Printf("Resting Orders   : %d\n", resting)
	fmt.Printf("Time Taken       : %s (%.0f orders/s)\n", elapsed, float64(submitted)/elapsed.Seconds())
}
