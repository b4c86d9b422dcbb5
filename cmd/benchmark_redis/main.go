package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/joripage/exchange-matcher/pkg/cache"
	redis_wrapper "github.com/joripage/exchange-matcher/pkg/infra/redis"
	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/shopspring/decimal"
)

func main() {
	var url string
	var totalOps, workers, depth int
	flag.StringVar(&url, "redis", "redis://localhost:6379/0", "Redis connection url")
	flag.IntVar(&totalOps, "ops", 10_000, "Snapshot writes in total")
	flag.IntVar(&workers, "workers", 10, "Concurrent writers")
	flag.IntVar(&depth, "depth", 50, "Open orders per snapshot")
	flag.Parse()

	ctx := context.Background()
	rdb, err := redis_wrapper.InitRedis(ctx, &redis_wrapper.RedisConfig{ConnectionURL: url, PoolSize: workers})
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	c := cache.NewOrderBookCache(rdb, time.Minute, nil)

	open := make([]orderbook.Order, 0, depth)
	for i := 0; i < depth; i++ {
		open = append(open, *orderbook.NewOrder("BENCH", decimal.New(int64(10_000+i), -2), 100, orderbook.BUY, "bench"))
	}

	opsPerGoroutine := totalOps / workers
	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			instrument := fmt.Sprintf("BENCH%02d", workerID)
			for i := 0; i < opsPerGoroutine; i++ {
				if err := c.Store(ctx, instrument, open); err != nil {
					log.Printf("store %s: %v", instrument, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	duration := time.Since(start)

	snap, err := c.Load(ctx, "BENCH00")
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}
	for w := 0; w < workers; w++ {
		_ = c.Invalidate(ctx, fmt.Sprintf("BENCH%02d", w))
	}

	fmt.Printf("Stored %d snapshots of %d orders in %s (%.2f ops/sec)\n",
		opsPerGoroutine*workers, len(snap.Orders), duration, float64(opsPerGoroutine*workers)/duration.Seconds())
}
