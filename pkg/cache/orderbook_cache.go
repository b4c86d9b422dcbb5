package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "exchange:book"

var ErrSnapshotNotFound = errors.New("orderbook snapshot not found")

// Snapshot is the cached view of an instrument's open orders.
type Snapshot struct {
	Instrument string            `json:"instrument"`
	Orders     []orderbook.Order `json:"orders"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// OrderBookCache mirrors open orders into redis for readers outside the
// engine process.
type OrderBookCache struct {
	client  redis.Cmdable
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

func NewOrderBookCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *OrderBookCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderBookCache{
		client:  client,
		prefix:  defaultKeyPrefix,
		ttl:     ttl,
		timeout: time.Second,
		logger:  logger,
	}
}

func (c *OrderBookCache) Key(instrument string) string {
	return fmt.Sprintf("%s:%s", c.prefix, instrument)
}

func encodeSnapshot(instrument string, open []orderbook.Order, now time.Time) ([]byte, error) {
	if open == nil {
		open = []orderbook.Order{}
	}
	return json.Marshal(&Snapshot{
		Instrument: instrument,
		Orders:     open,
		UpdatedAt:  now,
	})
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *OrderBookCache) Store(ctx context.Context, instrument string, open []orderbook.Order) error {
	raw, err := encodeSnapshot(instrument, open, time.Now())
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.Key(instrument), raw, c.ttl).Err()
}

// OnBookChange matches orderbook.BookCallback. It runs under the instrument
// lock, so the write is bounded by a short timeout and failures are only logged.
func (c *OrderBookCache) OnBookChange(ctx context.Context, instrument string, open []orderbook.Order) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.Store(ctx, instrument, open); err != nil {
		c.logger.Warn("cache orderbook snapshot failed",
			zap.String("instrument", instrument),
			zap.Error(err))
	}
}

func (c *OrderBookCache) Load(ctx context.Context, instrument string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, c.Key(instrument)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(raw)
}

func (c *OrderBookCache) Invalidate(ctx context.Context, instrument string) error {
	return c.client.Del(ctx, c.Key(instrument)).Err()
}
