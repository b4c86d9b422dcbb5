package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	c := NewOrderBookCache(nil, time.Minute, nil)
	assert.Equal(t, "exchange:book:VOD.L", c.Key("VOD.L"))
}

func TestSnapshotEncoding(t *testing.T) {
	order := orderbook.NewOrder("VOD.L", decimal.RequireFromString("100.25"), -10, orderbook.SELL, "u1")
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	raw, err := encodeSnapshot("VOD.L", []orderbook.Order{*order}, now)
	require.NoError(t, err)

	snap, err := decodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, "VOD.L", snap.Instrument)
	assert.True(t, snap.UpdatedAt.Equal(now))
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, order.ID, snap.Orders[0].ID)
	assert.True(t, snap.Orders[0].Price.Equal(order.Price))
	assert.Equal(t, int64(-10), snap.Orders[0].Quantity)
}

func TestSnapshotEncodingEmptyBook(t *testing.T) {
	raw, err := encodeSnapshot("VOD.L", nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"orders":[]`)
}

func TestStoreAgainstUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewOrderBookCache(client, time.Minute, nil)
	err := c.Store(context.Background(), "VOD.L", nil)
	assert.Error(t, err)

	_, err = c.Load(context.Background(), "VOD.L")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrSnapshotNotFound))

	// the callback never fails the caller
	c.OnBookChange(context.Background(), "VOD.L", nil)
}
