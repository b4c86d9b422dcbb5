package kafkawrapper

import (
	"context"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDurationBounded(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 0; attempt < 10; attempt++ {
		d := backoffDuration(min, max, attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, max)
	}
}

func TestWrapMessage(t *testing.T) {
	m := kafka.Message{
		Topic:   "executions",
		Key:     []byte("VOD.L"),
		Value:   []byte("{}"),
		Headers: []kafka.Header{{Key: "event", Value: []byte("execution")}},
	}
	w := wrapMessage(m)
	assert.Equal(t, "executions", w.Topic)
	assert.Equal(t, "execution", w.Headers["event"])
	assert.Equal(t, []byte("VOD.L"), w.Key)
}

func TestNewConsumerGroupValidates(t *testing.T) {
	_, err := NewConsumerGroup(ConsumerConfig{Topic: "t", GroupID: "g"})
	assert.Error(t, err)

	cg, err := NewConsumerGroup(ConsumerConfig{Brokers: []string{"localhost:9092"}, Topic: "t", GroupID: "g"})
	require.NoError(t, err)
	defer cg.Close()
	assert.Equal(t, 4, cg.cfg.WorkerCount)
	assert.Equal(t, 50, cg.cfg.BatchSize)
}

func TestNilClientsReportNotInitialized(t *testing.T) {
	var p *Producer
	assert.ErrorIs(t, p.Publish(context.Background(), "t", nil, nil, nil), errNotInitialized)
	assert.NoError(t, p.Close())

	var cg *ConsumerGroup
	assert.ErrorIs(t, cg.Run(context.Background(), nil), errNotInitialized)
}

func TestSplitByPartitionKeepsPartitionOrder(t *testing.T) {
	var ms []kafka.Message
	for i := 0; i < 12; i++ {
		ms = append(ms, kafka.Message{Partition: i % 5, Offset: int64(i)})
	}

	shards := splitByPartition(ms, 3)
	require.Len(t, shards, 3)

	total := 0
	owner := map[int]int{}
	for shard, part := range shards {
		last := map[int]int64{}
		for _, m := range part {
			if prev, ok := owner[m.Partition]; ok {
				assert.Equal(t, prev, shard, "partition %d split across shards", m.Partition)
			}
			owner[m.Partition] = shard
			if prev, ok := last[m.Partition]; ok {
				assert.Less(t, prev, m.Offset, "partition %d out of order", m.Partition)
			}
			last[m.Partition] = m.Offset
			total++
		}
	}
	assert.Equal(t, len(ms), total)
}
