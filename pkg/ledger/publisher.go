package ledger

import (
	"context"
	"time"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"go.uber.org/zap"
)

const eventHeader = "event"

// EventExecution is the value of the event header on execution messages.
const EventExecution = "execution"

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, key string, v any, headers map[string]string) error
}

// Publisher sends every execution to a kafka topic keyed by instrument, so
// all executions of one instrument land on one partition in match order.
type Publisher struct {
	producer jsonPublisher
	topic    string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewPublisher(producer jsonPublisher, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		timeout:  2 * time.Second,
		logger:   logger,
	}
}

// OnExecution matches orderbook.ExecutionCallback. Publish errors are logged,
// the match itself has already happened.
func (p *Publisher) OnExecution(ctx context.Context, exec orderbook.Execution) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := NewExecutionRecord(exec)
	err := p.producer.PublishJSON(ctx, p.topic, record.Instrument, record, map[string]string{
		eventHeader: EventExecution,
	})
	if err != nil {
		p.logger.Error("publish execution failed",
			zap.String("instrument", record.Instrument),
			zap.String("execution_id", record.ID),
			zap.Error(err))
	}
}
