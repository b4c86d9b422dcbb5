// file: pkg/ledger/worker/worker.go
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joripage/exchange-matcher/pkg/ledger"
	"github.com/joripage/exchange-matcher/pkg/ledger/repo"
	kafkawrapper "github.com/joripage/exchange-matcher/pkg/kafka_wrapper"
	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type consumer interface {
	Run(ctx context.Context, handler func(context.Context, []kafkawrapper.Message) error) error
}

// Worker persists execution events into the ledger database.
type Worker struct {
	execution repo.IExecution
	logger    *zap.Logger
}

func NewWorker(r repo.IRepo, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		execution: r.Execution(),
		logger:    logger,
	}
}

func (w *Worker) StartConsumer(ctx context.Context, cg consumer) error {
	return cg.Run(ctx, w.HandleBatch)
}

// HandleBatch stores every decodable execution of the batch in one insert.
// Undecodable messages are logged and skipped so they cannot block the
// partition; a database error fails the whole batch for a retry.
func (w *Worker) HandleBatch(ctx context.Context, msgs []kafkawrapper.Message) error {
	records := make([]*ledger.ExecutionRecord, 0, len(msgs))
	for _, msg := range msgs {
		if ev, ok := msg.Headers["event"]; ok && ev != ledger.EventExecution {
			continue
		}
		var record ledger.ExecutionRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			w.logger.Warn("unmarshal execution failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		records = append(records, &record)
	}

	if _, err := w.execution.BulkCreate(ctx, records); err != nil {
		return fmt.Errorf("store %d executions: %w", len(records), err)
	}
	w.logger.Debug("stored executions", zap.Int("count", len(records)))
	return nil
}

// AveragePrice recomputes the average execution price from the stored ledger.
func (w *Worker) AveragePrice(ctx context.Context, instrument string) (decimal.Decimal, error) {
	records, err := w.execution.ListByInstrument(ctx, instrument)
	if err != nil {
		return decimal.Zero, err
	}
	return orderbook.AveragePrice(ledger.Executions(records))
}

// Averages returns the stored average price of every instrument in the ledger.
func (w *Worker) Averages(ctx context.Context) (map[string]decimal.Decimal, error) {
	instruments, err := w.execution.Instruments(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(instruments))
	for _, instrument := range instruments {
		avg, err := w.AveragePrice(ctx, instrument)
		if errors.Is(err, orderbook.ErrEmptyLedger) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("average for %s: %w", instrument, err)
		}
		out[instrument] = avg
	}
	return out, nil
}
