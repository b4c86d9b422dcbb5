package repo

import (
	"context"

	"github.com/joripage/exchange-matcher/pkg/ledger"
)

type IExecution interface {
	BulkCreate(ctx context.Context, records []*ledger.ExecutionRecord) ([]*ledger.ExecutionRecord, error)
	ListByInstrument(ctx context.Context, instrument string) ([]*ledger.ExecutionRecord, error)
	Instruments(ctx context.Context) ([]string, error)
}
