package repo

import (
	"context"

	"github.com/joripage/exchange-matcher/pkg/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExecutionSQLRepo struct {
	db *gorm.DB
}

func NewExecutionSQLRepo(db *gorm.DB) *ExecutionSQLRepo {
	return &ExecutionSQLRepo{
		db: db,
	}
}

func (r *ExecutionSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// BulkCreate is idempotent on the execution id; redelivered events are dropped.
func (r *ExecutionSQLRepo) BulkCreate(ctx context.Context, records []*ledger.ExecutionRecord) ([]*ledger.ExecutionRecord, error) {
	if len(records) == 0 {
		return records, nil
	}
	return records, r.dbWithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(records).Error
}

// ListByInstrument returns the ledger of one instrument in match order. seq
// restarts with the engine, so execution time orders across restarts.
func (r *ExecutionSQLRepo) ListByInstrument(ctx context.Context, instrument string) ([]*ledger.ExecutionRecord, error) {
	var records []*ledger.ExecutionRecord
	err := listByInstrument(r.dbWithContext(ctx), instrument).Find(&records).Error
	return records, err
}

func listByInstrument(db *gorm.DB, instrument string) *gorm.DB {
	return db.Where("instrument = ?", instrument).
		Order("executed_at ASC").
		Order("seq ASC")
}

func (r *ExecutionSQLRepo) Instruments(ctx context.Context) ([]string, error) {
	var instruments []string
	err := r.dbWithContext(ctx).
		Model(&ledger.ExecutionRecord{}).
		Distinct().
		Order("instrument ASC").
		Pluck("instrument", &instruments).Error
	return instruments, err
}
