package repo

import (
	"testing"

	"github.com/joripage/exchange-matcher/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(pg.New(pg.Config{DSN: "postgres://exchange@localhost:5432/exchange?sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestListByInstrumentOrdersByTimeThenSeq(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var records []*ledger.ExecutionRecord
		return listByInstrument(tx, "VOD.L").Find(&records)
	})
	assert.Contains(t, sql, `FROM "executions"`)
	assert.Contains(t, sql, `instrument = 'VOD.L'`)
	assert.Contains(t, sql, "ORDER BY executed_at ASC,seq ASC")
}
