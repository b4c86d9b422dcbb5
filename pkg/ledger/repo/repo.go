package repo

import (
	"gorm.io/gorm"
)

type IRepo interface {
	Execution() IExecution
}

type Repo struct {
	ledgerDB *gorm.DB
}

func NewRepo(ledgerDB *gorm.DB) IRepo {
	return &Repo{
		ledgerDB: ledgerDB,
	}
}

func (r *Repo) Execution() IExecution {
	return NewExecutionSQLRepo(r.ledgerDB)
}
