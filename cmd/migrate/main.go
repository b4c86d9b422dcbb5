package main

import (
	"flag"

	"github.com/joripage/exchange-matcher/config"
	"github.com/joripage/exchange-matcher/pkg/infra"
	"github.com/joripage/exchange-matcher/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var configFile, source string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", infra.DefaultMigrationSource, "Migration source url")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	if _, err := logging.Init(cfg.LogLevel, cfg.ServiceName+"-migrate"); err != nil {
		panic(err)
	}
	if cfg.LedgerDB == nil || cfg.LedgerDB.MigrationConnURL == "" {
		zap.S().Fatal("ledger_db.migration_conn_url is required")
	}

	if err := infra.Migrate(source, cfg.LedgerDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migrate fail: %v", err)
	}
}
