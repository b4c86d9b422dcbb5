package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joripage/exchange-matcher/config"
	"github.com/joripage/exchange-matcher/pkg/infra"
	kafkawrapper "github.com/joripage/exchange-matcher/pkg/kafka_wrapper"
	"github.com/joripage/exchange-matcher/pkg/ledger/repo"
	"github.com/joripage/exchange-matcher/pkg/ledger/worker"
	"github.com/joripage/exchange-matcher/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	var migrateFirst bool
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.BoolVar(&migrateFirst, "migrate", true, "Apply pending ledger migrations before consuming")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	logger, err := logging.Init(cfg.LogLevel, cfg.ServiceName+"-worker")
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	if cfg.LedgerDB == nil || cfg.Kafka == nil {
		logger.Fatal("ledger_db and kafka sections are required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// init db
	source := infra.DefaultMigrationSource
	if !migrateFirst {
		source = ""
	}
	db, err := infra.ConnectAndMigrate(cfg.LedgerDB, source, time.Minute)
	if err != nil {
		logger.Fatal("init db fail", zap.Error(err))
	}

	cg, err := kafkawrapper.NewConsumerGroup(kafkawrapper.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		GroupID:     cfg.Kafka.GroupID,
		Topic:       cfg.Kafka.Topic,
		WorkerCount: cfg.Kafka.WorkerCount,
		MaxRetries:  cfg.Kafka.MaxRetries,
		DLQTopic:    cfg.Kafka.DLQTopic,
	})
	if err != nil {
		logger.Fatal("init consumer fail", zap.Error(err))
	}
	defer cg.Close() // nolint

	w := worker.NewWorker(repo.NewRepo(db), logger.Named("ledger"))
	logger.Info("ledger worker started", zap.String("consumer", cg.String()))
	if err := w.StartConsumer(ctx, cg); err != nil && ctx.Err() == nil {
		logger.Error("consumer stopped", zap.Error(err))
	}

	summaryCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	averages, err := w.Averages(summaryCtx)
	if err != nil {
		logger.Error("ledger averages fail", zap.Error(err))
	}
	for instrument, avg := range averages {
		logger.Info("ledger average price",
			zap.String("instrument", instrument),
			zap.String("average", avg.StringFixed(4)))
	}
	logger.Info("exited cleanly")
}
