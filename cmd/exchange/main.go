package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joripage/exchange-matcher/config"
	"github.com/joripage/exchange-matcher/pkg/cache"
	redis_wrapper "github.com/joripage/exchange-matcher/pkg/infra/redis"
	kafkawrapper "github.com/joripage/exchange-matcher/pkg/kafka_wrapper"
	"github.com/joripage/exchange-matcher/pkg/ledger"
	"github.com/joripage/exchange-matcher/pkg/logging"
	"github.com/joripage/exchange-matcher/pkg/metrics"
	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/joripage/exchange-matcher/pkg/replay"
	"github.com/joripage/exchange-matcher/pkg/riskrule"
	"go.uber.org/zap"
)

func main() {
	var configFile, ordersFile string
	var keepServing bool
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&ordersFile, "orders", "./config/orders.example.yaml", "Orders file to replay")
	flag.BoolVar(&keepServing, "serve", false, "Keep serving metrics after the replay until interrupted")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger, err := logging.Init(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	rules, err := buildRiskRules(cfg)
	if err != nil {
		logger.Fatal("build risk rules fail", zap.Error(err))
	}

	recorder := metrics.NewRecorder()
	engine, err := orderbook.NewOrderBookManager(cfg.OrderBookManagerConfig(),
		orderbook.WithLogger(logger.Named("engine")),
		orderbook.WithSubmitHook(recorder.OnSubmit),
	)
	if err != nil {
		logger.Fatal("init engine fail", zap.Error(err))
	}
	engine.RegisterBookCallback(recorder.OnBookChange)

	if cfg.Redis != nil && cfg.Redis.ConnectionURL != "" {
		client, err := redis_wrapper.InitRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("init redis fail", zap.Error(err))
		}
		defer client.Close()
		bookCache := cache.NewOrderBookCache(client, cfg.Redis.SnapshotTTL(), logger.Named("cache"))
		engine.RegisterBookCallback(bookCache.OnBookChange)
	}

	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		producer := kafkawrapper.NewProducer(kafkawrapper.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
		})
		defer producer.Close() // nolint
		publisher := ledger.NewPublisher(producer, cfg.Kafka.Topic, logger.Named("publisher"))
		engine.RegisterExecutionCallback(publisher.OnExecution)
	}

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		srv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	entries, err := replay.LoadOrders(ordersFile)
	if err != nil {
		logger.Fatal("load orders fail", zap.String("file", ordersFile), zap.Error(err))
	}

	report := replay.NewRunner(engine, rules, logger).Run(ctx, entries)
	if err := report.Print(os.Stdout); err != nil {
		logger.Error("print report fail", zap.Error(err))
	}

	if keepServing && srv != nil {
		logger.Info("serving metrics, press Ctrl+C to exit", zap.String("addr", cfg.MetricsAddr))
		<-sigs
	}

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}
	logger.Info("exited cleanly")
}

func buildRiskRules(cfg *config.AppConfig) (riskrule.Chain, error) {
	chain := riskrule.Chain{riskrule.SideQuantityRule{}}

	if len(cfg.Risk.LimitPrices) > 0 {
		limit := riskrule.NewLimitPriceRule()
		for instrument, band := range cfg.Risk.LimitPrices {
			if err := limit.SetBand(instrument, band.Floor, band.Ceil); err != nil {
				return nil, err
			}
		}
		chain = append(chain, limit)
	}

	if cfg.Risk.TickSizeFile != "" {
		tick, err := riskrule.NewTickSizeRuleFromFile(cfg.Risk.TickSizeFile)
		if err != nil {
			return nil, err
		}
		chain = append(chain, tick)
	}
	return chain, nil
}
