package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	postgres_wrapper "github.com/joripage/exchange-matcher/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/exchange-matcher/pkg/infra/redis"
	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	MetricsAddr string                           `yaml:"metrics_addr"`
	Matching    MatchingConfig                   `yaml:"matching"`
	Risk        RiskConfig                       `yaml:"risk"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	LedgerDB    *postgres_wrapper.PostgresConfig `yaml:"ledger_db"`
	Kafka       *KafkaConfig                     `yaml:"kafka"`
}

type MatchingConfig struct {
	TieBreak         orderbook.TieBreak       `yaml:"tie_break"`
	QuantityMismatch orderbook.MismatchPolicy `yaml:"quantity_mismatch"`
}

type LimitPrice struct {
	Floor string `yaml:"floor"`
	Ceil  string `yaml:"ceil"`
}

type RiskConfig struct {
	LimitPrices  map[string]LimitPrice `yaml:"limit_prices"`
	TickSizeFile string                `yaml:"tick_size_file"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	GroupID     string   `yaml:"group_id"`
	WorkerCount int      `yaml:"worker_count"`
	MaxRetries  int      `yaml:"max_retries"`
	DLQTopic    string   `yaml:"dlq_topic"`
}

var errMissingConfigFile = errors.New("config file not set")

// OrderBookManagerConfig maps the matching section onto the engine config.
func (c *AppConfig) OrderBookManagerConfig() *orderbook.OrderBookManagerConfig {
	return &orderbook.OrderBookManagerConfig{
		TieBreak:         c.Matching.TieBreak,
		QuantityMismatch: c.Matching.QuantityMismatch,
	}
}

// Validate checks the fields every binary relies on.
func (c *AppConfig) Validate() error {
	switch c.Matching.TieBreak {
	case "", orderbook.TieBreakLatest, orderbook.TieBreakEarliest:
	default:
		return fmt.Errorf("matching.tie_break: unknown value %q", c.Matching.TieBreak)
	}
	switch c.Matching.QuantityMismatch {
	case "", orderbook.MismatchSkip, orderbook.MismatchAbort:
	default:
		return fmt.Errorf("matching.quantity_mismatch: unknown value %q", c.Matching.QuantityMismatch)
	}
	if c.Kafka != nil && len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when brokers are set")
	}
	return nil
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	// a missing .env is fine, variables may come from the real environment
	_ = godotenv.Load()

	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}
	if len(filePath) == 0 {
		return nil, errMissingConfigFile
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}

	cfg, err := Parse(configBytes)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

// Parse expands environment variables in raw and decodes it.
func Parse(raw []byte) (*AppConfig, error) {
	raw = []byte(os.ExpandEnv(string(raw)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "exchange-matcher"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
