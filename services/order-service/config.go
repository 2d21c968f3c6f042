package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/contracts"
)

type Config struct {
	Port string
	Env  string

	OrderStore  string // dynamodb | postgres | memory
	TableName   string
	DatabaseURL string

	QueueURL          string
	QueueName         string
	VisibilityTimeout time.Duration
	BatchSize         int
	QueueWait         time.Duration

	EventDetailType string
	KafkaBrokers    string
	KafkaTopic      string
	KafkaGroupID    string
}

// LoadConfig reads .env (if present) and the environment. With
// AWS_USE_SECRETS=true the Postgres DSN may come from Secrets Manager.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	visibility, err := envInt("QUEUE_VISIBILITY_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	batch, err := envInt("QUEUE_BATCH_SIZE", 1)
	if err != nil {
		return nil, err
	}
	wait, err := envInt("QUEUE_WAIT_SECONDS", 20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8002"),
		Env:               getEnv("ENV", "development"),
		OrderStore:        getEnv("ORDER_STORE", "dynamodb"),
		TableName:         getEnv("DYNAMODB_TABLE_NAME", "orders"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		QueueURL:          os.Getenv("ORDER_QUEUE_URL"),
		QueueName:         getEnv("ORDER_QUEUE_NAME", "Order-Queue"),
		VisibilityTimeout: time.Duration(visibility) * time.Second,
		BatchSize:         batch,
		QueueWait:         time.Duration(wait) * time.Second,
		EventDetailType:   getEnv("EVENT_DETAIL_TYPE", contracts.DefaultEventDetailType),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "swn.checkout"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "order-service"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" && cfg.OrderStore == "postgres" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if dsn, err := sm.GetSecret(context.Background(), "order/DATABASE_URL"); err == nil && dsn != "" {
				cfg.DatabaseURL = dsn
			}
		}
	}

	switch cfg.OrderStore {
	case "dynamodb", "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unknown ORDER_STORE %q", cfg.OrderStore)
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > 10 {
		return nil, fmt.Errorf("QUEUE_BATCH_SIZE must be between 1 and 10, got %d", cfg.BatchSize)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
