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

	BasketStore string // dynamodb | redis
	TableName   string
	PrimaryKey  string
	RedisURL    string
	BasketTTL   time.Duration

	EventBusBackend string // eventbridge | sns | kafka
	EventBusName    string
	EventSource     string
	EventDetailType string
	SNSTopicArn     string
	KafkaBrokers    string
	KafkaTopic      string
}

// LoadConfig reads .env (if present) and the environment. With
// AWS_USE_SECRETS=true the Redis URL may come from Secrets Manager.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	ttlHours, err := strconv.Atoi(getEnv("BASKET_TTL_HOURS", "168"))
	if err != nil {
		return nil, fmt.Errorf("BASKET_TTL_HOURS: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8001"),
		Env:             getEnv("ENV", "development"),
		BasketStore:     getEnv("BASKET_STORE", "dynamodb"),
		TableName:       getEnv("DYNAMODB_TABLE_NAME", "baskets"),
		PrimaryKey:      getEnv("PRIMARY_KEY", "userName"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		BasketTTL:       time.Duration(ttlHours) * time.Hour,
		EventBusBackend: getEnv("EVENT_BUS_BACKEND", "eventbridge"),
		EventBusName:    getEnv("EVENT_BUS_NAME", contracts.DefaultEventBusName),
		EventSource:     getEnv("EVENT_SOURCE", contracts.DefaultEventSource),
		EventDetailType: getEnv("EVENT_DETAIL_TYPE", contracts.DefaultEventDetailType),
		SNSTopicArn:     os.Getenv("EVENT_SNS_TOPIC_ARN"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "swn.checkout"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" && cfg.BasketStore == "redis" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if url, err := sm.GetSecret(context.Background(), "basket/REDIS_URL"); err == nil && url != "" {
				cfg.RedisURL = url
			}
		}
	}

	switch cfg.BasketStore {
	case "dynamodb", "redis":
	default:
		return nil, fmt.Errorf("unknown BASKET_STORE %q", cfg.BasketStore)
	}
	switch cfg.EventBusBackend {
	case "eventbridge":
	case "sns":
		if cfg.SNSTopicArn == "" {
			return nil, fmt.Errorf("EVENT_SNS_TOPIC_ARN is required for the sns backend")
		}
	case "kafka":
		if cfg.KafkaBrokers == "" {
			return nil, fmt.Errorf("KAFKA_BROKERS is required for the kafka backend")
		}
	default:
		return nil, fmt.Errorf("unknown EVENT_BUS_BACKEND %q", cfg.EventBusBackend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
