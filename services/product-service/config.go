package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
)

type Config struct {
	Port        string
	Env         string
	TableName   string
	ImageBucket string
	ImagePrefix string
	// RedisURL enables the product cache when set.
	RedisURL string
	CacheTTL time.Duration
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	ttl, err := strconv.Atoi(getEnv("PRODUCT_CACHE_TTL_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("PRODUCT_CACHE_TTL_SECONDS: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		Env:         getEnv("ENV", "development"),
		TableName:   getEnv("DYNAMODB_TABLE_NAME", "products"),
		ImageBucket: os.Getenv("PRODUCT_IMAGE_BUCKET"),
		ImagePrefix: getEnv("PRODUCT_IMAGE_PREFIX", "product"),
		RedisURL:    os.Getenv("PRODUCT_CACHE_REDIS_URL"),
		CacheTTL:    time.Duration(ttl) * time.Second,
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" && cfg.RedisURL == "" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if url, err := sm.GetSecret(context.Background(), "product/REDIS_URL"); err == nil && url != "" {
				cfg.RedisURL = url
			}
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
