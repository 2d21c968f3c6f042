package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	Env               string
	ProductServiceURL string
	BasketServiceURL  string
	OrderServiceURL   string
	AllowedOrigins    []string
	UpstreamTimeout   time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "30s"))
	if err != nil {
		timeout = 30 * time.Second
	}
	return &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		ProductServiceURL: strings.TrimSuffix(getEnv("PRODUCT_SERVICE_URL", "http://product-service:8000"), "/"),
		BasketServiceURL:  strings.TrimSuffix(getEnv("BASKET_SERVICE_URL", "http://basket-service:8001"), "/"),
		OrderServiceURL:   strings.TrimSuffix(getEnv("ORDER_SERVICE_URL", "http://order-service:8002"), "/"),
		AllowedOrigins:    strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		UpstreamTimeout:   timeout,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
