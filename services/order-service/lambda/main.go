// Command lambda runs the order dispatcher as an AWS Lambda function behind
// API Gateway, the checkout rule and the order queue.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/contracts"
	"github.com/yashrajoria/swn-shop/services/common/logger"

	"github.com/yashrajoria/swn-shop/services/order-service/repository"
	"github.com/yashrajoria/swn-shop/services/order-service/services"
)

func main() {
	ctx := context.Background()

	log, err := logger.Initialize(getEnv("ENV", "production"))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load aws config", zap.Error(err))
	}

	repo, closeStore, err := repository.Open(ctx, repository.StoreOptions{
		Store:       getEnv("ORDER_STORE", "dynamodb"),
		TableName:   getEnv("DYNAMODB_TABLE_NAME", "orders"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AWS:         awsCfg,
	})
	if err != nil {
		log.Fatal("Failed to open order store", zap.Error(err))
	}
	defer closeStore()

	writer := services.NewOrderWriter(repo, services.WithMetrics(aws_pkg.NewMetricsClient(awsCfg)))
	dispatcher := services.NewDispatcher(writer, repo, getEnv("EVENT_DETAIL_TYPE", contracts.DefaultEventDetailType))

	lambda.Start(services.NewLambdaHandler(dispatcher, log).Handle)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
