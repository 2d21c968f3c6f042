// Command provision creates the shop's tables, order queue, event bus and
// checkout rule, and optionally seeds products and queued checkouts. It
// targets LocalStack when AWS_ENDPOINT is set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/contracts"
	"github.com/yashrajoria/swn-shop/pkg/eventbus"
	"github.com/yashrajoria/swn-shop/services/common/logger"
	"github.com/yashrajoria/swn-shop/services/product-service/models"
	"github.com/yashrajoria/swn-shop/services/product-service/repository"
)

func main() {
	stack := DefaultStack()
	var seedFile, checkoutsFile string
	flag.StringVar(&stack.QueueName, "queue", stack.QueueName, "order queue name")
	flag.IntVar(&stack.VisibilitySeconds, "visibility", stack.VisibilitySeconds, "order queue visibility timeout in seconds")
	flag.StringVar(&stack.BusName, "bus", stack.BusName, "event bus name")
	flag.StringVar(&seedFile, "seed", "", "JSON file with products to load into the products table")
	flag.StringVar(&checkoutsFile, "seed-checkouts", "", "JSON file with checkout payloads to enqueue as bus events")
	flag.Parse()

	log, err := logger.Initialize(os.Getenv("ENV"))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx := context.Background()
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("aws config", zap.Error(err))
	}

	ddb := dynamodb.NewFromConfig(awsCfg)
	p := NewProvisioner(ddb, sqs.NewFromConfig(awsCfg), eventbridge.NewFromConfig(awsCfg), log)
	res, err := p.Apply(ctx, stack)
	if err != nil {
		log.Fatal("provisioning failed", zap.Error(err))
	}

	if seedFile != "" {
		n, err := seedProducts(ctx, repository.NewDynamoProductRepository(ddb, stack.Tables[0].Name), seedFile)
		if err != nil {
			log.Fatal("seeding failed", zap.Error(err))
		}
		log.Info("products seeded", zap.Int("count", n))
	}

	if checkoutsFile != "" {
		n, err := seedCheckouts(ctx, aws_pkg.NewSQSQueue(awsCfg, res.QueueURL), stack, checkoutsFile)
		if err != nil {
			log.Fatal("enqueueing checkouts failed", zap.Error(err))
		}
		log.Info("checkouts enqueued", zap.Int("count", n), zap.String("queue_url", res.QueueURL))
	}

	fmt.Printf("ORDER_QUEUE_URL=%s\nEVENT_BUS_NAME=%s\nRULE_ARN=%s\n", res.QueueURL, stack.BusName, res.RuleARN)
}

// seedProducts loads a JSON array of products. Items without an id get one.
func seedProducts(ctx context.Context, repo repository.ProductRepository, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.NewString()
		}
		if err := repo.Create(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("product %s: %w", products[i].ID, err)
		}
	}
	return len(products), nil
}

type batchSender interface {
	SendBatch(ctx context.Context, bodies []string) error
}

// seedCheckouts wraps each payload in the envelope the checkout rule would
// deliver and sends them to the order queue in one batch call.
func seedCheckouts(ctx context.Context, q batchSender, s Stack, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var payloads []json.RawMessage
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}

	bodies := make([]string, 0, len(payloads))
	for i, detail := range payloads {
		if _, err := contracts.DecodeCheckoutBasket(detail); err != nil {
			return 0, fmt.Errorf("checkout %d: %w", i, err)
		}
		body, err := json.Marshal(eventbus.Event{
			Version:    "0",
			ID:         uuid.NewString(),
			DetailType: s.DetailType,
			Source:     s.Source,
			Time:       time.Now().UTC(),
			Resources:  []string{},
			Detail:     detail,
		})
		if err != nil {
			return 0, fmt.Errorf("encode checkout %d: %w", i, err)
		}
		bodies = append(bodies, string(body))
	}
	if len(bodies) == 0 {
		return 0, nil
	}
	if err := q.SendBatch(ctx, bodies); err != nil {
		return 0, err
	}
	return len(bodies), nil
}
