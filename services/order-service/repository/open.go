package repository

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// StoreOptions selects and configures the order store.
type StoreOptions struct {
	Store       string // dynamodb | postgres | memory
	TableName   string
	DatabaseURL string
	AWS         sdkaws.Config
}

// Open builds the configured repository. The returned close func is never nil.
func Open(ctx context.Context, opts StoreOptions) (OrderRepository, func(), error) {
	switch opts.Store {
	case "", "dynamodb":
		return NewDynamoOrderRepository(dynamodb.NewFromConfig(opts.AWS), opts.TableName), func() {}, nil
	case "postgres":
		db, pool, err := OpenPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(db); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate orders: %w", err)
		}
		return NewGormOrderRepository(db), pool.Close, nil
	case "memory":
		return NewMemoryOrderRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown order store %q", opts.Store)
	}
}
