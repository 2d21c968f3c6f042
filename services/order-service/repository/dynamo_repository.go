package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	ddb "github.com/yashrajoria/swn-shop/pkg/dynamodb"

	"github.com/yashrajoria/swn-shop/services/order-service/models"
)

// DynamoAPI is the part of *dynamodb.Client the orders table needs.
type DynamoAPI interface {
	dynamodb.ScanAPIClient
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoOrderRepository uses a table with partition key userName and sort
// key createdAt.
type DynamoOrderRepository struct {
	client DynamoAPI
	table  string
}

var _ OrderRepository = (*DynamoOrderRepository)(nil)

func NewDynamoOrderRepository(client DynamoAPI, table string) *DynamoOrderRepository {
	return &DynamoOrderRepository{client: client, table: table}
}

func (r *DynamoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.table,
		Item:                item,
		ConditionExpression: ptr("attribute_not_exists(userName) AND attribute_not_exists(createdAt)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateOrder, order.UserName, order.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (r *DynamoOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	return ddb.ScanAll[models.Order](ctx, r.client, &dynamodb.ScanInput{TableName: &r.table})
}

func (r *DynamoOrderRepository) ListByUser(ctx context.Context, userName string) ([]models.Order, error) {
	return r.query(ctx, "userName = :userName", map[string]types.AttributeValue{
		":userName": &types.AttributeValueMemberS{Value: userName},
	})
}

func (r *DynamoOrderRepository) Get(ctx context.Context, userName, createdAt string) (*models.Order, error) {
	orders, err := r.query(ctx, "userName = :userName and createdAt = :createdAt", map[string]types.AttributeValue{
		":userName":  &types.AttributeValueMemberS{Value: userName},
		":createdAt": &types.AttributeValueMemberS{Value: createdAt},
	})
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

func (r *DynamoOrderRepository) query(ctx context.Context, keyCond string, values map[string]types.AttributeValue) ([]models.Order, error) {
	return ddb.QueryAll[models.Order](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 &r.table,
		KeyConditionExpression:    &keyCond,
		ExpressionAttributeValues: values,
	})
}

func ptr[T any](v T) *T { return &v }
