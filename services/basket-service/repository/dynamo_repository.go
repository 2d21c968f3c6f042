package repository

import (
	"context"
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	ddb "github.com/yashrajoria/swn-shop/pkg/dynamodb"

	"github.com/yashrajoria/swn-shop/services/basket-service/models"
)

// DynamoAPI is the part of *dynamodb.Client the basket table needs.
type DynamoAPI interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoBasketRepository stores baskets in a table whose partition key is
// primaryKey. The basket's userName is written under that attribute.
type DynamoBasketRepository struct {
	client     DynamoAPI
	table      string
	primaryKey string
}

var _ BasketRepository = (*DynamoBasketRepository)(nil)

const userNameAttr = "userName"

func NewDynamoBasketRepository(client DynamoAPI, table, primaryKey string) *DynamoBasketRepository {
	if primaryKey == "" {
		primaryKey = userNameAttr
	}
	return &DynamoBasketRepository{client: client, table: table, primaryKey: primaryKey}
}

func (r *DynamoBasketRepository) key(userName string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		r.primaryKey: &types.AttributeValueMemberS{Value: userName},
	}
}

// toItem marshals a basket with its userName under the table's key attribute.
func (r *DynamoBasketRepository) toItem(basket *models.Basket) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(basket)
	if err != nil {
		return nil, fmt.Errorf("marshal basket: %w", err)
	}
	if r.primaryKey != userNameAttr {
		item[r.primaryKey] = item[userNameAttr]
		delete(item, userNameAttr)
	}
	return item, nil
}

func (r *DynamoBasketRepository) fromItem(item map[string]types.AttributeValue) (*models.Basket, error) {
	if v, ok := item[r.primaryKey]; ok && r.primaryKey != userNameAttr {
		item = maps.Clone(item)
		item[userNameAttr] = v
		delete(item, r.primaryKey)
	}
	var b models.Basket
	if err := attributevalue.UnmarshalMap(item, &b); err != nil {
		return nil, fmt.Errorf("unmarshal basket: %w", err)
	}
	return &b, nil
}

func (r *DynamoBasketRepository) List(ctx context.Context) ([]models.Basket, error) {
	items, err := ddb.ScanItems(ctx, r.client, &dynamodb.ScanInput{TableName: &r.table})
	if err != nil {
		return nil, err
	}
	baskets := make([]models.Basket, 0, len(items))
	for _, item := range items {
		b, err := r.fromItem(item)
		if err != nil {
			return nil, err
		}
		baskets = append(baskets, *b)
	}
	return baskets, nil
}

func (r *DynamoBasketRepository) Get(ctx context.Context, userName string) (*models.Basket, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.table,
		Key:       r.key(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return r.fromItem(out.Item)
}

func (r *DynamoBasketRepository) Put(ctx context.Context, basket *models.Basket) error {
	item, err := r.toItem(basket)
	if err != nil {
		return err
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &r.table, Item: item}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (r *DynamoBasketRepository) Delete(ctx context.Context, userName string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.table,
		Key:       r.key(userName),
	})
	if err != nil {
		return fmt.Errorf("dynamodb DeleteItem failed: %w", err)
	}
	return nil
}
