package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	ddb "github.com/yashrajoria/swn-shop/pkg/dynamodb"

	"github.com/yashrajoria/swn-shop/services/product-service/models"
)

type DynamoAPI interface {
	dynamodb.ScanAPIClient
	dynamodb.QueryAPIClient
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoProductRepository stores products in a table keyed by id.
type DynamoProductRepository struct {
	client DynamoAPI
	table  string
}

var _ ProductRepository = (*DynamoProductRepository)(nil)

func NewDynamoProductRepository(client DynamoAPI, table string) *DynamoProductRepository {
	return &DynamoProductRepository{client: client, table: table}
}

func (r *DynamoProductRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func (r *DynamoProductRepository) List(ctx context.Context) ([]models.Product, error) {
	return ddb.ScanAll[models.Product](ctx, r.client, &dynamodb.ScanInput{TableName: &r.table})
}

func (r *DynamoProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &r.table, Key: r.key(id)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p models.Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// ListByCategory queries the id partition and keeps items whose category
// contains the given value.
func (r *DynamoProductRepository) ListByCategory(ctx context.Context, id, category string) ([]models.Product, error) {
	return ddb.QueryAll[models.Product](ctx, r.client, &dynamodb.QueryInput{
		TableName:              &r.table,
		KeyConditionExpression: aws.String("id = :productId"),
		FilterExpression:       aws.String("contains(category, :category)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":productId": &types.AttributeValueMemberS{Value: id},
			":category":  &types.AttributeValueMemberS{Value: category},
		},
	})
}

func (r *DynamoProductRepository) Create(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &r.table, Item: item}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// UpdateExpression builds "SET #Key0 = :value0, ..." over fields in key
// order, with the matching name and value maps.
func UpdateExpression(fields map[string]any) (string, map[string]string, map[string]types.AttributeValue, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string, len(keys))
	values := make(map[string]types.AttributeValue, len(keys))
	sets := make([]string, 0, len(keys))
	for i, k := range keys {
		av, err := attributevalue.Marshal(fields[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		names[fmt.Sprintf("#Key%d", i)] = k
		values[fmt.Sprintf(":value%d", i)] = av
		sets = append(sets, fmt.Sprintf("#Key%d = :value%d", i, i))
	}
	return "SET " + strings.Join(sets, ", "), names, values, nil
}

func (r *DynamoProductRepository) Update(ctx context.Context, id string, fields map[string]any) (*models.Product, error) {
	expr, names, values, err := UpdateExpression(fields)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &r.table,
		Key:                       r.key(id),
		UpdateExpression:          &expr,
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	var p models.Product
	if err := attributevalue.UnmarshalMap(out.Attributes, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

func (r *DynamoProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: &r.table, Key: r.key(id)}); err != nil {
		return fmt.Errorf("dynamodb DeleteItem failed: %w", err)
	}
	return nil
}
