// Package dynamodb holds paginated reads shared by the service repositories.
// Items unmarshal straight into the caller's record type.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ScanItems reads every page of a Scan and returns the raw items.
func ScanItems(ctx context.Context, client dynamodb.ScanAPIClient, in *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(client, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb Scan failed: %w", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// ScanAll reads every page of a Scan. The result is never nil.
func ScanAll[T any](ctx context.Context, client dynamodb.ScanAPIClient, in *dynamodb.ScanInput) ([]T, error) {
	items, err := ScanItems(ctx, client, in)
	if err != nil {
		return nil, err
	}
	return appendItems([]T{}, items)
}

// QueryAll reads every page of a Query. The result is never nil.
func QueryAll[T any](ctx context.Context, client dynamodb.QueryAPIClient, in *dynamodb.QueryInput) ([]T, error) {
	out := []T{}
	paginator := dynamodb.NewQueryPaginator(client, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb Query failed: %w", err)
		}
		if out, err = appendItems(out, page.Items); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func appendItems[T any](dst []T, items []map[string]types.AttributeValue) ([]T, error) {
	var batch []T
	if err := attributevalue.UnmarshalListOfMaps(items, &batch); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return append(dst, batch...), nil
}
