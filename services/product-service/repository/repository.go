package repository

import (
	"context"
	"errors"

	"github.com/yashrajoria/swn-shop/services/product-service/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository is the product catalog store. Get returns (nil, nil)
// when the id is unknown.
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	ListByCategory(ctx context.Context, id, category string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update sets every given attribute and returns the full item after the
	// update. Unknown ids yield ErrProductNotFound.
	Update(ctx context.Context, id string, fields map[string]any) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}
