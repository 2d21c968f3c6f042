package repository

import (
	"context"
	"errors"

	"github.com/yashrajoria/swn-shop/services/order-service/models"
)

// ErrDuplicateOrder is returned when (userName, createdAt) already exists.
var ErrDuplicateOrder = errors.New("order already exists for key")

// OrderRepository is the order record store. Create never overwrites.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	List(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userName string) ([]models.Order, error)
	// Get returns (nil, nil) when no row has the key.
	Get(ctx context.Context, userName, createdAt string) (*models.Order, error)
}
