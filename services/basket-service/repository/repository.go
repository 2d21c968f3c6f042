package repository

import (
	"context"

	"github.com/yashrajoria/swn-shop/services/basket-service/models"
)

// BasketRepository is the basket record store. Get returns (nil, nil) when
// the user has no basket.
type BasketRepository interface {
	List(ctx context.Context) ([]models.Basket, error)
	Get(ctx context.Context, userName string) (*models.Basket, error)
	Put(ctx context.Context, basket *models.Basket) error
	Delete(ctx context.Context, userName string) error
}
