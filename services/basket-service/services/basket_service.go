package services

import (
	"context"

	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/basket-service/models"
	"github.com/yashrajoria/swn-shop/services/basket-service/repository"
)

// BasketService is the plain CRUD surface over the basket store.
type BasketService struct {
	repo repository.BasketRepository
}

func NewBasketService(repo repository.BasketRepository) *BasketService {
	return &BasketService{repo: repo}
}

func (s *BasketService) List(ctx context.Context) ([]models.Basket, error) {
	baskets, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Downstream("failed to list baskets", err)
	}
	return baskets, nil
}

// Get returns nil without error for an unknown user.
func (s *BasketService) Get(ctx context.Context, userName string) (*models.Basket, error) {
	b, err := s.repo.Get(ctx, userName)
	if err != nil {
		return nil, apperrors.Downstream("failed to get basket", err)
	}
	return b, nil
}

// Save replaces the user's basket wholesale.
func (s *BasketService) Save(ctx context.Context, basket *models.Basket) (*models.Basket, error) {
	if basket == nil || basket.UserName == "" {
		return nil, apperrors.Validation("userName should exist in request")
	}
	if err := s.repo.Put(ctx, basket); err != nil {
		return nil, apperrors.Downstream("failed to save basket", err)
	}
	return basket, nil
}

func (s *BasketService) Delete(ctx context.Context, userName string) error {
	if err := s.repo.Delete(ctx, userName); err != nil {
		return apperrors.Downstream("failed to delete basket", err)
	}
	return nil
}
