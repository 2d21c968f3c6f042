package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/swn-shop/pkg/eventbus"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/basket-service/models"
)

type BasketService interface {
	List(ctx context.Context) ([]models.Basket, error)
	Get(ctx context.Context, userName string) (*models.Basket, error)
	Save(ctx context.Context, basket *models.Basket) (*models.Basket, error)
	Delete(ctx context.Context, userName string) error
}

type Checkouter interface {
	Checkout(ctx context.Context, req models.CheckoutRequest) (eventbus.PutResult, error)
}

type BasketController struct {
	baskets  BasketService
	checkout Checkouter
}

func NewBasketController(baskets BasketService, checkout Checkouter) *BasketController {
	return &BasketController{baskets: baskets, checkout: checkout}
}

// ok wraps a result in the basket API success envelope.
func ok(c *gin.Context, body any) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Operation finished " + c.Request.Method,
		"body":    body,
	})
}

func (bc *BasketController) ListBaskets(c *gin.Context) {
	baskets, err := bc.baskets.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, baskets)
}

func (bc *BasketController) GetBasket(c *gin.Context) {
	basket, err := bc.baskets.Get(c.Request.Context(), c.Param("userName"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, basket)
}

func (bc *BasketController) SaveBasket(c *gin.Context) {
	var basket models.Basket
	if err := c.ShouldBindJSON(&basket); err != nil {
		_ = c.Error(apperrors.New(apperrors.KindValidation, "invalid basket payload", err))
		return
	}
	saved, err := bc.baskets.Save(c.Request.Context(), &basket)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, saved)
}

func (bc *BasketController) DeleteBasket(c *gin.Context) {
	userName := c.Param("userName")
	if err := bc.baskets.Delete(c.Request.Context(), userName); err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, gin.H{"userName": userName})
}

func (bc *BasketController) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.KindValidation, "invalid checkout payload", err))
		return
	}
	res, err := bc.checkout.Checkout(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, res)
}

// Unsupported answers any method the basket API does not route.
func Unsupported(c *gin.Context) {
	_ = c.Error(apperrors.Unsupported(c.Request.Method))
}
