package routes

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/basket-service/controllers"
)

func RegisterBasketRoutes(r *gin.Engine, bc *controllers.BasketController) {
	// Handlers attach failures with c.Error; this renders them.
	r.Use(apperrors.ErrorMiddleware())
	r.HandleMethodNotAllowed = true
	r.NoMethod(controllers.Unsupported)

	basket := r.Group("/basket")
	{
		basket.GET("", bc.ListBaskets)
		basket.POST("", bc.SaveBasket)
		basket.POST("/checkout", bc.Checkout)
		basket.GET("/:userName", bc.GetBasket)
		basket.DELETE("/:userName", bc.DeleteBasket)
	}
}
