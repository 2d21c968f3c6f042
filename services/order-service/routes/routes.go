package routes

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/order-service/controllers"
)

func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	// Handlers attach failures with c.Error; this renders them.
	r.Use(apperrors.ErrorMiddleware())
	r.HandleMethodNotAllowed = true
	r.NoMethod(oc.Handle)

	order := r.Group("/order")
	{
		order.GET("", oc.Handle)
		order.GET("/:userName", oc.Handle)
	}
}
