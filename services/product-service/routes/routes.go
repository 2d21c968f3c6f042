package routes

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/product-service/controllers"
)

func RegisterProductRoutes(r *gin.Engine, pc *controllers.ProductController) {
	// Handlers attach failures with c.Error; this renders them.
	r.Use(apperrors.ErrorMiddleware())
	r.HandleMethodNotAllowed = true
	r.NoMethod(controllers.Unsupported)

	product := r.Group("/product")
	{
		product.GET("", pc.ListProducts)
		product.POST("", pc.CreateProduct)
		product.GET("/:id", pc.GetProduct)
		product.PATCH("/:id", pc.UpdateProduct)
		product.DELETE("/:id", pc.DeleteProduct)
		product.POST("/:id/image-upload-url", pc.ImageUploadURL)
	}
}
