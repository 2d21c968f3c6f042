package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/product-service/models"
)

type ProductService interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	ListByCategory(ctx context.Context, id, category string) ([]models.Product, error)
	Create(ctx context.Context, p models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, fields map[string]any) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	ImageUploadURL(ctx context.Context, id, filename, contentType string, expiry time.Duration) (*models.ImageUpload, error)
}

type ProductController struct {
	products ProductService
}

func NewProductController(products ProductService) *ProductController {
	return &ProductController{products: products}
}

func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.products.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct answers GET /product/:id, filtered by ?category when given.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id := c.Param("id")
	if category, ok := c.GetQuery("category"); ok {
		products, err := pc.products.ListByCategory(c.Request.Context(), id, category)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, products)
		return
	}

	p, err := pc.products.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req models.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.KindValidation, "invalid product payload", err))
		return
	}
	p, err := pc.products.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		_ = c.Error(apperrors.New(apperrors.KindValidation, "invalid update payload", err))
		return
	}
	p, err := pc.products.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := pc.products.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type imageUploadRequest struct {
	Filename    string `json:"filename" form:"filename"`
	ContentType string `json:"content_type" form:"content_type"`
	Expires     int64  `json:"expires" form:"expires"`
}

// ImageUploadURL answers POST /product/:id/image-upload-url. Parameters come
// from the JSON body or the query string.
func (pc *ProductController) ImageUploadURL(c *gin.Context) {
	req := imageUploadRequest{Filename: "upload", ContentType: "image/jpeg"}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(apperrors.New(apperrors.KindValidation, "invalid upload request", err))
			return
		}
	} else {
		req.Filename = c.DefaultQuery("filename", req.Filename)
		req.ContentType = c.DefaultQuery("content_type", req.ContentType)
		req.Expires, _ = strconv.ParseInt(c.Query("expires"), 10, 64)
	}

	upload, err := pc.products.ImageUploadURL(c.Request.Context(), c.Param("id"), req.Filename, req.ContentType, time.Duration(req.Expires)*time.Second)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func Unsupported(c *gin.Context) {
	_ = c.Error(apperrors.Unsupported(c.Request.Method))
}
