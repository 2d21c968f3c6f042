package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/swn-shop/pkg/aws"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"
	"github.com/yashrajoria/swn-shop/services/common/logger"

	"github.com/yashrajoria/swn-shop/services/product-service/models"
	"github.com/yashrajoria/swn-shop/services/product-service/repository"
)

const (
	DefaultUploadExpiry = 15 * time.Minute
	MaxUploadExpiry     = time.Hour
)

var allowedImageTypes = []string{"image/gif", "image/jpeg", "image/jpg", "image/png", "image/webp"}

// Presigner issues presigned object uploads.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*awspkg.PresignedUpload, error)
}

type ProductService struct {
	repo        repository.ProductRepository
	presigner   Presigner
	imagePrefix string
	newID       func() string
}

func NewProductService(repo repository.ProductRepository, presigner Presigner, imagePrefix string) *ProductService {
	if imagePrefix == "" {
		imagePrefix = "product"
	}
	return &ProductService{repo: repo, presigner: presigner, imagePrefix: imagePrefix, newID: uuid.NewString}
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Downstream("failed to list products", err)
	}
	return products, nil
}

// Get returns nil, nil when the product does not exist.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Downstream("failed to get product", err)
	}
	return p, nil
}

func (s *ProductService) ListByCategory(ctx context.Context, id, category string) ([]models.Product, error) {
	products, err := s.repo.ListByCategory(ctx, id, category)
	if err != nil {
		return nil, apperrors.Downstream("failed to query products by category", err)
	}
	return products, nil
}

// Create assigns a fresh id, ignoring any id in the request.
func (s *ProductService) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	p.ID = s.newID()
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, apperrors.Downstream("failed to create product", err)
	}
	logger.FromContext(ctx).Info("product created", zap.String("product_id", p.ID))
	return &p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, fields map[string]any) (*models.Product, error) {
	if len(fields) == 0 {
		return nil, apperrors.Validation("update body should have at least one attribute")
	}
	for k := range fields {
		if !models.UpdatableFields[k] {
			return nil, apperrors.Validation("attribute %q cannot be updated", k)
		}
	}
	p, err := s.repo.Update(ctx, id, fields)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("product %q should exist", id), err)
	}
	if err != nil {
		return nil, apperrors.Downstream("failed to update product", err)
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Downstream("failed to delete product", err)
	}
	return nil
}

// ImageUploadURL presigns a PUT for <prefix>/<id>/<filename> after checking
// the product exists.
func (s *ProductService) ImageUploadURL(ctx context.Context, id, filename, contentType string, expiry time.Duration) (*models.ImageUpload, error) {
	if s.presigner == nil {
		return nil, apperrors.New(apperrors.KindInternal, "image uploads are not configured", nil)
	}
	if !slices.Contains(allowedImageTypes, contentType) {
		return nil, apperrors.Validation("content type %q is not allowed; use one of %v", contentType, allowedImageTypes)
	}
	if expiry <= 0 {
		expiry = DefaultUploadExpiry
	}
	expiry = min(expiry, MaxUploadExpiry)

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NotFound("product %q should exist", id)
	}

	key := path.Join(s.imagePrefix, id, path.Base("/"+filename))
	upload, err := s.presigner.PresignPut(ctx, key, contentType, expiry)
	if err != nil {
		return nil, apperrors.Downstream("failed to presign image upload", err)
	}
	return &models.ImageUpload{
		UploadURL: upload.URL,
		Method:    upload.Method,
		Key:       key,
		Headers:   upload.Headers,
		ExpiresIn: int64(expiry / time.Second),
	}, nil
}
