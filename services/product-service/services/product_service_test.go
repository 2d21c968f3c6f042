package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	awspkg "github.com/yashrajoria/swn-shop/pkg/aws"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/product-service/models"
	"github.com/yashrajoria/swn-shop/services/product-service/repository"
	"github.com/yashrajoria/swn-shop/services/product-service/services"
)

// --- Mocks ---

type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) List(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepo) ListByCategory(ctx context.Context, id, category string) ([]models.Product, error) {
	args := m.Called(ctx, id, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepo) Create(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepo) Update(ctx context.Context, id string, fields map[string]any) (*models.Product, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fakePresigner struct {
	key    string
	expiry time.Duration
	err    error
}

func (f *fakePresigner) PresignPut(_ context.Context, key, _ string, expiry time.Duration) (*awspkg.PresignedUpload, error) {
	f.key, f.expiry = key, expiry
	if f.err != nil {
		return nil, f.err
	}
	return &awspkg.PresignedUpload{URL: "http://s3.local/" + key, Method: "PUT"}, nil
}

// --- Tests ---

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - assigns a new uuid", func(t *testing.T) {
		repo := new(MockProductRepo)
		repo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Once()

		svc := services.NewProductService(repo, nil, "")
		p, err := svc.Create(ctx, models.Product{ID: "client-chosen", Name: "IPhone X", Price: 950, Category: "Phone"})
		require.NoError(t, err)
		assert.NotEqual(t, "client-chosen", p.ID)
		assert.Len(t, p.ID, 36)
		repo.AssertExpectations(t)
	})

	t.Run("Failure - store error", func(t *testing.T) {
		repo := new(MockProductRepo)
		repo.On("Create", ctx, mock.Anything).Return(assert.AnError).Once()

		_, err := services.NewProductService(repo, nil, "").Create(ctx, models.Product{Name: "x"})
		assert.ErrorIs(t, err, apperrors.ErrDownstream)
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - returns the updated item", func(t *testing.T) {
		repo := new(MockProductRepo)
		fields := map[string]any{"price": 900.0}
		repo.On("Update", ctx, "p-1", fields).Return(&models.Product{ID: "p-1", Price: 900}, nil).Once()

		p, err := services.NewProductService(repo, nil, "").Update(ctx, "p-1", fields)
		require.NoError(t, err)
		assert.Equal(t, 900.0, p.Price)
	})

	t.Run("Failure - key attribute cannot be set", func(t *testing.T) {
		repo := new(MockProductRepo)
		_, err := services.NewProductService(repo, nil, "").Update(ctx, "p-1", map[string]any{"id": "other"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - empty body", func(t *testing.T) {
		_, err := services.NewProductService(new(MockProductRepo), nil, "").Update(ctx, "p-1", nil)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Failure - unknown product", func(t *testing.T) {
		repo := new(MockProductRepo)
		repo.On("Update", ctx, "nope", mock.Anything).Return(nil, repository.ErrProductNotFound).Once()

		_, err := services.NewProductService(repo, nil, "").Update(ctx, "nope", map[string]any{"name": "x"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestProductService_ImageUploadURL(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - key is scoped to the product", func(t *testing.T) {
		repo := new(MockProductRepo)
		repo.On("Get", ctx, "p-1").Return(&models.Product{ID: "p-1"}, nil).Once()
		presigner := &fakePresigner{}

		up, err := services.NewProductService(repo, presigner, "images").
			ImageUploadURL(ctx, "p-1", "../../etc/front.png", "image/png", 2*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "images/p-1/front.png", up.Key)
		assert.Equal(t, "PUT", up.Method)
		assert.Equal(t, time.Hour, presigner.expiry)
		assert.Equal(t, int64(3600), up.ExpiresIn)
	})

	t.Run("Failure - content type not allowed", func(t *testing.T) {
		_, err := services.NewProductService(new(MockProductRepo), &fakePresigner{}, "").
			ImageUploadURL(ctx, "p-1", "a.exe", "application/octet-stream", 0)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Failure - product missing", func(t *testing.T) {
		repo := new(MockProductRepo)
		repo.On("Get", ctx, "nope").Return(nil, nil).Once()

		_, err := services.NewProductService(repo, &fakePresigner{}, "").
			ImageUploadURL(ctx, "nope", "a.png", "image/png", 0)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Failure - uploads not configured", func(t *testing.T) {
		_, err := services.NewProductService(new(MockProductRepo), nil, "").
			ImageUploadURL(ctx, "p-1", "a.png", "image/png", 0)
		assert.Error(t, err)
	})
}
