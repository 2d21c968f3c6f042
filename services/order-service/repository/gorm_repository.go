package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yashrajoria/swn-shop/services/order-service/models"
)

// GormOrderRepository stores orders in Postgres.
type GormOrderRepository struct {
	db *gorm.DB
}

var _ OrderRepository = (*GormOrderRepository)(nil)

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateOrder, order.UserName, order.CreatedAt)
	}
	return err
}

func (r *GormOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).Order("user_name, created_at").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userName string) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		Order("created_at").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) Get(ctx context.Context, userName, createdAt string) (*models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("user_name = ? AND created_at = ?", userName, createdAt).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

// OpenPostgres builds a pgx pool for dsn and hands it to gorm. Close the
// returned pool on shutdown.
func OpenPostgres(ctx context.Context, dsn string) (*gorm.DB, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, pool, nil
}

// Migrate creates or updates the orders table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}
