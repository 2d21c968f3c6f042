package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yashrajoria/swn-shop/services/order-service/models"
)

// MemoryOrderRepository keeps orders in process. Used for local runs with
// ORDER_STORE=memory and in tests.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[[2]string]models.Order
}

var _ OrderRepository = (*MemoryOrderRepository)(nil)

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[[2]string]models.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := [2]string{order.UserName, order.CreatedAt}
	if _, exists := r.orders[key]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateOrder, order.UserName, order.CreatedAt)
	}
	r.orders[key] = *order
	return nil
}

func (r *MemoryOrderRepository) List(_ context.Context) ([]models.Order, error) {
	return r.collect(func(models.Order) bool { return true }), nil
}

func (r *MemoryOrderRepository) ListByUser(_ context.Context, userName string) ([]models.Order, error) {
	return r.collect(func(o models.Order) bool { return o.UserName == userName }), nil
}

func (r *MemoryOrderRepository) Get(_ context.Context, userName, createdAt string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[[2]string{userName, createdAt}]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *MemoryOrderRepository) collect(keep func(models.Order) bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserName != out[j].UserName {
			return out[i].UserName < out[j].UserName
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}
