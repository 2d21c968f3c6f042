package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/contracts"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"
	"github.com/yashrajoria/swn-shop/services/common/logger"

	"github.com/yashrajoria/swn-shop/services/order-service/models"
	"github.com/yashrajoria/swn-shop/services/order-service/repository"
)

// OrderWriter persists checkout payloads as orders. There is no idempotency
// key: writing the same payload twice produces two rows.
type OrderWriter struct {
	repo    repository.OrderRepository
	now     func() time.Time
	metrics awspkg.Recorder
}

type WriterOption func(*OrderWriter)

// WithClock overrides the createdAt clock.
func WithClock(now func() time.Time) WriterOption {
	return func(w *OrderWriter) { w.now = now }
}

func WithMetrics(m awspkg.Recorder) WriterOption {
	return func(w *OrderWriter) {
		if m != nil {
			w.metrics = m
		}
	}
}

func NewOrderWriter(repo repository.OrderRepository, opts ...WriterOption) *OrderWriter {
	w := &OrderWriter{repo: repo, now: time.Now, metrics: awspkg.NopRecorder{}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *OrderWriter) CreateOrder(ctx context.Context, payload *contracts.CheckoutBasket) (*models.Order, error) {
	if payload == nil {
		return nil, apperrors.Validation("checkout payload is required")
	}
	if err := payload.Validate(); err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "invalid checkout payload", err)
	}

	order := models.NewOrder(payload, models.FormatCreatedAt(w.now()))
	if err := w.repo.Create(ctx, order); err != nil {
		w.record(awspkg.MetricOrderRecordsFailed, 0)
		return nil, apperrors.Downstream("failed to create order", err)
	}

	logger.FromContext(ctx).Info("order created",
		zap.String("user_name", order.UserName),
		zap.String("created_at", order.CreatedAt),
		zap.Float64("total_price", order.TotalPrice),
	)
	w.record(awspkg.MetricOrdersCreated, order.TotalPrice)
	return order, nil
}

func (w *OrderWriter) record(metric string, amount float64) {
	dims := map[string]string{"Service": "order-service"}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.metrics.RecordCount(ctx, metric, dims)
		if metric == awspkg.MetricOrdersCreated {
			_ = w.metrics.RecordValue(ctx, awspkg.MetricOrderAmount, amount, dims)
		}
	}()
}
