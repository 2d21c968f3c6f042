package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/contracts"
	"github.com/yashrajoria/swn-shop/pkg/eventbus"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"
	"github.com/yashrajoria/swn-shop/services/common/logger"

	"github.com/yashrajoria/swn-shop/services/basket-service/models"
	"github.com/yashrajoria/swn-shop/services/basket-service/repository"
)

// EventRouting names where checkout events go.
type EventRouting struct {
	Source     string
	DetailType string
	BusName    string
}

// CheckoutOrchestrator turns a stored basket into a published checkout
// event. Steps run strictly in order: read, total, publish, delete. Nothing
// is rolled back if a later step fails.
type CheckoutOrchestrator struct {
	baskets   repository.BasketRepository
	publisher eventbus.Publisher
	routing   EventRouting
	metrics   awspkg.Recorder
}

func NewCheckoutOrchestrator(baskets repository.BasketRepository, publisher eventbus.Publisher, routing EventRouting, metrics awspkg.Recorder) *CheckoutOrchestrator {
	if routing.Source == "" {
		routing.Source = contracts.DefaultEventSource
	}
	if routing.DetailType == "" {
		routing.DetailType = contracts.DefaultEventDetailType
	}
	if metrics == nil {
		metrics = awspkg.NopRecorder{}
	}
	return &CheckoutOrchestrator{baskets: baskets, publisher: publisher, routing: routing, metrics: metrics}
}

// TotalPrice sums item prices in decimal, so 0.1 + 0.2 is 0.3. Quantity is
// not a multiplier.
func TotalPrice(items []contracts.Item) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price))
	}
	return total.InexactFloat64()
}

// BuildPayload merges the basket into the request.
func BuildPayload(req models.CheckoutRequest, basket *models.Basket) contracts.CheckoutBasket {
	return contracts.CheckoutBasket{
		UserName:      basket.UserName,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Address:       req.Address,
		CardInfo:      req.CardInfo,
		PaymentMethod: req.PaymentMethod,
		TotalPrice:    TotalPrice(basket.Items),
		Items:         basket.Items,
	}
}

func (o *CheckoutOrchestrator) Checkout(ctx context.Context, req models.CheckoutRequest) (eventbus.PutResult, error) {
	log := logger.FromContext(ctx).With(zap.String("user_name", req.UserName))

	if req.UserName == "" {
		return eventbus.PutResult{}, apperrors.Validation("userName should exist in request")
	}

	basket, err := o.baskets.Get(ctx, req.UserName)
	if err != nil {
		return eventbus.PutResult{}, apperrors.Downstream("failed to read basket", err)
	}
	if basket == nil || len(basket.Items) == 0 {
		return eventbus.PutResult{}, apperrors.NotFound("basket for %q should exist and have items", req.UserName)
	}
	if basket.UserName == "" {
		basket.UserName = req.UserName
	}

	payload := BuildPayload(req, basket)
	detail, err := json.Marshal(payload)
	if err != nil {
		return eventbus.PutResult{}, apperrors.New(apperrors.KindInternal, "failed to encode checkout payload", err)
	}

	res, err := o.publisher.PutEvent(ctx, eventbus.Entry{
		Source:       o.routing.Source,
		DetailType:   o.routing.DetailType,
		EventBusName: o.routing.BusName,
		Detail:       detail,
	})
	if err != nil {
		o.record(awspkg.MetricCheckoutsFailed)
		return eventbus.PutResult{}, apperrors.Downstream("failed to publish checkout event", err)
	}
	log.Info("checkout event published",
		zap.String("event_id", res.EventID),
		zap.Float64("total_price", payload.TotalPrice),
		zap.Int("items", len(payload.Items)),
	)
	o.record(awspkg.MetricCheckoutsPublished)

	if err := o.baskets.Delete(ctx, req.UserName); err != nil {
		log.Error("basket delete failed after publish", zap.String("event_id", res.EventID), zap.Error(err))
		return res, apperrors.Downstream("checkout event published but basket delete failed", err)
	}
	return res, nil
}

func (o *CheckoutOrchestrator) record(metric string) {
	dims := map[string]string{"Service": "basket-service"}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.metrics.RecordCount(ctx, metric, dims)
	}()
}
