package services

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yashrajoria/swn-shop/pkg/contracts"
	"github.com/yashrajoria/swn-shop/pkg/eventbus"
	"github.com/yashrajoria/swn-shop/pkg/queue"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"
	"github.com/yashrajoria/swn-shop/services/common/logger"

	"github.com/yashrajoria/swn-shop/services/order-service/models"
	"github.com/yashrajoria/swn-shop/services/order-service/repository"
)

// Invocation is one of HTTPRequest, BusEvent or QueueBatch.
type Invocation interface {
	invocation()
}

// HTTPRequest is an API call routed to the order resource.
type HTTPRequest struct {
	Method     string
	PathParams map[string]string
	Query      map[string]string
}

// BusEvent is an event delivered straight from the bus.
type BusEvent struct {
	Source     string
	DetailType string
	Detail     []byte
}

// QueueBatch is a batch of queue messages carrying bus envelopes.
type QueueBatch struct {
	Records []queue.Message
}

func (HTTPRequest) invocation() {}
func (BusEvent) invocation()    {}
func (QueueBatch) invocation()  {}

// RecordOutcome is the result of one queue record.
type RecordOutcome struct {
	MessageID string
	Order     *models.Order
	Err       error
}

type BatchResult struct {
	Records []RecordOutcome
}

// Failed returns the outcomes that carry an error.
func (b *BatchResult) Failed() []RecordOutcome {
	var out []RecordOutcome
	for _, r := range b.Records {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Result is what Dispatch returns. Body is set for HTTP and bus
// invocations, Batch for queue batches.
type Result struct {
	Body  any
	Batch *BatchResult
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, payload *contracts.CheckoutBasket) (*models.Order, error)
}

// Dispatcher routes invocations to the order writer or the read side.
type Dispatcher struct {
	writer     OrderCreator
	orders     repository.OrderRepository
	detailType string
	// maxConcurrent bounds per-batch fan-out; zero means one goroutine per record.
	maxConcurrent int
}

func NewDispatcher(writer OrderCreator, orders repository.OrderRepository, detailType string) *Dispatcher {
	if detailType == "" {
		detailType = contracts.DefaultEventDetailType
	}
	return &Dispatcher{writer: writer, orders: orders, detailType: detailType}
}

// SetMaxConcurrency limits how many records of a batch are written at once.
func (d *Dispatcher) SetMaxConcurrency(n int) {
	d.maxConcurrent = n
}

func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (Result, error) {
	switch v := inv.(type) {
	case QueueBatch:
		return Result{Batch: d.handleBatch(ctx, v)}, nil
	case BusEvent:
		return d.handleEvent(ctx, v)
	case HTTPRequest:
		return d.handleHTTP(ctx, v)
	default:
		return Result{}, apperrors.New(apperrors.KindInternal, fmt.Sprintf("unknown invocation %T", inv), nil)
	}
}

func (d *Dispatcher) handleBatch(ctx context.Context, batch QueueBatch) *BatchResult {
	res := &BatchResult{Records: make([]RecordOutcome, len(batch.Records))}
	log := logger.FromContext(ctx)

	var g errgroup.Group
	if d.maxConcurrent > 0 {
		g.SetLimit(d.maxConcurrent)
	}
	for i, msg := range batch.Records {
		g.Go(func() error {
			order, err := d.processRecord(ctx, msg)
			if err != nil {
				log.Error("queue record failed",
					zap.String("message_id", msg.ID),
					zap.Int("receive_count", msg.ReceiveCount),
					zap.Error(err),
				)
			}
			res.Records[i] = RecordOutcome{MessageID: msg.ID, Order: order, Err: err}
			// Errors live in the outcome; the group itself never fails.
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func (d *Dispatcher) processRecord(ctx context.Context, msg queue.Message) (*models.Order, error) {
	ev, err := eventbus.ParseEvent(eventbus.UnwrapNotification([]byte(msg.Body)))
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "invalid queue record", err)
	}
	payload, err := contracts.DecodeCheckoutBasket(ev.Detail)
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "invalid checkout detail", err)
	}
	return d.writer.CreateOrder(ctx, payload)
}

func (d *Dispatcher) handleEvent(ctx context.Context, ev BusEvent) (Result, error) {
	if ev.DetailType != d.detailType {
		logger.FromContext(ctx).Debug("bus event ignored", zap.String("detail_type", ev.DetailType))
		return Result{}, nil
	}
	payload, err := contracts.DecodeCheckoutBasket(ev.Detail)
	if err != nil {
		return Result{}, apperrors.New(apperrors.KindValidation, "invalid checkout detail", err)
	}
	order, err := d.writer.CreateOrder(ctx, payload)
	if err != nil {
		return Result{}, err
	}
	return Result{Body: order}, nil
}

func (d *Dispatcher) handleHTTP(ctx context.Context, req HTTPRequest) (Result, error) {
	if req.Method != http.MethodGet {
		return Result{}, apperrors.Unsupported(req.Method)
	}

	userName := req.PathParams["userName"]
	if userName == "" {
		orders, err := d.orders.List(ctx)
		if err != nil {
			return Result{}, apperrors.Downstream("failed to list orders", err)
		}
		return Result{Body: orders}, nil
	}

	createdAt := req.Query["createdAt"]
	if createdAt == "" {
		orders, err := d.orders.ListByUser(ctx, userName)
		if err != nil {
			return Result{}, apperrors.Downstream("failed to query orders", err)
		}
		return Result{Body: orders}, nil
	}

	order, err := d.orders.Get(ctx, userName, createdAt)
	if err != nil {
		return Result{}, apperrors.Downstream("failed to query order", err)
	}
	orders := []models.Order{}
	if order != nil {
		orders = append(orders, *order)
	}
	return Result{Body: orders}, nil
}
