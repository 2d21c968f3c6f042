package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/swn-shop/pkg/contracts"
	"github.com/yashrajoria/swn-shop/pkg/eventbus"
	"github.com/yashrajoria/swn-shop/pkg/queue"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/order-service/models"
	"github.com/yashrajoria/swn-shop/services/order-service/repository"
	"github.com/yashrajoria/swn-shop/services/order-service/services"
)

// recordingWriter collects payloads and fails for chosen users.
type recordingWriter struct {
	mu      sync.Mutex
	seen    []string
	failFor map[string]bool
}

func (w *recordingWriter) CreateOrder(_ context.Context, p *contracts.CheckoutBasket) (*models.Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen = append(w.seen, p.UserName)
	if w.failFor[p.UserName] {
		return nil, apperrors.Downstream("failed to create order", errors.New("boom"))
	}
	return models.NewOrder(p, "t"), nil
}

func envelope(t *testing.T, detailType string, detail any) string {
	t.Helper()
	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	body, err := json.Marshal(eventbus.Event{
		Version:    "0",
		ID:         "ev-1",
		DetailType: detailType,
		Source:     contracts.DefaultEventSource,
		Time:       time.Now().UTC(),
		Detail:     raw,
	})
	require.NoError(t, err)
	return string(body)
}

func TestDispatcher_QueueBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - every record becomes an order", func(t *testing.T) {
		repo := repository.NewMemoryOrderRepository()
		d := services.NewDispatcher(services.NewOrderWriter(repo, services.WithClock(tickingClock())), repo, "")

		var msgs []queue.Message
		for i := range 5 {
			p := swnPayload()
			p.UserName = fmt.Sprintf("user-%d", i)
			msgs = append(msgs, queue.Message{ID: fmt.Sprintf("m-%d", i), Body: envelope(t, "CheckoutBasket", p)})
		}

		res, err := d.Dispatch(ctx, services.QueueBatch{Records: msgs})
		require.NoError(t, err)
		require.NotNil(t, res.Batch)
		assert.Empty(t, res.Batch.Failed())
		assert.Len(t, res.Batch.Records, 5)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("Success - sns wrapped record is unwrapped", func(t *testing.T) {
		repo := repository.NewMemoryOrderRepository()
		d := services.NewDispatcher(services.NewOrderWriter(repo), repo, "")

		wrapped, err := json.Marshal(map[string]string{
			"Type":    "Notification",
			"Message": envelope(t, "CheckoutBasket", swnPayload()),
		})
		require.NoError(t, err)

		res, err := d.Dispatch(ctx, services.QueueBatch{Records: []queue.Message{{ID: "m-1", Body: string(wrapped)}}})
		require.NoError(t, err)
		assert.Empty(t, res.Batch.Failed())
		assert.Equal(t, "swn", res.Batch.Records[0].Order.UserName)
	})

	t.Run("Failure - bad records are reported without aborting the batch", func(t *testing.T) {
		writer := &recordingWriter{failFor: map[string]bool{"broken": true}}
		d := services.NewDispatcher(writer, new(MockOrderRepo), "")
		d.SetMaxConcurrency(2)

		failing := swnPayload()
		failing.UserName = "broken"
		noUser := swnPayload()
		noUser.UserName = ""

		res, err := d.Dispatch(ctx, services.QueueBatch{Records: []queue.Message{
			{ID: "ok-1", Body: envelope(t, "CheckoutBasket", swnPayload())},
			{ID: "garbage", Body: "not json"},
			{ID: "no-user", Body: envelope(t, "CheckoutBasket", noUser)},
			{ID: "store", Body: envelope(t, "CheckoutBasket", failing)},
			{ID: "ok-2", Body: envelope(t, "CheckoutBasket", swnPayload())},
		}})
		require.NoError(t, err)

		failed := map[string]error{}
		for _, f := range res.Batch.Failed() {
			failed[f.MessageID] = f.Err
		}
		assert.Len(t, failed, 3)
		assert.ErrorIs(t, failed["garbage"], apperrors.ErrValidation)
		assert.ErrorIs(t, failed["no-user"], apperrors.ErrValidation)
		assert.ErrorIs(t, failed["store"], apperrors.ErrDownstream)
		assert.ElementsMatch(t, []string{"swn", "broken", "swn"}, writer.seen)
		assert.Equal(t, "ok-1", res.Batch.Records[0].MessageID)
	})
}

func TestDispatcher_BusEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - checkout detail-type writes an order", func(t *testing.T) {
		writer := &recordingWriter{}
		d := services.NewDispatcher(writer, new(MockOrderRepo), "CheckoutBasket")

		detail, _ := json.Marshal(swnPayload())
		res, err := d.Dispatch(ctx, services.BusEvent{DetailType: "CheckoutBasket", Detail: detail})
		require.NoError(t, err)
		assert.Equal(t, []string{"swn"}, writer.seen)
		assert.IsType(t, &models.Order{}, res.Body)
	})

	t.Run("Success - other detail-types are ignored", func(t *testing.T) {
		writer := &recordingWriter{}
		d := services.NewDispatcher(writer, new(MockOrderRepo), "CheckoutBasket")

		res, err := d.Dispatch(ctx, services.BusEvent{DetailType: "ProductCreated", Detail: []byte(`{}`)})
		require.NoError(t, err)
		assert.Nil(t, res.Body)
		assert.Empty(t, writer.seen)
	})

	t.Run("Failure - invalid detail", func(t *testing.T) {
		d := services.NewDispatcher(&recordingWriter{}, new(MockOrderRepo), "")
		_, err := d.Dispatch(ctx, services.BusEvent{DetailType: "CheckoutBasket", Detail: []byte(`{"items":[]}`)})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestDispatcher_HTTPRequest(t *testing.T) {
	ctx := context.Background()
	stored := models.Order{UserName: "swn", CreatedAt: "t1", TotalPrice: 25}

	t.Run("Success - list all", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("List", ctx).Return([]models.Order{stored}, nil).Once()
		d := services.NewDispatcher(&recordingWriter{}, repo, "")

		res, err := d.Dispatch(ctx, services.HTTPRequest{Method: "GET"})
		require.NoError(t, err)
		assert.Equal(t, []models.Order{stored}, res.Body)
		repo.AssertExpectations(t)
	})

	t.Run("Success - point query hit", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("Get", ctx, "swn", "t1").Return(&stored, nil).Once()
		d := services.NewDispatcher(&recordingWriter{}, repo, "")

		res, err := d.Dispatch(ctx, services.HTTPRequest{
			Method:     "GET",
			PathParams: map[string]string{"userName": "swn"},
			Query:      map[string]string{"createdAt": "t1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []models.Order{stored}, res.Body)
	})

	t.Run("Success - point query miss is empty", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("Get", ctx, "swn", "t9").Return(nil, nil).Once()
		d := services.NewDispatcher(&recordingWriter{}, repo, "")

		res, err := d.Dispatch(ctx, services.HTTPRequest{
			Method:     "GET",
			PathParams: map[string]string{"userName": "swn"},
			Query:      map[string]string{"createdAt": "t9"},
		})
		require.NoError(t, err)
		assert.Equal(t, []models.Order{}, res.Body)
	})

	t.Run("Success - user without createdAt lists that user", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("ListByUser", ctx, "swn").Return([]models.Order{stored}, nil).Once()
		d := services.NewDispatcher(&recordingWriter{}, repo, "")

		_, err := d.Dispatch(ctx, services.HTTPRequest{Method: "GET", PathParams: map[string]string{"userName": "swn"}})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Failure - unsupported method", func(t *testing.T) {
		repo := new(MockOrderRepo)
		d := services.NewDispatcher(&recordingWriter{}, repo, "")

		_, err := d.Dispatch(ctx, services.HTTPRequest{Method: "PUT"})
		assert.ErrorIs(t, err, apperrors.ErrUnsupported)
		assert.Equal(t, `Unsupported route method: "PUT"`, apperrors.BodyOf(err).ErrorMessage)
		repo.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("Failure - store error is downstream", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("List", ctx).Return(nil, assert.AnError).Once()
		d := services.NewDispatcher(&recordingWriter{}, repo, "")

		_, err := d.Dispatch(ctx, services.HTTPRequest{Method: "GET"})
		assert.ErrorIs(t, err, apperrors.ErrDownstream)
	})
}
