package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/services/order-service/repository"
	"github.com/yashrajoria/swn-shop/services/order-service/services"
)

func TestClassifyPayload(t *testing.T) {
	t.Run("Success - sqs records", func(t *testing.T) {
		inv, err := services.ClassifyPayload([]byte(`{"Records":[{"messageId":"m-1","receiptHandle":"r-1","body":"{}","attributes":{"ApproximateReceiveCount":"3"}}]}`))
		require.NoError(t, err)
		batch, ok := inv.(services.QueueBatch)
		require.True(t, ok)
		require.Len(t, batch.Records, 1)
		assert.Equal(t, "m-1", batch.Records[0].ID)
		assert.Equal(t, 3, batch.Records[0].ReceiveCount)
	})

	t.Run("Success - bus event", func(t *testing.T) {
		inv, err := services.ClassifyPayload([]byte(`{"detail-type":"CheckoutBasket","source":"com.swn.basket.checkout","detail":{"userName":"swn"}}`))
		require.NoError(t, err)
		ev, ok := inv.(services.BusEvent)
		require.True(t, ok)
		assert.Equal(t, "CheckoutBasket", ev.DetailType)
		assert.JSONEq(t, `{"userName":"swn"}`, string(ev.Detail))
	})

	t.Run("Success - empty records fall through to api", func(t *testing.T) {
		inv, err := services.ClassifyPayload([]byte(`{"Records":[],"httpMethod":"GET","pathParameters":{"userName":"swn"},"queryStringParameters":{"createdAt":"t1"}}`))
		require.NoError(t, err)
		req, ok := inv.(services.HTTPRequest)
		require.True(t, ok)
		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, "swn", req.PathParams["userName"])
		assert.Equal(t, "t1", req.Query["createdAt"])
	})

	t.Run("Failure - not json", func(t *testing.T) {
		_, err := services.ClassifyPayload([]byte(`nope`))
		assert.Error(t, err)
	})
}

func TestLambdaHandler_Handle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()
	d := services.NewDispatcher(services.NewOrderWriter(repo, services.WithClock(tickingClock())), repo, "")
	h := services.NewLambdaHandler(d, zap.NewNop())

	t.Run("Success - sqs batch never reports item failures", func(t *testing.T) {
		good := envelope(t, "CheckoutBasket", swnPayload())
		payload, err := json.Marshal(events.SQSEvent{Records: []events.SQSMessage{
			{MessageId: "m-1", Body: good},
			{MessageId: "m-2", Body: "garbage"},
		}})
		require.NoError(t, err)

		out, err := h.Handle(ctx, payload)
		require.NoError(t, err)
		resp, ok := out.(events.SQSEventResponse)
		require.True(t, ok)
		assert.Empty(t, resp.BatchItemFailures)

		rows, _ := repo.ListByUser(ctx, "swn")
		assert.Len(t, rows, 1)
	})

	t.Run("Success - api get returns orders", func(t *testing.T) {
		out, err := h.Handle(ctx, []byte(`{"httpMethod":"GET","pathParameters":{"userName":"swn"}}`))
		require.NoError(t, err)
		resp := out.(events.APIGatewayProxyResponse)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var orders []map[string]any
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &orders))
		require.NotEmpty(t, orders)
		assert.Equal(t, 25.0, orders[0]["totalPrice"])
	})

	t.Run("Failure - api unsupported method is a flat 500", func(t *testing.T) {
		out, err := h.Handle(ctx, []byte(`{"httpMethod":"DELETE","pathParameters":{"userName":"swn"}}`))
		require.NoError(t, err)
		resp := out.(events.APIGatewayProxyResponse)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{
			"message":"Failed to perform operation",
			"errorMessage":"Unsupported route method: \"DELETE\"",
			"errorKind":"UnsupportedOperationError"
		}`, resp.Body)
	})

	t.Run("Failure - bus event error propagates", func(t *testing.T) {
		_, err := h.Handle(ctx, []byte(`{"detail-type":"CheckoutBasket","detail":{"firstName":"x"}}`))
		assert.Error(t, err)
	})
}
