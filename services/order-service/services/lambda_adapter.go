package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/pkg/queue"
	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"
	"github.com/yashrajoria/swn-shop/services/common/logger"
)

// rawShape holds only the keys used to tell the trigger types apart.
type rawShape struct {
	Records    json.RawMessage `json:"Records"`
	DetailType string          `json:"detail-type"`
}

// ClassifyPayload decodes a raw Lambda payload into an Invocation. A
// non-empty Records list wins over detail-type; anything else is an API
// Gateway proxy request.
func ClassifyPayload(payload []byte) (Invocation, error) {
	var shape rawShape
	if err := json.Unmarshal(payload, &shape); err != nil {
		return nil, fmt.Errorf("decode invocation payload: %w", err)
	}

	if len(shape.Records) > 0 && string(shape.Records) != "null" {
		var ev events.SQSEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode sqs event: %w", err)
		}
		if len(ev.Records) > 0 {
			return QueueBatch{Records: sqsRecords(ev.Records)}, nil
		}
	}

	if shape.DetailType != "" {
		var ev events.CloudWatchEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode bus event: %w", err)
		}
		return BusEvent{Source: ev.Source, DetailType: ev.DetailType, Detail: ev.Detail}, nil
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode api request: %w", err)
	}
	return HTTPRequest{
		Method:     req.HTTPMethod,
		PathParams: req.PathParameters,
		Query:      req.QueryStringParameters,
	}, nil
}

func sqsRecords(records []events.SQSMessage) []queue.Message {
	out := make([]queue.Message, 0, len(records))
	for _, r := range records {
		count, _ := strconv.Atoi(r.Attributes["ApproximateReceiveCount"])
		out = append(out, queue.Message{
			ID:            r.MessageId,
			Body:          r.Body,
			ReceiptHandle: r.ReceiptHandle,
			ReceiveCount:  count,
		})
	}
	return out
}

// LambdaHandler is the order function entry point.
type LambdaHandler struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewLambdaHandler(d *Dispatcher, base *zap.Logger) *LambdaHandler {
	if base == nil {
		base = zap.NewNop()
	}
	return &LambdaHandler{dispatcher: d, logger: base}
}

// Handle dispatches one invocation and shapes the response for its trigger.
// Queue batches always report zero item failures.
func (h *LambdaHandler) Handle(ctx context.Context, payload json.RawMessage) (any, error) {
	ctx = logger.WithContext(ctx, h.logger)

	inv, err := ClassifyPayload(payload)
	if err != nil {
		h.logger.Error("unrecognized invocation", zap.Error(err))
		return nil, err
	}

	res, err := h.dispatcher.Dispatch(ctx, inv)
	switch inv.(type) {
	case QueueBatch:
		if res.Batch != nil {
			for _, f := range res.Batch.Failed() {
				h.logger.Warn("sqs record failed", zap.String("message_id", f.MessageID), zap.Error(f.Err))
			}
		}
		return events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}, nil
	case BusEvent:
		if err != nil {
			return nil, err
		}
		return res.Body, nil
	default:
		return apiResponse(res.Body, err), nil
	}
}

func apiResponse(body any, err error) events.APIGatewayProxyResponse {
	status := http.StatusOK
	var payload any = body
	if err != nil {
		status = http.StatusInternalServerError
		payload = apperrors.BodyOf(err)
	}
	encoded, mErr := json.Marshal(payload)
	if mErr != nil {
		status = http.StatusInternalServerError
		encoded, _ = json.Marshal(apperrors.BodyOf(apperrors.New(apperrors.KindInternal, "failed to encode response", mErr)))
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(encoded),
	}
}
