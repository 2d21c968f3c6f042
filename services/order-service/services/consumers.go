package services

import (
	"context"

	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/eventbus"
	"github.com/yashrajoria/swn-shop/pkg/kafka"
	"github.com/yashrajoria/swn-shop/pkg/queue"
	"github.com/yashrajoria/swn-shop/services/common/logger"
)

// QueueHandler adapts the dispatcher to a queue.Poller. Records are never
// acknowledged; failures come back to the poller only to be logged. Each
// batch size is recorded as MetricQueueMessages.
func QueueHandler(d *Dispatcher, metrics awspkg.Recorder, base *zap.Logger) queue.BatchHandler {
	if metrics == nil {
		metrics = awspkg.NopRecorder{}
	}
	return func(ctx context.Context, msgs []queue.Message) []queue.RecordResult {
		ctx = logger.WithContext(ctx, base)
		if err := metrics.RecordValue(ctx, awspkg.MetricQueueMessages, float64(len(msgs)), map[string]string{"Service": "order-service"}); err != nil {
			base.Debug("queue metric not recorded", zap.Error(err))
		}
		res, _ := d.Dispatch(ctx, QueueBatch{Records: msgs})

		out := make([]queue.RecordResult, 0, len(msgs))
		if res.Batch == nil {
			return out
		}
		for _, r := range res.Batch.Records {
			out = append(out, queue.RecordResult{MessageID: r.MessageID, Err: r.Err})
		}
		return out
	}
}

// NewQueueConsumer wires a poller over q that feeds the dispatcher.
func NewQueueConsumer(q queue.Queue, cfg queue.PollerConfig, d *Dispatcher, metrics awspkg.Recorder, base *zap.Logger) *queue.Poller {
	return queue.NewPoller(q, cfg, QueueHandler(d, metrics, base), base.Named("order-queue"))
}

// BusEventHandler turns bus envelopes read from Kafka into BusEvent
// invocations.
func BusEventHandler(d *Dispatcher, base *zap.Logger) kafka.EventHandler {
	return func(ctx context.Context, ev *eventbus.Event) error {
		ctx = logger.WithContext(ctx, base.With(zap.String("event_id", ev.ID)))
		_, err := d.Dispatch(ctx, BusEvent{
			Source:     ev.Source,
			DetailType: ev.DetailType,
			Detail:     ev.Detail,
		})
		return err
	}
}
