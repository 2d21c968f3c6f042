package queue

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RecordResult is the outcome of one message within a batch.
type RecordResult struct {
	MessageID string
	Err       error
}

// BatchHandler processes a received batch and reports per-record outcomes.
type BatchHandler func(ctx context.Context, msgs []Message) []RecordResult

// PollerConfig mirrors the event source mapping of the order consumer.
type PollerConfig struct {
	BatchSize         int
	VisibilityTimeout time.Duration
	// IdleBackoff is slept after an empty receive or a receive error.
	IdleBackoff time.Duration
}

// Poller drains a Queue in batches. It never deletes messages: anything it
// hands to the handler is redelivered once the visibility window lapses.
type Poller struct {
	queue   Queue
	cfg     PollerConfig
	logger  *zap.Logger
	handler BatchHandler
}

func NewPoller(q Queue, cfg PollerConfig, handler BatchHandler, logger *zap.Logger) *Poller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = DefaultVisibilityTimeout
	}
	if cfg.IdleBackoff <= 0 {
		cfg.IdleBackoff = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{queue: q, cfg: cfg, logger: logger, handler: handler}
}

// Start polls until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("queue polling started",
		zap.Int("batch_size", p.cfg.BatchSize),
		zap.Duration("visibility_timeout", p.cfg.VisibilityTimeout),
	)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("queue polling stopped")
			return ctx.Err()
		default:
		}

		n, err := p.PollOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("queue poll failed", zap.Error(err))
		}
		if err != nil || n == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.cfg.IdleBackoff):
			}
		}
	}
}

// PollOnce receives one batch and runs the handler on it. It returns the
// number of messages received.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	msgs, err := p.queue.Receive(ctx, p.cfg.BatchSize, p.cfg.VisibilityTimeout)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	results := p.handler(ctx, msgs)
	for _, r := range results {
		if r.Err != nil {
			p.logger.Warn("queue record failed; left for redelivery",
				zap.String("message_id", r.MessageID),
				zap.Error(r.Err),
			)
		}
	}
	return len(msgs), nil
}
