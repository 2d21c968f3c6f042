// Package queue describes the durable, at-least-once message buffer the
// order service drains. Implementations: MemoryQueue here and the SQS adapter
// in pkg/aws.
package queue

import (
	"context"
	"errors"
	"time"
)

// DefaultVisibilityTimeout matches the queue the infrastructure stack creates.
const DefaultVisibilityTimeout = 30 * time.Second

var ErrUnknownReceipt = errors.New("queue: unknown or expired receipt handle")

// Message is one delivery of a queued body. The same message delivered twice
// carries the same ID and a new ReceiptHandle.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
	ReceiveCount  int
}

// Queue is the capability the consumer depends on.
type Queue interface {
	Send(ctx context.Context, body string) (string, error)
	// Receive hides every returned message from other consumers for the
	// visibility window. Messages not deleted in that window are delivered again.
	Receive(ctx context.Context, max int, visibility time.Duration) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}
