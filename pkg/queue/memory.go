package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	id           string
	body         string
	receipt      string
	visibleAt    time.Time
	receiveCount int
}

// MemoryQueue is an in-process Queue with visibility-timeout redelivery.
// MaxReceiveCount of zero means messages are redelivered forever.
type MemoryQueue struct {
	mu              sync.Mutex
	entries         []*memoryEntry
	now             func() time.Time
	MaxReceiveCount int
	dropped         []Message
}

// MemoryOption configures a MemoryQueue.
type MemoryOption func(*MemoryQueue)

// WithClock replaces time.Now, mostly for tests that step through the
// visibility window.
func WithClock(now func() time.Time) MemoryOption {
	return func(q *MemoryQueue) { q.now = now }
}

// WithMaxReceiveCount drops a message once it has been received n times.
func WithMaxReceiveCount(n int) MemoryOption {
	return func(q *MemoryQueue) { q.MaxReceiveCount = n }
}

func NewMemoryQueue(opts ...MemoryOption) *MemoryQueue {
	q := &MemoryQueue{now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *MemoryQueue) Send(_ context.Context, body string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := uuid.NewString()
	q.entries = append(q.entries, &memoryEntry{id: id, body: body, visibleAt: q.now()})
	return id, nil
}

func (q *MemoryQueue) Receive(ctx context.Context, max int, visibility time.Duration) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 1
	}
	if visibility <= 0 {
		visibility = DefaultVisibilityTimeout
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var out []Message
	kept := q.entries[:0]
	for _, e := range q.entries {
		if len(out) < max && !e.visibleAt.After(now) {
			if q.MaxReceiveCount > 0 && e.receiveCount >= q.MaxReceiveCount {
				q.dropped = append(q.dropped, Message{ID: e.id, Body: e.body, ReceiveCount: e.receiveCount})
				continue
			}
			e.receiveCount++
			e.receipt = uuid.NewString()
			e.visibleAt = now.Add(visibility)
			out = append(out, Message{
				ID:            e.id,
				Body:          e.body,
				ReceiptHandle: e.receipt,
				ReceiveCount:  e.receiveCount,
			})
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return out, nil
}

// Delete acknowledges a delivery. Only the latest receipt of a message is valid.
func (q *MemoryQueue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.receipt != "" && e.receipt == receiptHandle {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return ErrUnknownReceipt
}

// Len reports messages still held, visible or in flight.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Dropped returns messages discarded after MaxReceiveCount deliveries.
func (q *MemoryQueue) Dropped() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.dropped...)
}
