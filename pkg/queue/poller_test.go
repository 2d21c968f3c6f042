package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/pkg/queue"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoller_PollOnceDoesNotAcknowledge(t *testing.T) {
	clock := newClock()
	q := queue.NewMemoryQueue(queue.WithClock(clock.Now))
	ctx := context.Background()
	_, _ = q.Send(ctx, "one")

	var seen []string
	p := queue.NewPoller(q, queue.PollerConfig{BatchSize: 1, VisibilityTimeout: 30 * time.Second},
		func(_ context.Context, msgs []queue.Message) []queue.RecordResult {
			out := make([]queue.RecordResult, 0, len(msgs))
			for _, m := range msgs {
				seen = append(seen, m.Body)
				out = append(out, queue.RecordResult{MessageID: m.ID})
			}
			return out
		}, zap.NewNop())

	n, err := p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, q.Len(), "processed message stays on the queue")

	clock.Advance(30 * time.Second)
	n, err = p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"one", "one"}, seen)
}

func TestPoller_FailedRecordsDoNotStopBatch(t *testing.T) {
	q := queue.NewMemoryQueue()
	ctx := context.Background()
	_, _ = q.Send(ctx, "bad")
	_, _ = q.Send(ctx, "good")

	var calls int
	p := queue.NewPoller(q, queue.PollerConfig{BatchSize: 10},
		func(_ context.Context, msgs []queue.Message) []queue.RecordResult {
			calls++
			out := make([]queue.RecordResult, 0, len(msgs))
			for _, m := range msgs {
				r := queue.RecordResult{MessageID: m.ID}
				if m.Body == "bad" {
					r.Err = errors.New("invalid payload")
				}
				out = append(out, r)
			}
			return out
		}, nil)

	n, err := p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, calls)
}

func TestPoller_StartStopsOnCancel(t *testing.T) {
	q := queue.NewMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var got []string
	p := queue.NewPoller(q, queue.PollerConfig{IdleBackoff: 5 * time.Millisecond},
		func(_ context.Context, msgs []queue.Message) []queue.RecordResult {
			mu.Lock()
			defer mu.Unlock()
			for _, m := range msgs {
				got = append(got, m.Body)
			}
			return nil
		}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	_, _ = q.Send(context.Background(), "hello")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
