package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/pkg/queue"
)

// Target receives events matched by a Rule.
type Target interface {
	Deliver(ctx context.Context, ev Event) error
}

// Rule forwards events whose source and detail-type both match. An empty
// list matches anything.
type Rule struct {
	Name        string
	Sources     []string
	DetailTypes []string
	Targets     []Target
}

func (r Rule) Matches(source, detailType string) bool {
	if len(r.Sources) > 0 && !slices.Contains(r.Sources, source) {
		return false
	}
	if len(r.DetailTypes) > 0 && !slices.Contains(r.DetailTypes, detailType) {
		return false
	}
	return true
}

// Router is an in-process bus. Only principals granted through Grant may
// publish; payloads are not inspected.
type Router struct {
	mu         sync.RWMutex
	name       string
	account    string
	region     string
	rules      []Rule
	publishers map[string]struct{}
	now        func() time.Time
	logger     *zap.Logger
}

func NewRouter(name string, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		name:       name,
		account:    "000000000000",
		region:     "local",
		publishers: make(map[string]struct{}),
		now:        time.Now,
		logger:     logger,
	}
}

func (r *Router) AddRule(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
}

// Grant authorizes a principal to publish and returns a Publisher bound to it.
func (r *Router) Grant(principal string) Publisher {
	r.mu.Lock()
	r.publishers[principal] = struct{}{}
	r.mu.Unlock()
	return &grantedPublisher{router: r, principal: principal}
}

// Revoke withdraws a grant. Publishers bound to the principal start failing
// with ErrUnauthorized.
func (r *Router) Revoke(principal string) {
	r.mu.Lock()
	delete(r.publishers, principal)
	r.mu.Unlock()
}

type grantedPublisher struct {
	router    *Router
	principal string
}

func (g *grantedPublisher) PutEvent(ctx context.Context, entry Entry) (PutResult, error) {
	return g.router.publish(ctx, g.principal, entry)
}

func (r *Router) publish(ctx context.Context, principal string, entry Entry) (PutResult, error) {
	r.mu.RLock()
	_, ok := r.publishers[principal]
	rules := slices.Clone(r.rules)
	r.mu.RUnlock()

	if !ok {
		return PutResult{}, ErrUnauthorized
	}
	if err := entry.validate(); err != nil {
		return PutResult{}, err
	}
	if entry.EventBusName != "" && entry.EventBusName != r.name {
		return PutResult{}, fmt.Errorf("eventbus: unknown bus %q", entry.EventBusName)
	}

	ev := Event{
		Version:    "0",
		ID:         uuid.NewString(),
		DetailType: entry.DetailType,
		Source:     entry.Source,
		Account:    r.account,
		Time:       r.now().UTC(),
		Region:     r.region,
		Resources:  []string{},
		Detail:     entry.Detail,
	}

	// Once accepted, each target is delivered to independently. A failed
	// target is logged and does not fail the publish.
	for _, rule := range rules {
		if !rule.Matches(ev.Source, ev.DetailType) {
			continue
		}
		for i, t := range rule.Targets {
			if err := t.Deliver(ctx, ev); err != nil {
				r.logger.Error("event delivery failed",
					zap.String("rule", rule.Name),
					zap.Int("target", i),
					zap.String("event_id", ev.ID),
					zap.Error(err),
				)
			}
		}
		r.logger.Debug("event routed",
			zap.String("rule", rule.Name),
			zap.String("event_id", ev.ID),
			zap.String("detail_type", ev.DetailType),
		)
	}
	return PutResult{EventID: ev.ID}, nil
}

// QueueTarget sends the whole envelope as a queue message body.
type QueueTarget struct {
	Queue queue.Queue
}

func (t QueueTarget) Deliver(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := t.Queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("queue send: %w", err)
	}
	return nil
}
