// Package eventbus holds the publish/route capability between the basket and
// order services: the event envelope, the publisher interface its adapters
// implement, and an in-memory router that applies rules the same way the
// managed bus does.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnauthorized = errors.New("eventbus: publisher not authorized")
	ErrInvalidEntry = errors.New("eventbus: entry missing source or detail-type")
)

// Entry is what a producer hands to the bus.
type Entry struct {
	Source       string
	DetailType   string
	EventBusName string
	Detail       json.RawMessage
}

func (e Entry) validate() error {
	if e.Source == "" || e.DetailType == "" {
		return ErrInvalidEntry
	}
	return nil
}

// PutResult acknowledges a publish.
type PutResult struct {
	EventID string `json:"eventId"`
}

// Publisher is implemented by the EventBridge, SNS and Kafka adapters and by
// Router.
type Publisher interface {
	PutEvent(ctx context.Context, entry Entry) (PutResult, error)
}

// Event is the envelope delivered to targets. Queue messages carry it as
// their JSON body, with the producer payload under "detail".
type Event struct {
	Version    string          `json:"version"`
	ID         string          `json:"id"`
	DetailType string          `json:"detail-type"`
	Source     string          `json:"source"`
	Account    string          `json:"account"`
	Time       time.Time       `json:"time"`
	Region     string          `json:"region"`
	Resources  []string        `json:"resources"`
	Detail     json.RawMessage `json:"detail"`
}

// ParseEvent decodes a queue body into the envelope.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if len(ev.Detail) == 0 || string(ev.Detail) == "null" {
		return nil, fmt.Errorf("event envelope has no detail")
	}
	return &ev, nil
}

// snsNotification is the wrapper SNS puts around a message delivered to SQS.
type snsNotification struct {
	Type     string `json:"Type"`
	Message  string `json:"Message"`
	TopicArn string `json:"TopicArn"`
}

// UnwrapNotification returns the inner message when body is an SNS
// notification and body unchanged otherwise.
func UnwrapNotification(body []byte) []byte {
	var n snsNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return body
	}
	if n.Type == "Notification" && n.Message != "" {
		return []byte(n.Message)
	}
	return body
}
