// Package kafka carries bus events over Kafka topics for deployments that
// run without EventBridge.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/pkg/eventbus"
)

var ErrDisabled = errors.New("kafka disabled")

type Client struct {
	Brokers []string
}

func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

func (c *Client) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func PublishJSON(ctx context.Context, writer MessageWriter, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

// Publisher writes bus envelopes to a topic keyed by event source.
type Publisher struct {
	writer MessageWriter
}

var _ eventbus.Publisher = (*Publisher)(nil)

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

func (p *Publisher) PutEvent(ctx context.Context, entry eventbus.Entry) (eventbus.PutResult, error) {
	if p.writer == nil {
		return eventbus.PutResult{}, ErrDisabled
	}
	ev := eventbus.Event{
		Version:    "0",
		ID:         uuid.NewString(),
		DetailType: entry.DetailType,
		Source:     entry.Source,
		Time:       time.Now().UTC(),
		Resources:  []string{},
		Detail:     entry.Detail,
	}
	if err := PublishJSON(ctx, p.writer, entry.Source, ev); err != nil {
		return eventbus.PutResult{}, fmt.Errorf("kafka publish failed: %w", err)
	}
	return eventbus.PutResult{EventID: ev.ID}, nil
}

// EventHandler receives one decoded bus event.
type EventHandler func(ctx context.Context, ev *eventbus.Event) error

// Consume reads envelopes until ctx is done. Undecodable messages and
// handler failures are logged and skipped; the group offset still advances.
func Consume(ctx context.Context, reader MessageReader, handler EventHandler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kafka read failed: %w", err)
		}

		ev, err := eventbus.ParseEvent(msg.Value)
		if err != nil {
			logger.Warn("kafka message skipped",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}
		if err := handler(ctx, ev); err != nil {
			logger.Error("kafka event handler failed",
				zap.String("event_id", ev.ID),
				zap.String("detail_type", ev.DetailType),
				zap.Error(err),
			)
		}
	}
}
