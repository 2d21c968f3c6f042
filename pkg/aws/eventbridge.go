package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/yashrajoria/swn-shop/pkg/eventbus"
)

// EventBridgeAPI is the subset of *eventbridge.Client used for publishing.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher publishes entries onto a custom event bus.
type EventBridgePublisher struct {
	client  EventBridgeAPI
	busName string
}

var _ eventbus.Publisher = (*EventBridgePublisher)(nil)

func NewEventBridgePublisher(cfg sdkaws.Config, busName string) *EventBridgePublisher {
	return NewEventBridgePublisherWithClient(eventbridge.NewFromConfig(cfg), busName)
}

func NewEventBridgePublisherWithClient(client EventBridgeAPI, busName string) *EventBridgePublisher {
	return &EventBridgePublisher{client: client, busName: busName}
}

func (p *EventBridgePublisher) PutEvent(ctx context.Context, entry eventbus.Entry) (eventbus.PutResult, error) {
	bus := entry.EventBusName
	if bus == "" {
		bus = p.busName
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			Source:       sdkaws.String(entry.Source),
			DetailType:   sdkaws.String(entry.DetailType),
			EventBusName: sdkaws.String(bus),
			Detail:       sdkaws.String(string(entry.Detail)),
		}},
	})
	if err != nil {
		return eventbus.PutResult{}, fmt.Errorf("eventbridge PutEvents failed: %w", err)
	}
	if out.FailedEntryCount > 0 || len(out.Entries) == 0 {
		code, msg := "", ""
		if len(out.Entries) > 0 {
			code = sdkaws.ToString(out.Entries[0].ErrorCode)
			msg = sdkaws.ToString(out.Entries[0].ErrorMessage)
		}
		return eventbus.PutResult{}, fmt.Errorf("eventbridge rejected entry on bus %s: %s %s", bus, code, msg)
	}
	return eventbus.PutResult{EventID: sdkaws.ToString(out.Entries[0].EventId)}, nil
}
