package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	"github.com/yashrajoria/swn-shop/pkg/eventbus"
)

// SNSAPI is the subset of *sns.Client used for publishing.
type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes the bus envelope as an SNS message. Subscribed
// queues receive it wrapped in an SNS notification, which the order consumer
// unwraps.
type SNSPublisher struct {
	client   SNSAPI
	topicArn string
	region   string
}

var _ eventbus.Publisher = (*SNSPublisher)(nil)

func NewSNSPublisher(cfg sdkaws.Config, topicArn string) *SNSPublisher {
	p := NewSNSPublisherWithClient(sns.NewFromConfig(cfg), topicArn)
	p.region = cfg.Region
	return p
}

func NewSNSPublisherWithClient(client SNSAPI, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) PutEvent(ctx context.Context, entry eventbus.Entry) (eventbus.PutResult, error) {
	if p.topicArn == "" {
		return eventbus.PutResult{}, fmt.Errorf("empty topicArn")
	}

	envelope := eventbus.Event{
		Version:    "0",
		ID:         uuid.NewString(),
		DetailType: entry.DetailType,
		Source:     entry.Source,
		Time:       time.Now().UTC(),
		Region:     p.region,
		Resources:  []string{},
		Detail:     entry.Detail,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return eventbus.PutResult{}, fmt.Errorf("encode sns envelope: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: sdkaws.String(p.topicArn),
		Message:  sdkaws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"detail-type": {DataType: sdkaws.String("String"), StringValue: sdkaws.String(entry.DetailType)},
			"source":      {DataType: sdkaws.String("String"), StringValue: sdkaws.String(entry.Source)},
		},
	})
	if err != nil {
		return eventbus.PutResult{}, fmt.Errorf("sns publish failed for topic %s: %w", p.topicArn, err)
	}
	return eventbus.PutResult{EventID: envelope.ID}, nil
}
