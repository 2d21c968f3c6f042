package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/pkg/contracts"
)

type DynamoAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type SQSAPI interface {
	CreateQueue(ctx context.Context, in *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	GetQueueAttributes(ctx context.Context, in *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	SetQueueAttributes(ctx context.Context, in *sqs.SetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error)
}

type EventBridgeAPI interface {
	CreateEventBus(ctx context.Context, in *eventbridge.CreateEventBusInput, optFns ...func(*eventbridge.Options)) (*eventbridge.CreateEventBusOutput, error)
	PutRule(ctx context.Context, in *eventbridge.PutRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargets(ctx context.Context, in *eventbridge.PutTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
}

// Table describes one on-demand table. SortKey is optional.
type Table struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// Stack is the set of resources the shop needs.
type Stack struct {
	Tables            []Table
	QueueName         string
	VisibilitySeconds int
	BusName           string
	RuleName          string
	Source            string
	DetailType        string
}

func DefaultStack() Stack {
	return Stack{
		Tables: []Table{
			{Name: "products", PartitionKey: "id"},
			{Name: "baskets", PartitionKey: "userName"},
			{Name: "orders", PartitionKey: "userName", SortKey: "createdAt"},
		},
		QueueName:         "Order-Queue",
		VisibilitySeconds: 30,
		BusName:           contracts.DefaultEventBusName,
		RuleName:          "CheckoutBasketRule",
		Source:            contracts.DefaultEventSource,
		DetailType:        contracts.DefaultEventDetailType,
	}
}

// Result records what was created. Existing resources are reported too.
type Result struct {
	QueueURL string
	QueueARN string
	RuleARN  string
}

type Provisioner struct {
	ddb    DynamoAPI
	sqs    SQSAPI
	events EventBridgeAPI
	logger *zap.Logger
}

func NewProvisioner(ddb DynamoAPI, q SQSAPI, events EventBridgeAPI, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{ddb: ddb, sqs: q, events: events, logger: logger}
}

// Apply creates every resource in s. Running it twice is safe.
func (p *Provisioner) Apply(ctx context.Context, s Stack) (*Result, error) {
	for _, t := range s.Tables {
		if err := p.createTable(ctx, t); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	var err error
	if res.QueueURL, res.QueueARN, err = p.createQueue(ctx, s.QueueName, s.VisibilitySeconds); err != nil {
		return nil, err
	}
	if err := p.createBus(ctx, s.BusName); err != nil {
		return nil, err
	}
	if res.RuleARN, err = p.putRule(ctx, s); err != nil {
		return nil, err
	}
	if err := p.putQueueTarget(ctx, s, res.QueueARN); err != nil {
		return nil, err
	}
	if err := p.allowRuleToSend(ctx, res.QueueURL, res.QueueARN, res.RuleARN); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Provisioner) createTable(ctx context.Context, t Table) error {
	attrs := []ddbtypes.AttributeDefinition{{AttributeName: aws.String(t.PartitionKey), AttributeType: ddbtypes.ScalarAttributeTypeS}}
	keys := []ddbtypes.KeySchemaElement{{AttributeName: aws.String(t.PartitionKey), KeyType: ddbtypes.KeyTypeHash}}
	if t.SortKey != "" {
		attrs = append(attrs, ddbtypes.AttributeDefinition{AttributeName: aws.String(t.SortKey), AttributeType: ddbtypes.ScalarAttributeTypeS})
		keys = append(keys, ddbtypes.KeySchemaElement{AttributeName: aws.String(t.SortKey), KeyType: ddbtypes.KeyTypeRange})
	}

	_, err := p.ddb.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(t.Name),
		AttributeDefinitions: attrs,
		KeySchema:            keys,
		BillingMode:          ddbtypes.BillingModePayPerRequest,
	})
	var inUse *ddbtypes.ResourceInUseException
	switch {
	case errors.As(err, &inUse):
		p.logger.Info("table exists", zap.String("table", t.Name))
	case err != nil:
		return fmt.Errorf("create table %s: %w", t.Name, err)
	default:
		p.logger.Info("table created", zap.String("table", t.Name))
	}
	return nil
}

func (p *Provisioner) createQueue(ctx context.Context, name string, visibility int) (string, string, error) {
	out, err := p.sqs.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(name),
		Attributes: map[string]string{
			string(sqstypes.QueueAttributeNameVisibilityTimeout): strconv.Itoa(visibility),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("create queue %s: %w", name, err)
	}
	url := aws.ToString(out.QueueUrl)

	attrs, err := p.sqs.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       out.QueueUrl,
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return "", "", fmt.Errorf("get queue arn: %w", err)
	}
	p.logger.Info("queue ready", zap.String("queue_url", url))
	return url, attrs.Attributes[string(sqstypes.QueueAttributeNameQueueArn)], nil
}

func (p *Provisioner) createBus(ctx context.Context, name string) error {
	_, err := p.events.CreateEventBus(ctx, &eventbridge.CreateEventBusInput{Name: aws.String(name)})
	var exists *ebtypes.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return fmt.Errorf("create event bus %s: %w", name, err)
	}
	p.logger.Info("event bus ready", zap.String("bus", name))
	return nil
}

// EventPattern renders the rule pattern for source and detail-type.
func EventPattern(source, detailType string) (string, error) {
	b, err := json.Marshal(map[string][]string{
		"source":      {source},
		"detail-type": {detailType},
	})
	return string(b), err
}

func (p *Provisioner) putRule(ctx context.Context, s Stack) (string, error) {
	pattern, err := EventPattern(s.Source, s.DetailType)
	if err != nil {
		return "", err
	}
	out, err := p.events.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:         aws.String(s.RuleName),
		EventBusName: aws.String(s.BusName),
		EventPattern: aws.String(pattern),
		State:        ebtypes.RuleStateEnabled,
		Description:  aws.String("Basket checkout events for the order service"),
	})
	if err != nil {
		return "", fmt.Errorf("put rule %s: %w", s.RuleName, err)
	}
	return aws.ToString(out.RuleArn), nil
}

func (p *Provisioner) putQueueTarget(ctx context.Context, s Stack, queueARN string) error {
	out, err := p.events.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule:         aws.String(s.RuleName),
		EventBusName: aws.String(s.BusName),
		Targets:      []ebtypes.Target{{Id: aws.String("OrderQueue"), Arn: aws.String(queueARN)}},
	})
	if err != nil {
		return fmt.Errorf("put targets: %w", err)
	}
	if out.FailedEntryCount > 0 {
		return fmt.Errorf("put targets: %d failed entries", out.FailedEntryCount)
	}
	return nil
}

// QueuePolicy lets the rule send to the queue.
func QueuePolicy(queueARN, ruleARN string) (string, error) {
	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{{
			"Sid":       "AllowCheckoutRule",
			"Effect":    "Allow",
			"Principal": map[string]string{"Service": "events.amazonaws.com"},
			"Action":    "sqs:SendMessage",
			"Resource":  queueARN,
			"Condition": map[string]any{"ArnEquals": map[string]string{"aws:SourceArn": ruleARN}},
		}},
	}
	b, err := json.Marshal(policy)
	return string(b), err
}

func (p *Provisioner) allowRuleToSend(ctx context.Context, queueURL, queueARN, ruleARN string) error {
	policy, err := QueuePolicy(queueARN, ruleARN)
	if err != nil {
		return err
	}
	_, err = p.sqs.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl:   aws.String(queueURL),
		Attributes: map[string]string{string(sqstypes.QueueAttributeNamePolicy): policy},
	})
	if err != nil {
		return fmt.Errorf("set queue policy: %w", err)
	}
	return nil
}
