package aws

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/yashrajoria/swn-shop/pkg/queue"
)

// sqsMaxBatch is the SQS limit for ReceiveMessage and SendMessageBatch.
const sqsMaxBatch = 10

// SQSAPI is the subset of *sqs.Client the queue adapter calls.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	SendMessageBatch(ctx context.Context, in *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue implements queue.Queue on an SQS queue URL.
type SQSQueue struct {
	client   SQSAPI
	queueURL string
	// WaitTime enables long polling on Receive.
	WaitTime time.Duration
}

var _ queue.Queue = (*SQSQueue)(nil)

func NewSQSQueue(cfg sdkaws.Config, queueURL string) *SQSQueue {
	return NewSQSQueueWithClient(sqs.NewFromConfig(cfg), queueURL)
}

func NewSQSQueueWithClient(client SQSAPI, queueURL string) *SQSQueue {
	return &SQSQueue{client: client, queueURL: queueURL, WaitTime: 20 * time.Second}
}

func (q *SQSQueue) Send(ctx context.Context, body string) (string, error) {
	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(q.queueURL),
		MessageBody: sdkaws.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return sdkaws.ToString(out.MessageId), nil
}

// SendBatch sends bodies in chunks of ten. Partial failures are reported as
// an error naming the failed entry ids.
func (q *SQSQueue) SendBatch(ctx context.Context, bodies []string) error {
	for start := 0; start < len(bodies); start += sqsMaxBatch {
		end := min(start+sqsMaxBatch, len(bodies))

		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for i, body := range bodies[start:end] {
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:          sdkaws.String("msg-" + strconv.Itoa(start+i)),
				MessageBody: sdkaws.String(body),
			})
		}

		out, err := q.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: sdkaws.String(q.queueURL),
			Entries:  entries,
		})
		if err != nil {
			return fmt.Errorf("failed to send batch: %w", err)
		}
		if len(out.Failed) > 0 {
			ids := make([]string, 0, len(out.Failed))
			for _, f := range out.Failed {
				ids = append(ids, sdkaws.ToString(f.Id))
			}
			return fmt.Errorf("failed to send %d batch entries: %v", len(ids), ids)
		}
	}
	return nil
}

func (q *SQSQueue) Receive(ctx context.Context, max int, visibility time.Duration) ([]queue.Message, error) {
	if max <= 0 {
		max = 1
	}
	if visibility <= 0 {
		visibility = queue.DefaultVisibilityTimeout
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            sdkaws.String(q.queueURL),
		MaxNumberOfMessages: int32(min(max, sqsMaxBatch)),
		VisibilityTimeout:   int32(visibility / time.Second),
		WaitTimeSeconds:     int32(q.WaitTime / time.Second),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	msgs := make([]queue.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		if m.Body == nil {
			continue
		}
		count, _ := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
		msgs = append(msgs, queue.Message{
			ID:            sdkaws.ToString(m.MessageId),
			Body:          *m.Body,
			ReceiptHandle: sdkaws.ToString(m.ReceiptHandle),
			ReceiveCount:  count,
		})
	}
	return msgs, nil
}

func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      sdkaws.String(q.queueURL),
		ReceiptHandle: sdkaws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// GetQueueURL resolves a queue name to its URL.
func GetQueueURL(ctx context.Context, cfg sdkaws.Config, queueName string) (string, error) {
	client := sqs.NewFromConfig(cfg)
	result, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: &queueName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get queue URL: %w", err)
	}
	return sdkaws.ToString(result.QueueUrl), nil
}
