package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aws_pkg "github.com/yashrajoria/swn-shop/pkg/aws"
	"github.com/yashrajoria/swn-shop/pkg/eventbus"
)

// Runs only when RUN_LOCALSTACK_INTEGRATION=true and AWS_ENDPOINT points at LocalStack.
func TestSQSQueue_RedeliversUnacknowledged_LocalStack(t *testing.T) {
	if os.Getenv("RUN_LOCALSTACK_INTEGRATION") != "true" {
		t.Skip("skipping localstack integration test; set RUN_LOCALSTACK_INTEGRATION=true to run")
	}
	ctx := context.Background()

	cfg, err := aws_pkg.LoadAWSConfig(ctx)
	require.NoError(t, err)

	name := "swn-it-" + time.Now().Format("150405")
	created, err := sqs.NewFromConfig(cfg).CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: sdkaws.String(name)})
	require.NoError(t, err)

	q := aws_pkg.NewSQSQueue(cfg, sdkaws.ToString(created.QueueUrl))
	q.WaitTime = 2 * time.Second

	body, _ := json.Marshal(eventbus.Event{DetailType: "CheckoutBasket", Detail: json.RawMessage(`{"userName":"swn"}`)})
	_, err = q.Send(ctx, string(body))
	require.NoError(t, err)

	first, err := q.Receive(ctx, 1, time.Second)
	require.NoError(t, err)
	require.Len(t, first, 1)

	time.Sleep(2 * time.Second)

	second, err := q.Receive(ctx, 1, time.Second)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.GreaterOrEqual(t, second[0].ReceiveCount, 2)
}
