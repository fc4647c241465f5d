package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNSClient struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSend_PublishesToTopic(t *testing.T) {
	client := &fakeSNSClient{}
	notifier := New(client, "arn:aws:sns:us-east-1:123456789012:log-alerts", false)

	delivered, err := notifier.Send(context.Background(), "subject", "message body")
	require.NoError(t, err)

	assert.True(t, delivered)
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:log-alerts", aws.ToString(client.inputs[0].TopicArn))
	assert.Equal(t, "subject", aws.ToString(client.inputs[0].Subject))
	assert.Equal(t, "message body", aws.ToString(client.inputs[0].Message))
}

func TestSend_NoTopicConfigured(t *testing.T) {
	client := &fakeSNSClient{}
	notifier := New(client, "", false)

	delivered, err := notifier.Send(context.Background(), "subject", "message body")
	require.NoError(t, err)

	assert.False(t, delivered)
	assert.Empty(t, client.inputs)
}

func TestSend_DryRunSkipsPublish(t *testing.T) {
	client := &fakeSNSClient{}
	notifier := New(client, "arn:aws:sns:us-east-1:123456789012:log-alerts", true)

	delivered, err := notifier.Send(context.Background(), "subject", "message body")
	require.NoError(t, err)

	assert.False(t, delivered)
	assert.Empty(t, client.inputs)
}

func TestSend_PublishFailureIsDeliveryError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("throttled")}
	notifier := New(client, "arn:aws:sns:us-east-1:123456789012:log-alerts", false)

	delivered, err := notifier.Send(context.Background(), "subject", "message body")

	assert.False(t, delivered)
	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.ErrorContains(t, err, "throttled")
}

func TestSend_TruncatesLongSubject(t *testing.T) {
	client := &fakeSNSClient{}
	notifier := New(client, "arn:aws:sns:us-east-1:123456789012:log-alerts", false)

	_, err := notifier.Send(context.Background(), strings.Repeat("s", 150), "body")
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	assert.Len(t, aws.ToString(client.inputs[0].Subject), maxSubjectLen)
}
