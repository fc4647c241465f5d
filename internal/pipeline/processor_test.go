package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiimaxx/s3-log-analyzer/internal/notify"
	"github.com/shiimaxx/s3-log-analyzer/pkg/config"
)

type fakeS3Client struct {
	objects map[string][]byte
	err     error
}

func (f *fakeS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	body, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

type fakeSNSClient struct {
	inputs []*sns.PublishInput
}

func (f *fakeSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:           "test",
		LogLevel:              "error",
		ErrorRateThreshold:    0.05,
		AuthFailureThreshold:  10,
		APIRateLimitThreshold: 5,
		Unusual404Threshold:   20,
		SQLInjectionThreshold: 1,
		XSSThreshold:          1,
		MaxStoredDetections:   10,
		TopIPCount:            5,
	}
}

func s3Event(bucket, key string) events.S3Event {
	return events.S3Event{Records: []events.S3EventRecord{{
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key},
		},
	}}}
}

func newTestProcessor(objects map[string][]byte, snsClient *fakeSNSClient) *Processor {
	cfg := testConfig()
	notifier := notify.New(snsClient, "arn:aws:sns:us-east-1:123456789012:alerts", false)
	p := New(&fakeS3Client{objects: objects}, notifier, nil, cfg)
	p.now = func() time.Time { return time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC) }
	return p
}

func TestHandleEvent_CleanFileProducesNoAlerts(t *testing.T) {
	snsClient := &fakeSNSClient{}
	content := strings.Repeat("request completed ok\n", 100)
	p := newTestProcessor(map[string][]byte{"logs/prod/app.log": []byte(content)}, snsClient)

	results, err := p.HandleEvent(context.Background(), s3Event("logs", "prod/app.log"))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, Result{FileURI: "s3://logs/prod/app.log", AlertCount: 0, Analyzed: true}, results[0])
	assert.Empty(t, snsClient.inputs)
}

func TestHandleEvent_EmptyObject(t *testing.T) {
	snsClient := &fakeSNSClient{}
	p := newTestProcessor(map[string][]byte{"logs/empty.log": nil}, snsClient)

	results, err := p.HandleEvent(context.Background(), s3Event("logs", "empty.log"))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Analyzed)
	assert.Zero(t, results[0].AlertCount)
	assert.Empty(t, snsClient.inputs, "no delivery call for an empty file")
}

func TestHandleEvent_ScanningActivityTriggersNotification(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 21; i++ {
		fmt.Fprintf(&sb, "203.0.113.9 - \"GET /probe_%d HTTP/1.1\" 404 153\n", i)
	}

	snsClient := &fakeSNSClient{}
	p := newTestProcessor(map[string][]byte{"logs/scan.log": []byte(sb.String())}, snsClient)

	results, err := p.HandleEvent(context.Background(), s3Event("logs", "scan.log"))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Positive(t, results[0].AlertCount)

	require.Len(t, snsClient.inputs, 1)
	message := aws.ToString(snsClient.inputs[0].Message)
	assert.Contains(t, message, "21 unique 404 paths")
	assert.Contains(t, message, "File: s3://logs/scan.log")
	assert.Contains(t, message, "Environment: test")
	assert.Contains(t, message, "203.0.113.9: 21")
}

func TestHandleEvent_GzipObject(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("ERROR: disk full\nOK\nOK\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	snsClient := &fakeSNSClient{}
	p := newTestProcessor(map[string][]byte{"logs/app.log.gz": buf.Bytes()}, snsClient)

	results, err := p.HandleEvent(context.Background(), s3Event("logs", "app.log.gz"))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Analyzed)
	assert.Positive(t, results[0].AlertCount)

	require.Len(t, snsClient.inputs, 1)
	message := aws.ToString(snsClient.inputs[0].Message)
	assert.Contains(t, message, "33.33%")
	assert.Contains(t, message, "(1/3)")
}

func TestHandleEvent_URLEncodedKey(t *testing.T) {
	snsClient := &fakeSNSClient{}
	p := newTestProcessor(map[string][]byte{"logs/prod env/app.log": []byte("ok\n")}, snsClient)

	results, err := p.HandleEvent(context.Background(), s3Event("logs", "prod+env/app.log"))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "s3://logs/prod env/app.log", results[0].FileURI)
}

func TestHandleEvent_MissingBucketName(t *testing.T) {
	p := newTestProcessor(nil, &fakeSNSClient{})

	_, err := p.HandleEvent(context.Background(), s3Event("", "key"))
	assert.ErrorContains(t, err, "missing bucket name")
}

func TestHandleEvent_FetchFailureIsHard(t *testing.T) {
	cfg := testConfig()
	notifier := notify.New(&fakeSNSClient{}, "", false)
	p := New(&fakeS3Client{err: errors.New("access denied")}, notifier, nil, cfg)

	_, err := p.HandleEvent(context.Background(), s3Event("logs", "app.log"))
	assert.ErrorContains(t, err, "access denied")
}

func TestHandleEvent_InvalidTextIsHard(t *testing.T) {
	p := newTestProcessor(map[string][]byte{"logs/binary.log": {0xff, 0xfe, 0xfd}}, &fakeSNSClient{})

	_, err := p.HandleEvent(context.Background(), s3Event("logs", "binary.log"))
	assert.ErrorContains(t, err, "input error")
}

func TestHandleEvent_DeliveryFailureIsSoft(t *testing.T) {
	failing := &failingSNSClient{}
	cfg := testConfig()
	notifier := notify.New(failing, "arn:aws:sns:us-east-1:123456789012:alerts", false)
	p := New(&fakeS3Client{objects: map[string][]byte{"logs/app.log": []byte("FATAL crash\n")}}, notifier, nil, cfg)

	results, err := p.HandleEvent(context.Background(), s3Event("logs", "app.log"))
	require.NoError(t, err, "delivery failure must not fail the invocation")

	require.Len(t, results, 1)
	assert.True(t, results[0].Analyzed)
	assert.Positive(t, results[0].AlertCount)
	assert.Equal(t, 1, failing.calls)
}

type failingSNSClient struct {
	calls int
}

func (f *failingSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.calls++
	return nil, errors.New("topic unavailable")
}
