package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiimaxx/s3-log-analyzer/internal/analyzer"
)

type fakeCloudWatchClient struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatchClient) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func sampleStats() analyzer.Statistics {
	return analyzer.Statistics{
		TotalLines:        1000,
		CriticalCount:     2,
		ErrorCount:        73,
		AuthFailureCount:  4,
		RateLimitCount:    1,
		NotFoundPaths:     map[string]struct{}{"/admin": {}, "/backup": {}},
		SQLInjectionCount: 0,
		XSSCount:          1,
	}
}

func TestPublish_SendsAllCountersInOneBatch(t *testing.T) {
	client := &fakeCloudWatchClient{}
	publisher := NewPublisher(client, "LogAnalyzer", "prod", false)

	err := publisher.Publish(context.Background(), sampleStats(), time.Now())
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "LogAnalyzer", aws.ToString(input.Namespace))
	assert.Len(t, input.MetricData, 8)

	byName := make(map[string]float64, len(input.MetricData))
	for _, datum := range input.MetricData {
		byName[aws.ToString(datum.MetricName)] = aws.ToFloat64(datum.Value)

		require.Len(t, datum.Dimensions, 1)
		assert.Equal(t, metricDimensionEnvironment, aws.ToString(datum.Dimensions[0].Name))
		assert.Equal(t, "prod", aws.ToString(datum.Dimensions[0].Value))
	}

	assert.Equal(t, 1000.0, byName[metricNameTotalLines])
	assert.Equal(t, 73.0, byName[metricNameErrorCount])
	assert.Equal(t, 2.0, byName[metricNameUnique404Paths])
	assert.Equal(t, 1.0, byName[metricNameXSS])
}

func TestPublish_DryRunSkipsCall(t *testing.T) {
	client := &fakeCloudWatchClient{}
	publisher := NewPublisher(client, "LogAnalyzer", "prod", true)

	err := publisher.Publish(context.Background(), sampleStats(), time.Now())
	require.NoError(t, err)

	assert.Empty(t, client.inputs)
}

func TestPublish_PropagatesClientError(t *testing.T) {
	client := &fakeCloudWatchClient{err: errors.New("rate exceeded")}
	publisher := NewPublisher(client, "LogAnalyzer", "prod", false)

	err := publisher.Publish(context.Background(), sampleStats(), time.Now())
	assert.ErrorContains(t, err, "rate exceeded")
}

func TestChunkMetricData_SplitsIntoExpectedBatchSizes(t *testing.T) {
	data := make([]types.MetricDatum, 7)
	for i := range data {
		name := aws.String(fmt.Sprintf("metric-%d", i))
		data[i] = types.MetricDatum{MetricName: name}
	}

	size := 3
	publisher := &Publisher{maxBatchSize: size}

	batches, err := publisher.chunkMetricData(data)
	require.NoError(t, err)

	wantBatchCounts := []int{3, 3, 1}
	assert.Len(t, batches, len(wantBatchCounts))

	for i, want := range wantBatchCounts {
		assert.Len(t, batches[i], want)

		for j, datum := range batches[i] {
			assert.Equal(t, data[i*size+j].MetricName, datum.MetricName)
		}
	}
}

func TestChunkMetricData_HandlesEmptyInput(t *testing.T) {
	publisher := &Publisher{maxBatchSize: 5}
	batches, err := publisher.chunkMetricData([]types.MetricDatum{})
	assert.NoError(t, err)
	assert.Empty(t, batches)
}

func TestChunkMetricData_InvalidSize(t *testing.T) {
	publisher := &Publisher{maxBatchSize: 0}
	_, err := publisher.chunkMetricData(make([]types.MetricDatum, 1))
	assert.Error(t, err)
}
