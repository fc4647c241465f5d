// Package metrics publishes per-file analysis counters to CloudWatch as
// custom metrics. Publication is optional and never fails the pipeline.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	log "github.com/sirupsen/logrus"

	"github.com/shiimaxx/s3-log-analyzer/internal/analyzer"
)

const defaultMetricBatchSize = 20

const (
	metricNameTotalLines      = "TotalLines"
	metricNameCriticalMatches = "CriticalMatches"
	metricNameErrorCount      = "ErrorCount"
	metricNameAuthFailures    = "AuthFailureCount"
	metricNameRateLimited     = "RateLimitCount"
	metricNameUnique404Paths  = "Unique404Paths"
	metricNameSQLInjection    = "SQLInjectionCount"
	metricNameXSS             = "XSSCount"

	metricDimensionEnvironment = "Environment"
)

// CloudWatchAPI is the subset of the CloudWatch client the publisher
// needs.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher sends per-file counters to CloudWatch using PutMetricData.
type Publisher struct {
	client       CloudWatchAPI
	namespace    string
	environment  string
	maxBatchSize int
	dryRun       bool
}

func NewPublisher(client CloudWatchAPI, namespace, environment string, dryRun bool) *Publisher {
	return &Publisher{
		client:       client,
		namespace:    namespace,
		environment:  environment,
		maxBatchSize: defaultMetricBatchSize,
		dryRun:       dryRun,
	}
}

// Publish materializes the statistics as metric data points and sends
// them in batches that respect PutMetricData limits.
func (p *Publisher) Publish(ctx context.Context, stats analyzer.Statistics, timestamp time.Time) error {
	data := p.metricData(stats, timestamp)

	chunks, err := p.chunkMetricData(data)
	if err != nil {
		return fmt.Errorf("prepare metric batches: %w", err)
	}

	if p.dryRun {
		log.WithFields(log.Fields{
			"namespace": p.namespace,
			"metrics":   len(data),
		}).Info("dry run enabled, skipping metric publish")
		return nil
	}

	for _, chunk := range chunks {
		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: chunk,
		}
		if _, err := p.client.PutMetricData(ctx, input); err != nil {
			return fmt.Errorf("put metric data: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"namespace": p.namespace,
		"metrics":   len(data),
		"batches":   len(chunks),
	}).Debug("published analysis metrics")

	return nil
}

func (p *Publisher) metricData(stats analyzer.Statistics, timestamp time.Time) []types.MetricDatum {
	dimensions := []types.Dimension{
		{Name: aws.String(metricDimensionEnvironment), Value: aws.String(p.environment)},
	}

	counters := []struct {
		name  string
		value int
	}{
		{metricNameTotalLines, stats.TotalLines},
		{metricNameCriticalMatches, stats.CriticalCount},
		{metricNameErrorCount, stats.ErrorCount},
		{metricNameAuthFailures, stats.AuthFailureCount},
		{metricNameRateLimited, stats.RateLimitCount},
		{metricNameUnique404Paths, len(stats.NotFoundPaths)},
		{metricNameSQLInjection, stats.SQLInjectionCount},
		{metricNameXSS, stats.XSSCount},
	}

	data := make([]types.MetricDatum, 0, len(counters))
	for _, c := range counters {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(c.name),
			Timestamp:  aws.Time(timestamp),
			Dimensions: dimensions,
			Value:      aws.Float64(float64(c.value)),
			Unit:       types.StandardUnitCount,
		})
	}
	return data
}

// chunkMetricData splits the provided metric data into size-bounded
// batches.
func (p *Publisher) chunkMetricData(data []types.MetricDatum) ([][]types.MetricDatum, error) {
	size := p.maxBatchSize
	if size <= 0 {
		return nil, fmt.Errorf("invalid max batch size %d", size)
	}

	if len(data) == 0 {
		return [][]types.MetricDatum{}, nil
	}

	batches := make([][]types.MetricDatum, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		batches = append(batches, data[start:end])
	}

	return batches, nil
}
