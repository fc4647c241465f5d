package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	log "github.com/sirupsen/logrus"

	"github.com/shiimaxx/s3-log-analyzer/internal/metrics"
	"github.com/shiimaxx/s3-log-analyzer/internal/notify"
	"github.com/shiimaxx/s3-log-analyzer/internal/pipeline"
	"github.com/shiimaxx/s3-log-analyzer/pkg/config"
	"github.com/shiimaxx/s3-log-analyzer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	logger.Setup(cfg.LogLevel)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("load AWS config: %v", err)
	}

	notifier := notify.New(sns.NewFromConfig(awsCfg), cfg.AlertTopicARN, cfg.DryRun)

	var publisher *metrics.Publisher
	if cfg.MetricNamespace != "" {
		publisher = metrics.NewPublisher(cloudwatch.NewFromConfig(awsCfg), cfg.MetricNamespace, cfg.Environment, cfg.DryRun)
	}

	processor := pipeline.New(s3.NewFromConfig(awsCfg), notifier, publisher, cfg)

	lambda.Start(processor.HandleEvent)
}
