// Package pipeline orchestrates one analysis invocation per incoming S3
// object: fetch, analyze, evaluate thresholds, notify, publish metrics.
// The processor is stateless between invocations.
package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/shiimaxx/s3-log-analyzer/internal/alerts"
	"github.com/shiimaxx/s3-log-analyzer/internal/analyzer"
	"github.com/shiimaxx/s3-log-analyzer/internal/metrics"
	"github.com/shiimaxx/s3-log-analyzer/internal/notify"
	"github.com/shiimaxx/s3-log-analyzer/internal/report"
	"github.com/shiimaxx/s3-log-analyzer/pkg/config"
)

var gzipMagic = []byte{0x1f, 0x8b}

// S3API is the subset of the S3 client the processor needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Result is the per-file outcome envelope returned to the invoking
// harness.
type Result struct {
	FileURI    string `json:"fileUri"`
	AlertCount int    `json:"alertCount"`
	Analyzed   bool   `json:"analyzed"`
}

// Processor drives the analysis of one S3 object per event record.
type Processor struct {
	s3Client  S3API
	analyzer  *analyzer.Analyzer
	notifier  *notify.Notifier
	publisher *metrics.Publisher
	cfg       *config.Config
	now       func() time.Time
}

// New wires a processor. The publisher may be nil when metric
// publication is not configured.
func New(s3Client S3API, notifier *notify.Notifier, publisher *metrics.Publisher, cfg *config.Config) *Processor {
	return &Processor{
		s3Client:  s3Client,
		analyzer:  analyzer.New(cfg.MaxStoredDetections),
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// HandleEvent processes every record of the S3 event. The first hard
// failure (fetch or decode) aborts the invocation; delivery and metric
// failures degrade to logged warnings.
func (p *Processor) HandleEvent(ctx context.Context, s3Event events.S3Event) ([]Result, error) {
	results := make([]Result, 0, len(s3Event.Records))

	for _, record := range s3Event.Records {
		bucket := record.S3.Bucket.Name
		if bucket == "" {
			return results, fmt.Errorf("missing bucket name in S3 event record")
		}

		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return results, fmt.Errorf("decode object key %q: %w", record.S3.Object.Key, err)
		}

		result, err := p.processObject(ctx, bucket, key)
		if err != nil {
			return results, fmt.Errorf("analyze s3://%s/%s: %w", bucket, key, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (p *Processor) processObject(ctx context.Context, bucket, key string) (Result, error) {
	fileURI := fmt.Sprintf("s3://%s/%s", bucket, key)
	logEntry := log.WithField("file", fileURI)
	logEntry.Info("processing log object")

	content, err := p.fetchObject(ctx, bucket, key)
	if err != nil {
		return Result{FileURI: fileURI}, err
	}

	analysis, err := p.analyzer.Analyze(content)
	if err != nil {
		return Result{FileURI: fileURI}, err
	}

	conditions := alerts.Evaluate(analysis.Stats, p.cfg.Thresholds())

	result := Result{
		FileURI:    fileURI,
		AlertCount: len(conditions),
		Analyzed:   true,
	}

	logEntry.WithFields(log.Fields{
		"total_lines": analysis.Stats.TotalLines,
		"alerts":      len(conditions),
	}).Info("analysis complete")

	if len(conditions) == 0 {
		logEntry.Debug("no alert conditions triggered, skipping notification")
	} else {
		p.deliverAlerts(ctx, fileURI, key, analysis, conditions)
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, analysis.Stats, p.now()); err != nil {
			logEntry.WithError(err).Warn("metric publication failed")
		}
	}

	return result, nil
}

func (p *Processor) deliverAlerts(ctx context.Context, fileURI, key string, analysis *analyzer.Analysis, conditions []alerts.Condition) {
	summary := report.Summary{
		FileURI:     fileURI,
		Timestamp:   p.now(),
		Environment: p.cfg.Environment,
		Alerts:      conditions,
		Detections:  analysis.Detections,
		Stats:       analysis.Stats,
		TopIPs:      report.TopIPs(analysis.Stats.IPFrequency, p.cfg.TopIPCount),
	}

	subject := fmt.Sprintf("[%s] %d log alert(s): %s", p.cfg.Environment, len(conditions), key)

	delivered, err := p.notifier.Send(ctx, subject, report.Format(summary))
	if err != nil {
		var deliveryErr *notify.DeliveryError
		if errors.As(err, &deliveryErr) {
			log.WithField("file", fileURI).WithError(err).Warn("alert delivery failed, continuing")
			return
		}
		log.WithField("file", fileURI).WithError(err).Warn("unexpected notifier failure, continuing")
		return
	}
	if !delivered {
		log.WithField("file", fileURI).Debug("alert summary logged without external delivery")
	}
}

func (p *Processor) fetchObject(ctx context.Context, bucket, key string) ([]byte, error) {
	resp, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}

	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}

	gzipReader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	content, err := io.ReadAll(gzipReader)
	if err != nil {
		return nil, fmt.Errorf("read gzip content: %w", err)
	}

	return content, nil
}
