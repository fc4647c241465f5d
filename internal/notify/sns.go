// Package notify delivers alert summaries to an SNS topic. Delivery is
// best-effort: a missing topic degrades to a log entry and a failed
// publish surfaces as a DeliveryError for the caller to log and ignore.
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	log "github.com/sirupsen/logrus"
)

// maxSubjectLen is the SNS subject limit.
const maxSubjectLen = 100

// SNSAPI is the subset of the SNS client the notifier needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// DeliveryError wraps a failed publish. It never fails the overall
// invocation; the analysis result already stands.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return "delivery failed: " + e.Err.Error() }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier publishes alert summaries to a single configured topic.
type Notifier struct {
	client   SNSAPI
	topicARN string
	dryRun   bool
}

func New(client SNSAPI, topicARN string, dryRun bool) *Notifier {
	return &Notifier{
		client:   client,
		topicARN: topicARN,
		dryRun:   dryRun,
	}
}

// Send delivers the message. The boolean reports whether an external
// delivery actually happened; with no topic configured the summary is
// emitted to the diagnostic log instead.
func (n *Notifier) Send(ctx context.Context, subject, message string) (bool, error) {
	if n.topicARN == "" {
		log.WithField("subject", subject).Info("no notification topic configured, logging summary")
		log.Info(message)
		return false, nil
	}

	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}

	if n.dryRun {
		log.WithFields(log.Fields{
			"topic_arn": n.topicARN,
			"subject":   subject,
		}).Info("dry run enabled, skipping SNS publish")
		return false, nil
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return false, &DeliveryError{Err: err}
	}

	log.WithFields(log.Fields{
		"topic_arn":  n.topicARN,
		"message_id": aws.ToString(out.MessageId),
	}).Info("alert summary delivered")

	return true, nil
}
