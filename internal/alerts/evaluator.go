// Package alerts evaluates per-file statistics against configured
// thresholds and produces the triggered alert conditions.
package alerts

import (
	"fmt"

	"github.com/shiimaxx/s3-log-analyzer/internal/analyzer"
)

// Kind identifies a thresholded alert condition.
type Kind int

const (
	KindCriticalIssues Kind = iota
	KindHighErrorRate
	KindExcessiveAuthFailures
	KindRateLimitExceeded
	KindScanningActivity
	KindSQLInjection
	KindXSS
)

func (k Kind) String() string {
	switch k {
	case KindCriticalIssues:
		return "CriticalIssues"
	case KindHighErrorRate:
		return "HighErrorRate"
	case KindExcessiveAuthFailures:
		return "ExcessiveAuthFailures"
	case KindRateLimitExceeded:
		return "RateLimitExceeded"
	case KindScanningActivity:
		return "ScanningActivity"
	case KindSQLInjection:
		return "SqlInjection"
	case KindXSS:
		return "Xss"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Condition is a single triggered alert. Immutable once created.
type Condition struct {
	Kind    Kind
	Message string
	Value   float64
}

// Thresholds configures the evaluator. All comparisons are strict
// greater-than.
type Thresholds struct {
	ErrorRate    float64
	AuthFailures int
	RateLimit    int
	Unusual404   int
	SQLInjection int
	XSS          int
}

// DefaultThresholds mirrors the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ErrorRate:    0.05,
		AuthFailures: 10,
		RateLimit:    5,
		Unusual404:   20,
		SQLInjection: 1,
		XSS:          1,
	}
}

// Evaluate compares the statistics against the thresholds. It is a pure
// function; the returned conditions are ordered deterministically
// (critical issues, error rate, auth failures, rate limit, scanning,
// SQL injection, XSS).
func Evaluate(stats analyzer.Statistics, t Thresholds) []Condition {
	var conditions []Condition

	if stats.CriticalCount > 0 {
		conditions = append(conditions, Condition{
			Kind:    KindCriticalIssues,
			Message: fmt.Sprintf("Critical issues detected: %d matching lines", stats.CriticalCount),
			Value:   float64(stats.CriticalCount),
		})
	}

	// totalLines == 0 suppresses the rate check entirely.
	if stats.TotalLines > 0 {
		rate := float64(stats.ErrorCount) / float64(stats.TotalLines)
		if rate > t.ErrorRate {
			conditions = append(conditions, Condition{
				Kind:    KindHighErrorRate,
				Message: fmt.Sprintf("High error rate: %.2f%% (%d/%d)", rate*100, stats.ErrorCount, stats.TotalLines),
				Value:   rate,
			})
		}
	}

	if stats.AuthFailureCount > t.AuthFailures {
		conditions = append(conditions, Condition{
			Kind:    KindExcessiveAuthFailures,
			Message: fmt.Sprintf("Excessive authentication failures: %d", stats.AuthFailureCount),
			Value:   float64(stats.AuthFailureCount),
		})
	}

	if stats.RateLimitCount > t.RateLimit {
		conditions = append(conditions, Condition{
			Kind:    KindRateLimitExceeded,
			Message: fmt.Sprintf("Rate limiting triggered %d times", stats.RateLimitCount),
			Value:   float64(stats.RateLimitCount),
		})
	}

	if len(stats.NotFoundPaths) > t.Unusual404 {
		conditions = append(conditions, Condition{
			Kind:    KindScanningActivity,
			Message: fmt.Sprintf("Possible scanning activity: %d unique 404 paths", len(stats.NotFoundPaths)),
			Value:   float64(len(stats.NotFoundPaths)),
		})
	}

	if stats.SQLInjectionCount > t.SQLInjection {
		conditions = append(conditions, Condition{
			Kind:    KindSQLInjection,
			Message: fmt.Sprintf("Possible SQL injection attempts: %d", stats.SQLInjectionCount),
			Value:   float64(stats.SQLInjectionCount),
		})
	}

	if stats.XSSCount > t.XSS {
		conditions = append(conditions, Condition{
			Kind:    KindXSS,
			Message: fmt.Sprintf("Possible XSS attempts: %d", stats.XSSCount),
			Value:   float64(stats.XSSCount),
		})
	}

	return conditions
}
