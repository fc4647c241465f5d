// Package analyzer scans a full log file's content and accumulates
// per-file statistics plus a bounded list of flagged lines.
package analyzer

import (
	"bufio"
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/shiimaxx/s3-log-analyzer/internal/detect"
)

const maxExcerptLen = 200

// maxLineLen bounds the scanner buffer; log lines longer than this fail
// the scan rather than silently truncating.
const maxLineLen = 1024 * 1024

// InputError indicates the content could not be decoded as text. It is a
// hard failure and is never retried by the pipeline.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "input error: " + e.Reason }

// Statistics holds the per-file aggregate counters produced by scanning
// all lines once.
type Statistics struct {
	TotalLines        int
	CriticalCount     int
	ErrorCount        int
	AuthFailureCount  int
	RateLimitCount    int
	NotFoundPaths     map[string]struct{}
	SQLInjectionCount int
	XSSCount          int
	IPFrequency       map[string]int
}

// Detection records one detector match against one line. The excerpt is
// truncated to a bounded length.
type Detection struct {
	Detector   string
	LineNumber int
	Excerpt    string
}

// Analysis is the outcome of scanning one file's content.
type Analysis struct {
	Stats Statistics
	// Detections holds at most the configured number of critical
	// excerpts; Stats.CriticalCount keeps counting past the cap.
	Detections []Detection
}

// Analyzer scans file content line by line. It holds no state between
// calls; each Analyze invocation owns its accumulators exclusively.
type Analyzer struct {
	maxStoredDetections int
}

func New(maxStoredDetections int) *Analyzer {
	return &Analyzer{maxStoredDetections: maxStoredDetections}
}

// Analyze splits content into lines, discards lines that are empty after
// trimming, and runs every detector over each remaining line. Line
// numbers are 1-based positions in the original file. Empty content is
// not an error; it yields zero-valued statistics.
func (a *Analyzer) Analyze(content []byte) (*Analysis, error) {
	if !utf8.Valid(content) {
		return nil, &InputError{Reason: "content is not valid UTF-8 text"}
	}

	analysis := &Analysis{
		Stats: Statistics{
			NotFoundPaths: make(map[string]struct{}),
			IPFrequency:   make(map[string]int),
		},
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a.scanLine(analysis, lineNumber, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &InputError{Reason: err.Error()}
	}

	return analysis, nil
}

func (a *Analyzer) scanLine(analysis *Analysis, lineNumber int, line string) {
	stats := &analysis.Stats
	stats.TotalLines++

	findings := detect.Classify(line)

	if findings.Critical {
		stats.CriticalCount++
		if len(analysis.Detections) < a.maxStoredDetections {
			analysis.Detections = append(analysis.Detections, Detection{
				Detector:   detect.NameCritical,
				LineNumber: lineNumber,
				Excerpt:    detect.Truncate(line, maxExcerptLen),
			})
		}
	}
	if findings.Error {
		stats.ErrorCount++
	}
	if findings.AuthFailure {
		stats.AuthFailureCount++
	}
	if findings.RateLimit {
		stats.RateLimitCount++
	}
	if findings.SQLInjection {
		stats.SQLInjectionCount++
	}
	if findings.XSS {
		stats.XSSCount++
	}
	if findings.NotFoundPath != "" {
		stats.NotFoundPaths[findings.NotFoundPath] = struct{}{}
	}
	if findings.SourceIP != "" {
		stats.IPFrequency[findings.SourceIP]++
	}
}
