// Package report renders the alert summary delivered by the notifier.
// The statistics block inside the summary is machine-parseable so that
// downstream consumers can recover the raw counters.
package report

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shiimaxx/s3-log-analyzer/internal/alerts"
	"github.com/shiimaxx/s3-log-analyzer/internal/analyzer"
)

// Summary carries everything the alert notification includes.
type Summary struct {
	FileURI     string
	Timestamp   time.Time
	Environment string
	Alerts      []alerts.Condition
	Detections  []analyzer.Detection
	Stats       analyzer.Statistics
	TopIPs      []IPCount
}

// IPCount is one entry of the top-source-IP ranking.
type IPCount struct {
	IP    string
	Count int
}

// TopIPs ranks the IP frequency map by descending count, breaking ties
// by IP string for deterministic output, and returns at most n entries.
func TopIPs(freq map[string]int, n int) []IPCount {
	if n <= 0 || len(freq) == 0 {
		return nil
	}

	ranked := make([]IPCount, 0, len(freq))
	for ip, count := range freq {
		ranked = append(ranked, IPCount{IP: ip, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].IP < ranked[j].IP
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// StatisticsBlock is the numeric view of Statistics embedded in a
// formatted summary. ParseStatisticsBlock recovers it from summary text.
type StatisticsBlock struct {
	TotalLines      int
	CriticalMatches int
	Errors          int
	AuthFailures    int
	RateLimited     int
	Unique404Paths  int
	SQLInjection    int
	XSS             int
}

// BlockFromStats projects Statistics onto its parseable numeric block.
func BlockFromStats(stats analyzer.Statistics) StatisticsBlock {
	return StatisticsBlock{
		TotalLines:      stats.TotalLines,
		CriticalMatches: stats.CriticalCount,
		Errors:          stats.ErrorCount,
		AuthFailures:    stats.AuthFailureCount,
		RateLimited:     stats.RateLimitCount,
		Unique404Paths:  len(stats.NotFoundPaths),
		SQLInjection:    stats.SQLInjectionCount,
		XSS:             stats.XSSCount,
	}
}

const statsHeader = "Statistics:"

var blockFieldOrder = []string{
	"total_lines",
	"critical_matches",
	"errors",
	"auth_failures",
	"rate_limited",
	"unique_404_paths",
	"sql_injection",
	"xss",
}

func (b StatisticsBlock) fields() map[string]int {
	return map[string]int{
		"total_lines":      b.TotalLines,
		"critical_matches": b.CriticalMatches,
		"errors":           b.Errors,
		"auth_failures":    b.AuthFailures,
		"rate_limited":     b.RateLimited,
		"unique_404_paths": b.Unique404Paths,
		"sql_injection":    b.SQLInjection,
		"xss":              b.XSS,
	}
}

// Format renders the full human-readable summary message.
func Format(s Summary) string {
	var sb strings.Builder

	sb.WriteString("Security log analysis alert\n")
	fmt.Fprintf(&sb, "File: %s\n", s.FileURI)
	fmt.Fprintf(&sb, "Time: %s\n", s.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Environment: %s\n", s.Environment)

	sb.WriteString("\nAlerts:\n")
	for _, cond := range s.Alerts {
		fmt.Fprintf(&sb, "  - [%s] %s\n", cond.Kind, cond.Message)
	}

	if len(s.Detections) > 0 {
		sb.WriteString("\nFlagged lines:\n")
		for _, d := range s.Detections {
			fmt.Fprintf(&sb, "  line %d (%s): %s\n", d.LineNumber, d.Detector, d.Excerpt)
		}
		if more := s.Stats.CriticalCount - len(s.Detections); more > 0 {
			fmt.Fprintf(&sb, "  ... and %d more\n", more)
		}
	}

	sb.WriteString("\n" + statsHeader + "\n")
	fields := BlockFromStats(s.Stats).fields()
	for _, name := range blockFieldOrder {
		fmt.Fprintf(&sb, "  %s: %d\n", name, fields[name])
	}

	if len(s.TopIPs) > 0 {
		sb.WriteString("\nTop source IPs:\n")
		for _, entry := range s.TopIPs {
			fmt.Fprintf(&sb, "  %s: %d\n", entry.IP, entry.Count)
		}
	}

	return sb.String()
}

// ParseStatisticsBlock extracts the numeric statistics block from a
// formatted summary. It fails if the block is missing or any field is
// absent or malformed.
func ParseStatisticsBlock(text string) (StatisticsBlock, error) {
	var block StatisticsBlock

	seen := make(map[string]bool, len(blockFieldOrder))
	inBlock := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == statsHeader {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}

		name, rawValue, ok := strings.Cut(trimmed, ":")
		if !ok {
			return StatisticsBlock{}, fmt.Errorf("malformed statistics line %q", trimmed)
		}
		name = strings.TrimSpace(name)
		value, err := strconv.Atoi(strings.TrimSpace(rawValue))
		if err != nil {
			return StatisticsBlock{}, fmt.Errorf("statistics field %s: %w", name, err)
		}

		switch name {
		case "total_lines":
			block.TotalLines = value
		case "critical_matches":
			block.CriticalMatches = value
		case "errors":
			block.Errors = value
		case "auth_failures":
			block.AuthFailures = value
		case "rate_limited":
			block.RateLimited = value
		case "unique_404_paths":
			block.Unique404Paths = value
		case "sql_injection":
			block.SQLInjection = value
		case "xss":
			block.XSS = value
		default:
			return StatisticsBlock{}, fmt.Errorf("unknown statistics field %q", name)
		}
		seen[name] = true
	}
	if err := scanner.Err(); err != nil {
		return StatisticsBlock{}, fmt.Errorf("scan summary: %w", err)
	}

	if !inBlock {
		return StatisticsBlock{}, fmt.Errorf("summary has no statistics block")
	}
	for _, name := range blockFieldOrder {
		if !seen[name] {
			return StatisticsBlock{}, fmt.Errorf("statistics block missing field %q", name)
		}
	}

	return block, nil
}
