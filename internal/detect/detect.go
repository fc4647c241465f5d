// Package detect classifies individual log lines against a fixed set of
// named security detectors. Detectors are heuristic substring/regex
// predicates, not parsers; false positives are acceptable and expected.
package detect

import (
	"regexp"
)

// Detector names, used in detection records and reports.
const (
	NameCritical     = "critical_keyword"
	NameError        = "error_keyword"
	NameAuthFailure  = "auth_failure"
	NameRateLimit    = "rate_limit"
	NameNotFoundPath = "not_found_path"
	NameSQLInjection = "sql_injection"
	NameXSS          = "xss"
	NameSourceIP     = "source_ip"
)

var (
	criticalRe = regexp.MustCompile(`(?i)(ERROR|CRITICAL|FATAL|EXCEPTION|DENIED|UNAUTHORIZED|FORBIDDEN|ATTACK|VULNERABILITY|EXPLOIT|MALICIOUS|MALWARE|VIRUS|BRUTE\s*FORCE)`)
	errorRe    = regexp.MustCompile(`(?i)(error|exception|fail)`)
	authRe     = regexp.MustCompile(`(?i)(authentication fail|login fail|auth fail|incorrect password)`)
	rateRe     = regexp.MustCompile(`(?i)(rate limit|too many requests|throttl)`)
	notFoundRe = regexp.MustCompile(`(?i)GET\s+(\S+).*404`)
	sqlRe      = regexp.MustCompile(`(?i)(union.*select|select.*from|insert.*into|update.*set|delete.*from)`)
	xssRe      = regexp.MustCompile(`(?i)(<script>|javascript:|onerror=|onload=|onclick=)`)
	ipv4Re     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
)

// Findings reports every detector that matched a single line. A line may
// trigger any number of detectors independently.
type Findings struct {
	Critical     bool
	Error        bool
	AuthFailure  bool
	RateLimit    bool
	SQLInjection bool
	XSS          bool
	NotFoundPath string // extracted 404 path, empty when not matched
	SourceIP     string // first IPv4-shaped token, empty when not found
}

// Classify runs every detector against the line and returns the full set
// of findings.
func Classify(line string) Findings {
	f := Findings{
		Critical:     Critical(line),
		Error:        Error(line),
		AuthFailure:  AuthFailure(line),
		RateLimit:    RateLimit(line),
		SQLInjection: SQLInjection(line),
		XSS:          XSS(line),
	}
	if path, ok := NotFoundPath(line); ok {
		f.NotFoundPath = path
	}
	if ip, ok := SourceIP(line); ok {
		f.SourceIP = ip
	}
	return f
}

// Critical reports whether the line contains a critical security keyword.
func Critical(line string) bool { return criticalRe.MatchString(line) }

// Error reports whether the line matches the broader error keyword set
// used for error-rate accounting.
func Error(line string) bool { return errorRe.MatchString(line) }

// AuthFailure reports whether the line describes a failed authentication
// attempt.
func AuthFailure(line string) bool { return authRe.MatchString(line) }

// RateLimit reports whether the line indicates rate limiting or
// throttling.
func RateLimit(line string) bool { return rateRe.MatchString(line) }

// SQLInjection reports whether the line resembles a SQL injection
// attempt. Substring-level matching only, not SQL parsing.
func SQLInjection(line string) bool { return sqlRe.MatchString(line) }

// XSS reports whether the line contains a cross-site scripting marker.
func XSS(line string) bool { return xssRe.MatchString(line) }

// NotFoundPath extracts the requested path from a line of the shape
// "GET <path> ... 404". The path is the first whitespace-delimited token
// after GET, confirmed by a literal 404 later on the line.
func NotFoundPath(line string) (string, bool) {
	m := notFoundRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SourceIP extracts the first IPv4-shaped token from the line. Octets are
// not range-validated; any 1-3 digit group is accepted.
func SourceIP(line string) (string, bool) {
	ip := ipv4Re.FindString(line)
	if ip == "" {
		return "", false
	}
	return ip, true
}

// Truncate bounds an excerpt to max characters for storage in a
// detection record.
func Truncate(line string, max int) string {
	if max <= 0 {
		return line
	}
	runes := []rune(line)
	if len(runes) <= max {
		return line
	}
	return string(runes[:max])
}
