// Package redact strips connection details, credentials and query text from
// strings before they are logged or returned in error responses. Database
// driver errors are the main source: they can echo DSNs, hosts and SQL.
package redact

import (
	"regexp"
)

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	re          *regexp.Regexp
	placeholder string
}

// rules are applied in order; earlier rules see the unmodified input.
var rules = []rule{
	// postgres://user:pass@ and similar URL credentials
	{regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|pgx|mysql|redis)://[^\s@/]+@`), RedactedCredentialPlaceholder + "@"},
	// keyword/value DSN fragments
	{regexp.MustCompile(`(?i)\b(?:password|passwd|pwd|user|sslkey|sslpassword)\s*[=:]\s*'?[^\s'&]+'?`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)\b(?:api[_-]?key|token|secret)\s*[=:]\s*[A-Za-z0-9_\-.~+/]{8,}`), RedactedCredentialPlaceholder},

	// goroutine dumps
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},

	// statements echoed by the driver or by migrations
	{regexp.MustCompile(
		`(?i)\b(?:SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|TRUNCATE)\b[\s\w,*().$=<>'"]+?\b(?:FROM|INTO|SET|TABLE|INDEX|SEQUENCE)\b[\s\w,*().$=<>'"]*`,
	), RedactedSQLPlaceholder},

	// host:port and IPv4 addresses
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}(?::\d{1,5})?\b`), RedactedHostPlaceholder},
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}:\d{1,5}\b`), RedactedHostPlaceholder},
	{regexp.MustCompile(`\blocalhost:\d{1,5}\b`), RedactedHostPlaceholder},

	// filesystem paths (migration files, unix sockets)
	{regexp.MustCompile(`(?:/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\\s]+(?:\\[^\\\s]+)+`), RedactedPathPlaceholder},

	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},
}

// String redacts sensitive information from input.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.re.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
