package analyzer

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// TimestampLayout is embedded in report filenames.
const TimestampLayout = "20060102_150405"

// NormalizeURL prefixes https:// when the input carries no scheme.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

// SanitizeEmail strips every non-alphanumeric rune, yielding the
// filename-safe lookup key used in report names.
func SanitizeEmail(email string) string {
	var b strings.Builder
	b.Grow(len(email))
	for _, r := range email {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ReportFileName builds the artifact name for a finished PDF.
func ReportFileName(email string, at time.Time) string {
	return fmt.Sprintf("report_%s_%s.pdf", SanitizeEmail(email), at.Format(TimestampLayout))
}

// ChartFileName builds a request-scoped chart artifact name so concurrent
// requests cannot clobber each other's transient images.
func ChartFileName(prefix, requestID string) string {
	return fmt.Sprintf("%s_%s.png", prefix, requestID)
}
