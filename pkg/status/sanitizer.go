// Package status redacts sensitive information from error messages before they
// leave the process: persisted scan runs, failure alerts and API responses.
package status

import (
	"regexp"
)

// Sanitizer removes credentials and internal addresses from error messages.
type Sanitizer struct {
	sensitivePatterns []*sensitivePattern
}

// sensitivePattern represents a pattern for sensitive information
type sensitivePattern struct {
	pattern     *regexp.Regexp
	replacement string
	description string
}

// NewSanitizer creates a sanitizer with the default patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{sensitivePatterns: buildDefaultSensitivePatterns()}
}

// buildDefaultSensitivePatterns builds the default redaction patterns. Order
// matters: whole credentials go first so later patterns never see half of one.
func buildDefaultSensitivePatterns() []*sensitivePattern {
	return []*sensitivePattern{
		// Connection strings
		{
			pattern:     regexp.MustCompile(`[^\s:/@()]+:[^\s@]*@tcp\([^)]*\)`),
			replacement: "[REDACTED_DSN]",
			description: "MySQL DSN with credentials",
		},
		{
			pattern:     regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9+.-]*://[^\s:/@]+:[^\s@]*@[^\s/]+`),
			replacement: "[REDACTED_URL]",
			description: "URL with embedded credentials",
		},
		{
			pattern:     regexp.MustCompile(`https://open\.(?:feishu\.cn|larksuite\.com)/open-apis/bot/v2/hook/[A-Za-z0-9-]+`),
			replacement: "[REDACTED_WEBHOOK]",
			description: "Feishu webhook URL",
		},

		// key=value secrets
		{
			pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token|api_key|apikey)\s*[=:]\s*[^\s,;&)]+`),
			replacement: "${1}=[REDACTED]",
			description: "Secret assignment",
		},

		// Network addresses
		{
			pattern:     regexp.MustCompile(`\bdial tcp \S+:\d+`),
			replacement: "dial tcp [REDACTED_ADDR]",
			description: "Dial target",
		},
		{
			pattern:     regexp.MustCompile(`\b10\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[INTERNAL_IP]",
			description: "Private IP 10.x.x.x",
		},
		{
			pattern:     regexp.MustCompile(`\b172\.(1[6-9]|2[0-9]|3[0-1])\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[INTERNAL_IP]",
			description: "Private IP 172.16-31.x.x",
		},
		{
			pattern:     regexp.MustCompile(`\b192\.168\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[INTERNAL_IP]",
			description: "Private IP 192.168.x.x",
		},
	}
}

// Sanitize returns message with every sensitive match redacted.
func (s *Sanitizer) Sanitize(message string) string {
	if message == "" {
		return message
	}

	result := message
	for _, sp := range s.sensitivePatterns {
		result = sp.pattern.ReplaceAllString(result, sp.replacement)
	}
	return result
}

// AddSensitivePattern adds a custom pattern, applied after the defaults.
func (s *Sanitizer) AddSensitivePattern(pattern *regexp.Regexp, replacement, description string) {
	s.sensitivePatterns = append(s.sensitivePatterns, &sensitivePattern{
		pattern:     pattern,
		replacement: replacement,
		description: description,
	})
}
