package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// maxLogOutput bounds subprocess output copied into a log line.
const maxLogOutput = 512

// SanitizeForLog removes control characters and newlines from untrusted content before logging.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return controlChars.ReplaceAllString(s, " ")
}

// SanitizeOutput trims, sanitizes and truncates command output for a single log field.
func SanitizeOutput(b []byte) string {
	s := SanitizeForLog(strings.TrimSpace(string(b)))
	if len(s) > maxLogOutput {
		cut := maxLogOutput
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
