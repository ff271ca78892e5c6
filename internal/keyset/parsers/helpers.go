// Package parsers turns key list files into keys for the keyset repository.
package parsers

import (
	"strings"

	"golang.org/x/net/idna"
)

// stripLineBOM removes a UTF-8 byte order mark from the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// classifyLine reports whether a raw line is blank or a whole-line comment.
func classifyLine(line string) (isEmpty, isComment bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, false
	}
	return false, strings.HasPrefix(trimmed, "#")
}

// stripInlineComment drops everything from the first '#'.
func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// CanonicalHostname converts name to lowercase ASCII (punycode for IDNs)
// without a trailing dot. ok is false for names that are not valid
// multi-label hostnames.
func CanonicalHostname(name string) (string, bool) {
	name = strings.TrimRight(strings.TrimSpace(name), ".")
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", false
	}
	ascii = strings.ToLower(ascii)
	if !isValidHostname(ascii) {
		return "", false
	}
	return ascii, true
}

// isValidHostname enforces: total length <= 253, at least two labels, and
// every label 1-63 characters.
func isValidHostname(name string) bool {
	if len(name) == 0 || len(name) > 253 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
	}
	return true
}
