// Package classify turns raw package-manager output into problem entries
// and package-list differences. The failure scan is a keyword heuristic,
// not a parser: apt-get output is unstructured, so false positives and
// negatives are accepted.
package classify

import (
	"regexp"
	"strings"
)

// failurePattern matches standalone occurrences of the failure keywords,
// case-insensitively. Word boundaries keep tokens like "errorcode123" from
// matching; "Error:" matches because the colon is a boundary.
var failurePattern = regexp.MustCompile(`(?i)\b(error|failed|conflict|broken|failure)\b`)

// tailLines bounds how much of a blob ends up in a problem entry.
const tailLines = 10

// Scan checks a labeled output blob for failure keywords. On a hit it
// returns a problem entry holding the label and the last lines of the blob.
func Scan(label, blob string) (string, bool) {
	if !failurePattern.MatchString(blob) {
		return "", false
	}
	return label + ":\n" + Tail(blob, tailLines), true
}

// Tail returns the last n non-empty-terminated lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// NotUpdated returns every entry of pending absent from updated, by exact
// string match, preserving pending's order. The result is always a subset
// of pending.
func NotUpdated(pending, updated []string) []string {
	seen := make(map[string]struct{}, len(updated))
	for _, pkg := range updated {
		seen[pkg] = struct{}{}
	}

	var out []string
	for _, pkg := range pending {
		if _, ok := seen[pkg]; !ok {
			out = append(out, pkg)
		}
	}
	return out
}
