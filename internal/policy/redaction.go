// Package policy holds content rules applied before conversation text leaves
// the process.
package policy

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// RedactPII masks e-mail addresses, card numbers and phone numbers.
func RedactPII(input string) (redacted string, changed bool) {
	out := input

	next := emailPattern.ReplaceAllString(out, "[email]")
	changed = changed || next != out
	out = next

	// Cards first, otherwise the phone pattern eats them.
	next = cardPattern.ReplaceAllString(out, "[card]")
	changed = changed || next != out
	out = next

	next = phonePattern.ReplaceAllString(out, "[phone]")
	changed = changed || next != out
	out = next

	return out, changed
}

// RedactLines applies RedactPII to every line of a prompt context and
// reports how many lines changed.
func RedactLines(lines []string) ([]string, int) {
	out := make([]string, len(lines))
	n := 0
	for i, line := range lines {
		red, changed := RedactPII(line)
		if changed {
			n++
		}
		out[i] = strings.TrimRight(red, " ")
	}
	return out, n
}
