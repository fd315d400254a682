// Package calculator evaluates spoken arithmetic.
package calculator

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

var letterTimes = regexp.MustCompile(`(?i)(\d|\))\s*x\s*(\d|\()`)

// Operator words are rewritten in order, so longer phrases come first.
var spokenOperators = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bdivided\s+by\b`), "/"},
	{regexp.MustCompile(`(?i)\bdividido\s+(?:entre|por)\b`), "/"},
	{regexp.MustCompile(`(?i)\bentre\b`), "/"},
	{regexp.MustCompile(`(?i)\bover\b`), "/"},
	{regexp.MustCompile(`(?i)\bmultiplied\s+by\b`), "*"},
	{regexp.MustCompile(`(?i)\bmultiplicado\s+por\b`), "*"},
	{regexp.MustCompile(`(?i)\btimes\b`), "*"},
	{regexp.MustCompile(`(?i)\bpor\b`), "*"},
	{letterTimes, "$1 * $2"},
	{regexp.MustCompile(`(?i)\bto\s+the\s+power\s+of\b`), "^"},
	{regexp.MustCompile(`(?i)\belevado\s+a\b`), "^"},
	{regexp.MustCompile(`(?i)\bmod(?:ulo)?\b`), "%"},
	{regexp.MustCompile(`(?i)\bplus\b`), "+"},
	{regexp.MustCompile(`(?i)\bm[aá]s\b`), "+"},
	{regexp.MustCompile(`(?i)\bminus\b`), "-"},
	{regexp.MustCompile(`(?i)\bmenos\b`), "-"},
}

var (
	allowedFunctions = regexp.MustCompile(`\b(?:abs|ceil|floor|round|max|min)\b`)
	arithmeticOnly   = regexp.MustCompile(`^[0-9+\-*/%^().,\s]+$`)
)

// Calculator is stateless and safe for concurrent use.
type Calculator struct{}

func New() Calculator { return Calculator{} }

// Evaluate computes expr. ok is false when the input is not arithmetic,
// fails to evaluate, or evaluates to itself.
func (Calculator) Evaluate(input string) (string, bool) {
	src := Normalize(input)
	if src == "" {
		return "", false
	}
	if !arithmeticOnly.MatchString(allowedFunctions.ReplaceAllString(src, "")) {
		return "", false
	}
	// Commas only separate function arguments.
	if strings.Contains(src, ",") && !allowedFunctions.MatchString(src) {
		return "", false
	}

	program, err := expr.Compile(src)
	if err != nil {
		return "", false
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return "", false
	}

	result, ok := format(out)
	if !ok {
		return "", false
	}
	if result == strings.ReplaceAll(src, " ", "") {
		return "", false
	}
	return result, true
}

// Normalize rewrites spoken operator words into symbols and trims the
// input.
func Normalize(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimRight(s, "=?¿ ")
	for _, op := range spokenOperators {
		s = op.pattern.ReplaceAllString(s, op.replacement)
	}
	// "2x3x4" shares the middle operand, so the first pass leaves one x.
	s = letterTimes.ReplaceAllString(s, "$1 * $2")
	return strings.Join(strings.Fields(s), " ")
}

func format(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", false
		}
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10), true
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	default:
		return "", false
	}
}
