package intent

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	noisePattern      = regexp.MustCompile(`[¿?¡!]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	folder            = cases.Fold()
)

// Clean applies NFC normalization, drops question/exclamation marks and
// trailing punctuation left by transcription, and collapses whitespace. Case is kept so
// captured arguments read as the user typed them.
func Clean(text string) string {
	s := norm.NFC.String(text)
	s = noisePattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimRight(strings.TrimSpace(s), " .,;:")
}

// Fold returns the cleaned, case-folded form used for exact phrase
// comparisons.
func Fold(text string) string {
	return folder.String(Clean(text))
}

// accentInsensitive expands Spanish vowels into classes so "que" and "qué"
// match the same trigger.
func accentInsensitive(quoted string) string {
	var b strings.Builder
	for _, r := range quoted {
		switch r {
		case 'a', 'á':
			b.WriteString("[aá]")
		case 'e', 'é':
			b.WriteString("[eé]")
		case 'i', 'í':
			b.WriteString("[ií]")
		case 'o', 'ó':
			b.WriteString("[oó]")
		case 'u', 'ú', 'ü':
			b.WriteString("[uúü]")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Simplify folds text and drops Spanish accents, for phrase sets that
// should treat "adiós" and "adios" alike.
func Simplify(text string) string {
	return stripAccents(Fold(text))
}
