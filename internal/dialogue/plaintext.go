package dialogue

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	mdFencedCode = regexp.MustCompile("(?s)```.*?```")
	mdInlineCode = regexp.MustCompile("`([^`]*)`")
	mdLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	mdHeading    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	mdBullet     = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`)

	// An optional acknowledgement followed by a stalling phrase, e.g.
	// "Okay, let me think..." or "Claro, dame un segundo.".
	leadStall = regexp.MustCompile(`(?i)^\s*(?:(?:sure|okay|ok|alright|well|hmm|claro|bueno|vale|pues)[\s\p{P}]+)?` +
		`(?:give me (?:just )?a (?:second|sec|moment)|just a (?:second|sec|moment)|one (?:second|sec|moment)|` +
		`hold on|hang on|let me think|dame un (?:segundo|momento)|un momento|d[eé]jame pensar)` +
		`[\s\p{P}]*`)
)

// plainReply turns model output into text that reads well in a chat line
// and survives being spoken: markdown is flattened, emoji dropped, stalling
// openers removed and whitespace collapsed.
func plainReply(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = mdFencedCode.ReplaceAllString(text, " ")
	text = mdInlineCode.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdBullet.ReplaceAllString(text, "")
	text = strings.NewReplacer("**", "", "__", "", "*", "", "~~", "").Replace(text)

	for i := 0; i < 3; i++ {
		next := leadStall.ReplaceAllString(text, "")
		if next == text || strings.TrimSpace(next) == "" {
			break
		}
		text = next
	}

	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		switch {
		case r == '\u200d' || r == '\ufe0f':
		case unicode.IsSpace(r):
			if !space {
				b.WriteByte(' ')
				space = true
			}
		case unicode.IsControl(r), unicode.Is(unicode.So, r):
		default:
			b.WriteRune(r)
			space = false
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return strings.TrimSpace(raw)
	}
	return capitalizeFirst(out)
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
