package intent

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalidRule  = errors.New("intent: invalid rule")
	ErrShadowedRule = errors.New("intent: rule shadowed by an earlier rule")
)

// Match is a detected command. Argument is empty for ArgNone rules.
type Match struct {
	Kind     string
	Argument string
}

type compiledRule struct {
	rule    Rule
	pattern *regexp.Regexp
}

// Detector evaluates rules in ascending priority; the first match wins.
type Detector struct {
	rules []compiledRule
}

// NewDetector validates and compiles rules. Rules are stably sorted by
// priority, so equal priorities keep table order.
func NewDetector(rules []Rule) (*Detector, error) {
	ordered := append([]Rule(nil), rules...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	if err := validate(ordered); err != nil {
		return nil, err
	}

	d := &Detector{rules: make([]compiledRule, 0, len(ordered))}
	for _, r := range ordered {
		re, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.Kind, err)
		}
		d.rules = append(d.rules, compiledRule{rule: r, pattern: re})
	}
	return d, nil
}

// NewDefaultDetector compiles DefaultRules.
func NewDefaultDetector() *Detector {
	d, err := NewDetector(DefaultRules())
	if err != nil {
		panic(err)
	}
	return d
}

// Rules returns the compiled rules in evaluation order.
func (d *Detector) Rules() []Rule {
	out := make([]Rule, 0, len(d.rules))
	for _, cr := range d.rules {
		out = append(out, cr.rule)
	}
	return out
}

// Kinds returns every kind the detector can produce.
func (d *Detector) Kinds() []string {
	return Kinds(d.Rules())
}

// Detect classifies text. Rules requiring an argument are skipped when the
// captured argument is empty.
func (d *Detector) Detect(text string) (Match, bool) {
	cleaned := Clean(text)
	if cleaned == "" {
		return Match{}, false
	}
	for _, cr := range d.rules {
		m := cr.pattern.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		if cr.rule.Arg == ArgNone {
			return Match{Kind: cr.rule.Kind}, true
		}
		arg := strings.Trim(m[1], " :,;")
		if arg == "" {
			continue
		}
		return Match{Kind: cr.rule.Kind, Argument: arg}, true
	}
	return Match{}, false
}

func compile(r Rule) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?i)^(?:`)
	b.WriteString(alternation(r.Triggers))
	b.WriteString(`)`)
	if len(r.Targets) > 0 {
		b.WriteString(`(?:\s+(?:`)
		b.WriteString(alternation(r.Targets))
		b.WriteString(`))?`)
	}
	switch r.Arg {
	case ArgNone:
		b.WriteString(`\s*$`)
	case ArgText:
		b.WriteString(`(?:\s*[:,]\s*|\s+)(.+?)\s*$`)
	case ArgInteger:
		b.WriteString(`(?:\s*[:,]\s*|\s+)(\d+)\s*$`)
	default:
		return nil, fmt.Errorf("unknown argument policy %v", r.Arg)
	}
	return regexp.Compile(b.String())
}

// alternation joins phrases longest-first so a shorter phrase never wins
// over a longer one sharing its prefix.
func alternation(phrases []string) string {
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = Clean(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return len([]rune(cleaned[i])) > len([]rune(cleaned[j]))
	})
	parts := make([]string, 0, len(cleaned))
	for _, p := range cleaned {
		parts = append(parts, accentInsensitive(regexp.QuoteMeta(p)))
	}
	return strings.Join(parts, "|")
}

func validate(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Kind) == "" {
			return fmt.Errorf("%w: empty kind", ErrInvalidRule)
		}
		if _, dup := seen[r.Kind]; dup {
			return fmt.Errorf("%w: duplicate kind %q", ErrInvalidRule, r.Kind)
		}
		seen[r.Kind] = struct{}{}
		if len(r.Triggers) == 0 {
			return fmt.Errorf("%w: %s has no triggers", ErrInvalidRule, r.Kind)
		}
	}

	for i, earlier := range rules {
		if earlier.Arg != ArgText {
			continue
		}
		for _, later := range rules[i+1:] {
			for _, short := range earlier.Triggers {
				for _, long := range later.Triggers {
					if isWordPrefix(stripAccents(Fold(short)), stripAccents(Fold(long))) {
						return fmt.Errorf("%w: %s trigger %q swallows %s trigger %q",
							ErrShadowedRule, earlier.Kind, short, later.Kind, long)
					}
				}
			}
		}
	}
	return nil
}

func isWordPrefix(short, long string) bool {
	return short != "" && strings.HasPrefix(long, short+" ")
}

func stripAccents(s string) string {
	return strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u").Replace(s)
}
