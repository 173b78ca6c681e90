// Package highlight marks filter terms inside grid cells.
package highlight

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MaxTokens caps how many query words are highlighted.
const MaxTokens = 6

var wordish = regexp.MustCompile(`(?i)[a-z0-9]`)

// Tokens splits query on whitespace and keeps the first MaxTokens words
// that contain at least one ASCII letter or digit.
func Tokens(query string) []string {
	var out []string
	for _, tok := range strings.Fields(query) {
		if !wordish.MatchString(tok) {
			continue
		}
		out = append(out, tok)
		if len(out) == MaxTokens {
			break
		}
	}
	return out
}

// Matcher finds query tokens case-insensitively.
type Matcher struct {
	re *regexp.Regexp
}

// Compile builds a matcher for query. It returns nil when the query has no
// usable tokens; a nil Matcher matches nothing.
func Compile(query string) *Matcher {
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return nil
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return &Matcher{re: regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)}
}

// Spans returns the byte ranges of every match in s.
func (m *Matcher) Spans(s string) [][]int {
	if m == nil || s == "" {
		return nil
	}
	return m.re.FindAllStringIndex(s, -1)
}

// Render styles the matched parts of s with hl and the rest with base.
func (m *Matcher) Render(s string, base, hl lipgloss.Style) string {
	spans := m.Spans(s)
	if len(spans) == 0 {
		return base.Render(s)
	}

	var b strings.Builder
	last := 0
	for _, sp := range spans {
		if sp[0] > last {
			b.WriteString(base.Render(s[last:sp[0]]))
		}
		b.WriteString(hl.Render(s[sp[0]:sp[1]]))
		last = sp[1]
	}
	if last < len(s) {
		b.WriteString(base.Render(s[last:]))
	}
	return b.String()
}
