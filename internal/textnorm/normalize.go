package textnorm

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Rule is a single pattern rewrite. Replacement may reference capture groups as ${n}.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Pre-compiled rules in application order.
var rules = []Rule{
	{Name: "paragraph", Pattern: regexp.MustCompile(`<p>`), Replacement: "\n\n"},
	{Name: "italic", Pattern: regexp.MustCompile(`</?i>`), Replacement: ""},
	{Name: "link", Pattern: regexp.MustCompile(`(?s)<a href="(.*?)".*?>.*?</a>`), Replacement: "${1}"},
	{Name: "code", Pattern: regexp.MustCompile(`(?s)<pre><code>(.*?)</code></pre>`), Replacement: "${1}"},
}

// Rules returns a copy of the ordered rewrite rules
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Apply runs each rule once, in order, over the whole output of the previous rule.
func Apply(rs []Rule, s string) string {
	for _, r := range rs {
		s = r.Pattern.ReplaceAllString(s, r.Replacement)
	}
	return s
}

// Normalize rewrites paragraph, italic, link and code markup, then decodes HTML entities.
func Normalize(raw string) string {
	return Unescape(Apply(rules, raw))
}

var numericRef = regexp.MustCompile(`&#(?:[0-9]+|[xX][0-9a-fA-F]+);?`)

// Unescape decodes named and numeric character references. Unlike
// html.UnescapeString, references to control codes and noncharacters decode
// to nothing and out-of-range references become U+FFFD.
func Unescape(s string) string {
	locs := numericRef.FindAllStringIndex(s, -1)
	if locs == nil {
		return html.UnescapeString(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	prev := 0
	for _, loc := range locs {
		b.WriteString(html.UnescapeString(s[prev:loc[0]]))
		b.WriteString(decodeNumericRef(s[loc[0]:loc[1]]))
		prev = loc[1]
	}
	b.WriteString(html.UnescapeString(s[prev:]))
	return b.String()
}

func decodeNumericRef(ref string) string {
	digits := strings.TrimSuffix(ref[2:], ";")
	base := 10
	if digits[0] == 'x' || digits[0] == 'X' {
		base = 16
		digits = digits[1:]
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil || n > unicode.MaxRune {
		return "\uFFFD"
	}
	if dropped(rune(n)) {
		return ""
	}
	// NUL, surrogates and the windows-1252 range are handled by the html package.
	return html.UnescapeString(ref)
}

func dropped(r rune) bool {
	switch {
	case r >= 0x01 && r <= 0x08, r == 0x0B, r >= 0x0E && r <= 0x1F, r == 0x7F:
		return true
	case r >= 0xFDD0 && r <= 0xFDEF:
		return true
	case r&0xFFFE == 0xFFFE:
		return true
	}
	return false
}

// ComposeText joins an item's title and body markup. The two are separated by
// a paragraph marker only when both are present; missing parts are empty.
func ComposeText(title, text *string) string {
	var t, b string
	if title != nil {
		t = *title
	}
	if text != nil {
		b = *text
	}
	if title != nil && text != nil {
		return t + "<p>" + b
	}
	return t + b
}
