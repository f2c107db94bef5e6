package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	highlightOpen  = `<mark class="search-highlight">`
	highlightClose = `</mark>`
	ellipsis       = "..."
)

// HighlightSearchTerms returns an HTML-escaped window of at most maxLength runes
// around the first case-insensitive match of term, with every match in the
// window wrapped in a highlight mark. Truncated sides get an ellipsis. Without
// a match the text is cut to maxLength.
func HighlightSearchTerms(text, term string, maxLength int) string {
	if text == "" || term == "" {
		return html.EscapeString(text)
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	runes := []rune(text)

	loc := re.FindStringIndex(text)
	if loc == nil {
		if len(runes) > maxLength {
			return html.EscapeString(string(runes[:maxLength])) + ellipsis
		}
		return html.EscapeString(text)
	}

	idx := utf8.RuneCountInString(text[:loc[0]])
	start := idx - maxLength/2
	if start < 0 {
		start = 0
	}
	end := start + maxLength
	if end > len(runes) {
		end = len(runes)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(markMatches(string(runes[start:end]), re))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// markMatches escapes s and wraps each match of re. Matching runs on the raw
// text so markup in s is never split by a mark.
func markMatches(s string, re *regexp.Regexp) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(s, -1) {
		b.WriteString(html.EscapeString(s[last:m[0]]))
		b.WriteString(highlightOpen)
		b.WriteString(html.EscapeString(s[m[0]:m[1]]))
		b.WriteString(highlightClose)
		last = m[1]
	}
	b.WriteString(html.EscapeString(s[last:]))
	return b.String()
}
