package search

import (
	"regexp"
	"strings"
)

var (
	blockRe = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)\s*>`)
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// StripHTML reduces markup to plain text: script and style blocks are dropped
// with their contents, other tags become spaces, and whitespace runs collapse
// to a single space.
func StripHTML(s string) string {
	s = blockRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
