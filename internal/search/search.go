// Package search ranks content against a free-text query with a fixed,
// additive relevance heuristic. Scores are unbounded and only meaningful
// relative to each other.
package search

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/folio/internal/models"
)

// DefaultLimit caps the number of results returned by Search.
const DefaultLimit = 50

const (
	minQueryLen = 2

	titleContainsBonus  = 100
	titleSubstringBonus = 50
	titleWordBonus      = 20
	bodyExactBonus      = 100
	bodyWordBonus       = 10
	slugBonus           = 15
	recencyBonus        = 5

	bodyWeight    = 0.3
	excerptWeight = 0.5

	recencyWindow = 30 * 24 * time.Hour
)

// Document is one searchable entity.
type Document struct {
	Kind    models.ContentType
	Locale  string
	Slug    string
	Title   string
	Content string
	Excerpt string
	Date    time.Time
	// Item is the entity the document was built from, handed back untouched.
	Item any
}

// Result is a scored document.
type Result struct {
	Document Document
	Score    float64
}

// Engine scores corpora. The zero value is ready to use.
type Engine struct {
	Now   func() time.Time
	Limit int
}

// Search scores every document in corpus and returns those with a positive
// score, best first. Ties keep corpus order. A non-empty locale skips documents
// tagged with a different locale; untagged documents always take part.
func (e Engine) Search(query string, corpus []Document, locale string) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < minQueryLen {
		return []Result{}
	}
	words := strings.Fields(q)
	wordPatterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		wordPatterns[i] = regexp.MustCompile(regexp.QuoteMeta(w))
	}
	now := e.now()

	out := make([]Result, 0)
	for _, doc := range corpus {
		if locale != "" && doc.Locale != "" && doc.Locale != locale {
			continue
		}
		if s := score(q, words, wordPatterns, doc, now); s > 0 {
			out = append(out, Result{Document: doc, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit := e.limit(); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func score(q string, words []string, patterns []*regexp.Regexp, doc Document, now time.Time) float64 {
	var total float64

	title := strings.ToLower(doc.Title)
	// The two title bonuses stack.
	if strings.Contains(title, q) {
		total += titleContainsBonus + titleSubstringBonus
	}
	titleWords := strings.Fields(title)
	for _, w := range words {
		for _, tw := range titleWords {
			if strings.Contains(tw, w) || strings.Contains(w, tw) {
				total += titleWordBonus
				break
			}
		}
	}

	total += textScore(q, patterns, doc.Content) * bodyWeight

	if doc.Kind == models.TypePost {
		total += textScore(q, patterns, doc.Excerpt) * excerptWeight
	}

	if strings.Contains(strings.ToLower(doc.Slug), q) {
		total += slugBonus
	}

	if doc.Kind == models.TypePost && !doc.Date.IsZero() && now.Sub(doc.Date) < recencyWindow {
		total += recencyBonus
	}
	return total
}

func textScore(q string, patterns []*regexp.Regexp, html string) float64 {
	if html == "" {
		return 0
	}
	text := strings.ToLower(StripHTML(html))
	var s float64
	if strings.Contains(text, q) {
		s += bodyExactBonus
	}
	for _, re := range patterns {
		s += float64(len(re.FindAllStringIndex(text, -1))) * bodyWordBonus
	}
	return s
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) limit() int {
	if e.Limit > 0 {
		return e.Limit
	}
	return DefaultLimit
}
