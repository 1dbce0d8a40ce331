// Package frontmatter encodes and decodes the flat header block at the top of
// Markdown content files.
//
// The format is a deliberately narrow subset of YAML:
//
//	---
//	id: 1f0c
//	title: Hello World
//	date: 2024-05-01T10:00:00Z
//	excerpt: "Part one: the beginning"
//	---
//	Body text.
//
// Each header line is a single "key: value" pair. Values may be wrapped in
// single or double quotes; inside double quotes \" \\ and \n are escapes.
// Lines without a colon and lines starting with # are ignored.
//
// Not supported: multi-line scalars, lists, nested maps, anchors, and typed
// scalars. Every value is a string. Callers that need list-valued fields encode
// them into a single scalar themselves.
package frontmatter

import (
	"strings"
)

const delim = "---"

// Field is a single header entry.
type Field struct {
	Key   string
	Value string
}

// Fields is an insertion-ordered string mapping.
type Fields struct {
	pairs []Field
	index map[string]int
}

// NewFields returns an empty mapping.
func NewFields() *Fields {
	return &Fields{index: map[string]int{}}
}

// Set stores value under key. An existing key keeps its position.
func (f *Fields) Set(key, value string) {
	if f.index == nil {
		f.index = map[string]int{}
	}
	if i, ok := f.index[key]; ok {
		f.pairs[i].Value = value
		return
	}
	f.index[key] = len(f.pairs)
	f.pairs = append(f.pairs, Field{Key: key, Value: value})
}

// SetNonEmpty stores value only when it is not empty.
func (f *Fields) SetNonEmpty(key, value string) {
	if value != "" {
		f.Set(key, value)
	}
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	i, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.pairs[i].Value, true
}

// Value returns the value stored under key, or "".
func (f *Fields) Value(key string) string {
	v, _ := f.Get(key)
	return v
}

// Delete removes key.
func (f *Fields) Delete(key string) {
	i, ok := f.index[key]
	if !ok {
		return
	}
	f.pairs = append(f.pairs[:i], f.pairs[i+1:]...)
	delete(f.index, key)
	for j := i; j < len(f.pairs); j++ {
		f.index[f.pairs[j].Key] = j
	}
}

// Len returns the number of entries.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.pairs)
}

// Pairs returns a copy of the entries in order.
func (f *Fields) Pairs() []Field {
	if f == nil {
		return nil
	}
	out := make([]Field, len(f.pairs))
	copy(out, f.pairs)
	return out
}

// Decode splits text into header fields and body. Text without a complete
// header block is returned whole as the body with no fields.
func Decode(text string) (*Fields, string) {
	fields := NewFields()

	first, rest, ok := cutLine(text)
	if !ok || strings.TrimSuffix(first, "\r") != delim {
		return fields, text
	}

	var header []string
	for {
		line, next, more := cutLine(rest)
		if strings.TrimSuffix(line, "\r") == delim {
			for _, h := range header {
				parseLine(fields, h)
			}
			return fields, next
		}
		if !more {
			return NewFields(), text
		}
		header = append(header, line)
		rest = next
	}
}

// Encode renders fields as a header block followed by body. With no fields the
// body is returned unchanged.
func Encode(fields *Fields, body string) string {
	if fields.Len() == 0 {
		return body
	}
	var b strings.Builder
	b.WriteString(delim)
	b.WriteByte('\n')
	for _, p := range fields.pairs {
		b.WriteString(p.Key)
		b.WriteString(": ")
		b.WriteString(encodeValue(p.Value))
		b.WriteByte('\n')
	}
	b.WriteString(delim)
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

// cutLine returns the first line of s (without its newline) and the remainder.
// more is false when s contained no newline.
func cutLine(s string) (line, rest string, more bool) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func parseLine(fields *Fields, line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return
	}
	key := strings.TrimSpace(line[:i])
	if key == "" {
		return
	}
	fields.Set(key, decodeValue(strings.TrimSpace(line[i+1:])))
}

func decodeValue(v string) string {
	if len(v) < 2 {
		return v
	}
	switch {
	case v[0] == '"' && v[len(v)-1] == '"':
		return unescape(v[1 : len(v)-1])
	case v[0] == '\'' && v[len(v)-1] == '\'':
		return v[1 : len(v)-1]
	}
	return v
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\':
				b.WriteByte(s[i+1])
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func encodeValue(v string) string {
	if !needsQuotes(v) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(v) + `"`
}

// needsQuotes reports whether v would not survive a plain round trip.
func needsQuotes(v string) bool {
	if strings.ContainsAny(v, ":\n\"") {
		return true
	}
	if v != strings.TrimSpace(v) {
		return true
	}
	return len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\''
}
