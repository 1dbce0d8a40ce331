package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/models"
)

// Accepted date layouts, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodePost parses a stored post in the given format.
func DecodePost(data []byte, format models.Format) (models.Post, error) {
	var p models.Post
	if format == models.FormatMarkdown {
		p = postFromMarkdown(string(data))
	} else if err := json.Unmarshal(data, &p); err != nil {
		return models.Post{}, fmt.Errorf("content: decode post: %v: %w", err, apperr.ErrDecode)
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}

// EncodePost renders a post in the given format.
func EncodePost(p *models.Post, format models.Format) ([]byte, error) {
	if format == models.FormatMarkdown {
		return []byte(postToMarkdown(p)), nil
	}
	return encodeJSON(p)
}

func postFromMarkdown(text string) models.Post {
	fields, body := frontmatter.Decode(text)
	p := models.Post{
		ID:         fields.Value("id"),
		Title:      fields.Value("title"),
		Slug:       fields.Value("slug"),
		Content:    body,
		Excerpt:    fields.Value("excerpt"),
		Author:     fields.Value("author"),
		Status:     fields.Value("status"),
		Categories: splitList(fields.Value("categories")),
		Tags:       splitList(fields.Value("tags")),
	}
	if t, ok := parseTime(fields.Value("date")); ok {
		p.Date = t
	}
	if t, ok := parseTime(fields.Value("scheduledDate")); ok {
		p.ScheduledDate = &t
	}
	if t, ok := parseTime(fields.Value("updatedAt")); ok {
		p.UpdatedAt = &t
	}
	return p
}

func postToMarkdown(p *models.Post) string {
	f := frontmatter.NewFields()
	f.SetNonEmpty("id", p.ID)
	f.Set("title", p.Title)
	f.Set("slug", p.Slug)
	if !p.Date.IsZero() {
		f.Set("date", p.Date.Format(time.RFC3339Nano))
	}
	f.SetNonEmpty("excerpt", p.Excerpt)
	f.SetNonEmpty("author", p.Author)
	f.SetNonEmpty("status", p.Status)
	if p.ScheduledDate != nil {
		f.Set("scheduledDate", p.ScheduledDate.Format(time.RFC3339Nano))
	}
	f.SetNonEmpty("categories", strings.Join(p.Categories, ", "))
	f.SetNonEmpty("tags", strings.Join(p.Tags, ", "))
	if p.UpdatedAt != nil {
		f.Set("updatedAt", p.UpdatedAt.Format(time.RFC3339Nano))
	}
	return frontmatter.Encode(f, p.Content)
}

// decodeJSON parses a JSON-only entity.
func decodeJSON[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("content: decode: %v: %w", err, apperr.ErrDecode)
	}
	return v, nil
}

func encodeJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("content: encode: %w", err)
	}
	return append(data, '\n'), nil
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DecodePage parses a stored page.
func DecodePage(data []byte) (models.Page, error) {
	return decodeJSON[models.Page](data)
}
