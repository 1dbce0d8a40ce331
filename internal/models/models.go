// Package models defines the domain types for folio.
package models

import "time"

// ContentType is the storage path segment that names a kind of entity.
type ContentType string

// Content types.
const (
	TypePost     ContentType = "posts"
	TypePage     ContentType = "pages"
	TypeCategory ContentType = "categories"
	TypeTag      ContentType = "tags"
)

// Format is the on-storage encoding of an entity, equal to its key extension.
type Format string

// Formats.
const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user-supplied format name to a Format. Anything that is not
// recognisably Markdown is JSON.
func ParseFormat(s string) Format {
	switch s {
	case "md", "markdown", ".md":
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

// Post lifecycle statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

// Post is a dated blog entry with a publication lifecycle.
type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt,omitempty"`
	Date          time.Time  `json:"date"`
	Author        string     `json:"author,omitempty"`
	Status        string     `json:"status,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	Categories    []string   `json:"categories"`
	Tags          []string   `json:"tags"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// EffectiveStatus returns the post status, treating an empty one as published.
func (p *Post) EffectiveStatus() string {
	if p.Status == "" {
		return StatusPublished
	}
	return p.Status
}

// Page is a static, undated document.
type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

// Category groups posts.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// Tag labels posts.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Locale is a language the site publishes in.
type Locale struct {
	Code    string `json:"code" yaml:"code"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// SiteConfig holds the ordered locale list and the default locale.
type SiteConfig struct {
	Locales       []Locale `json:"locales" yaml:"locales"`
	DefaultLocale string   `json:"defaultLocale" yaml:"default_locale"`
}

// IsEnabled reports whether code names an enabled locale.
func (s *SiteConfig) IsEnabled(code string) bool {
	for _, l := range s.Locales {
		if l.Code == code {
			return l.Enabled
		}
	}
	return false
}

// Change operations.
const (
	ChangeSaved   = "saved"
	ChangeDeleted = "deleted"
)

// Change describes a write to one entity.
type Change struct {
	Op     string      `json:"op"`
	Kind   ContentType `json:"kind"`
	Locale string      `json:"locale"`
	Slug   string      `json:"slug"`
}
