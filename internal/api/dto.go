package api

import (
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/search"
)

// Envelope wraps one entity with the locale and format it was resolved from.
// HTML is set for Markdown posts.
type Envelope[T any] struct {
	Data   T             `json:"data"`
	Locale string        `json:"locale"`
	Format models.Format `json:"format"`
	HTML   string        `json:"html,omitempty"`
}

// ListResponse wraps a listing.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// SearchHit is a single search result in the API response.
type SearchHit struct {
	Kind   models.ContentType `json:"kind"`
	Locale string             `json:"locale"`
	Slug   string             `json:"slug"`
	Title  string             `json:"title"`
	Score  float64            `json:"score"`
	Item   any                `json:"item"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

func envelope[T any](r content.Resolved[T]) Envelope[T] {
	return Envelope[T]{Data: r.Entity, Locale: r.Locale, Format: r.Format}
}

func listOf[T any](rs []content.Resolved[T]) ListResponse[T] {
	items := make([]T, len(rs))
	for i, r := range rs {
		items[i] = r.Entity
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

func searchHits(results []search.Result) SearchResponse {
	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{
			Kind:   r.Document.Kind,
			Locale: r.Document.Locale,
			Slug:   r.Document.Slug,
			Title:  r.Document.Title,
			Score:  r.Score,
			Item:   r.Document.Item,
		}
	}
	return SearchResponse{Results: hits}
}
