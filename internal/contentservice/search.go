package contentservice

import (
	"context"
	"log/slog"

	"github.com/starford/folio/internal/lifecycle"
	"github.com/starford/folio/internal/locale"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/search"
)

// Search ranks the visible posts and pages against query. With an index the
// corpus comes from it and the lifecycle gate is re-applied at query time;
// without one, or when the index cannot be read, every entity is read from
// storage.
func (s *Service) Search(ctx context.Context, query, loc string, vis lifecycle.Visibility) []search.Result {
	if s.corpus != nil {
		docs, err := s.indexedCorpus(ctx, vis)
		if err == nil {
			return s.engine.Search(query, docs, loc)
		}
		s.logger.Warn("search: index unavailable, reading storage", slog.String("error", err.Error()))
	}
	return s.engine.Search(query, s.storedCorpus(ctx, loc, vis), loc)
}

func (s *Service) indexedCorpus(ctx context.Context, vis lifecycle.Visibility) ([]search.Document, error) {
	entries, err := s.corpus.Documents(ctx)
	if err != nil {
		return nil, err
	}
	gate := s.resolver.Gate()
	out := make([]search.Document, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		doc := search.Document{
			Kind:    e.Kind,
			Locale:  e.Locale,
			Slug:    e.Slug,
			Title:   e.Title,
			Content: e.Body,
		}
		switch e.Kind {
		case models.TypePost:
			p := e.Post()
			if !gate.Allows(&p, vis) {
				continue
			}
			doc.Excerpt, doc.Date, doc.Item = e.Excerpt, e.Date, p
		default:
			doc.Item = models.Page{ID: e.ID, Title: e.Title, Slug: e.Slug, Content: e.Body}
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Service) storedCorpus(ctx context.Context, loc string, vis lifecycle.Visibility) []search.Document {
	locales := []string{loc, locale.Legacy}
	if loc == "" {
		locales = append(locale.Enabled(s.resolver.Site()), locale.Legacy)
	}
	var out []search.Document
	for _, l := range locales {
		for _, p := range s.resolver.GetAllPosts(ctx, l, vis) {
			out = append(out, PostDocument(p.Entity, l))
		}
		for _, p := range s.resolver.GetAllPages(ctx, l) {
			out = append(out, PageDocument(p.Entity, l))
		}
	}
	return out
}

// PostDocument builds the search document of a post.
func PostDocument(p models.Post, loc string) search.Document {
	return search.Document{
		Kind:    models.TypePost,
		Locale:  loc,
		Slug:    p.Slug,
		Title:   p.Title,
		Content: p.Content,
		Excerpt: p.Excerpt,
		Date:    p.Date,
		Item:    p,
	}
}

// PageDocument builds the search document of a page.
func PageDocument(p models.Page, loc string) search.Document {
	return search.Document{
		Kind:    models.TypePage,
		Locale:  loc,
		Slug:    p.Slug,
		Title:   p.Title,
		Content: p.Content,
		Item:    p,
	}
}
