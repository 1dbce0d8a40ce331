// Package contentservice coordinates the content resolver, the search index
// and the search engine behind one API used by the HTTP and MCP surfaces.
package contentservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/lifecycle"
	"github.com/starford/folio/internal/locale"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/storage"
)

// Service coordinates content reads, writes and search.
type Service struct {
	resolver *content.Resolver
	store    storage.Store
	db       *index.DB
	corpus   index.Corpus
	engine   search.Engine
	notifier Notifier
	logger   *slog.Logger
}

// Notifier receives every successful write.
type Notifier interface {
	Notify(models.Change)
}

// Option configures a Service.
type Option func(*Service)

// WithIndex makes search read its corpus from db and keeps db current on writes.
func WithIndex(db *index.DB) Option {
	return func(s *Service) {
		s.db = db
	}
}

// WithCorpus overrides where search reads indexed documents from. Writes still
// refresh the index set by WithIndex, if any.
func WithCorpus(c index.Corpus) Option {
	return func(s *Service) {
		s.corpus = c
	}
}

// WithNotifier reports writes to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithEngine sets the search engine.
func WithEngine(e search.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service. store must be the store resolver was built on.
func New(resolver *content.Resolver, store storage.Store, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		store:    store,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.corpus == nil && s.db != nil {
		s.corpus = s.db
	}
	if s.engine.Now == nil {
		s.engine.Now = resolver.Gate().Now
	}
	return s
}

// Site returns the site configuration.
func (s *Service) Site() models.SiteConfig { return s.resolver.Site() }

// GetPost resolves a post through the locale chain.
func (s *Service) GetPost(ctx context.Context, slug, loc string, vis lifecycle.Visibility) (content.Resolved[models.Post], error) {
	r, ok := s.resolver.ResolvePost(ctx, slug, loc, vis)
	if !ok {
		return r, notFound("post", slug)
	}
	return r, nil
}

// ListPosts lists the visible posts of one locale, newest first.
func (s *Service) ListPosts(ctx context.Context, loc string, vis lifecycle.Visibility) []content.Resolved[models.Post] {
	return s.resolver.GetAllPosts(ctx, loc, vis)
}

// SavePost stores a post and refreshes its index entry.
func (s *Service) SavePost(ctx context.Context, loc string, p *models.Post, format models.Format) error {
	if err := s.resolver.SavePost(ctx, loc, p, format); err != nil {
		return err
	}
	s.refresh(ctx, models.TypePost, loc, p.Slug, models.ParseFormat(string(format)))
	s.notify(models.ChangeSaved, models.TypePost, loc, p.Slug)
	return nil
}

// DeletePost removes every stored format of a post.
func (s *Service) DeletePost(ctx context.Context, slug, loc string) error {
	if !s.resolver.DeletePost(ctx, slug, loc) {
		return notFound("post", slug)
	}
	s.refresh(ctx, models.TypePost, loc, slug, models.FormatMarkdown)
	s.refresh(ctx, models.TypePost, loc, slug, models.FormatJSON)
	s.notify(models.ChangeDeleted, models.TypePost, loc, slug)
	return nil
}

// GetPage resolves a page through the locale chain.
func (s *Service) GetPage(ctx context.Context, slug, loc string) (content.Resolved[models.Page], error) {
	r, ok := s.resolver.ResolvePage(ctx, slug, loc)
	if !ok {
		return r, notFound("page", slug)
	}
	return r, nil
}

// ListPages lists the pages of one locale.
func (s *Service) ListPages(ctx context.Context, loc string) []content.Resolved[models.Page] {
	return s.resolver.GetAllPages(ctx, loc)
}

// SavePage stores a page and refreshes its index entry.
func (s *Service) SavePage(ctx context.Context, loc string, p *models.Page) error {
	if err := s.resolver.SavePage(ctx, loc, p); err != nil {
		return err
	}
	s.refresh(ctx, models.TypePage, loc, p.Slug, models.FormatJSON)
	s.notify(models.ChangeSaved, models.TypePage, loc, p.Slug)
	return nil
}

// DeletePage removes a page.
func (s *Service) DeletePage(ctx context.Context, slug, loc string) error {
	if !s.resolver.DeletePage(ctx, slug, loc) {
		return notFound("page", slug)
	}
	s.refresh(ctx, models.TypePage, loc, slug, models.FormatJSON)
	s.notify(models.ChangeDeleted, models.TypePage, loc, slug)
	return nil
}

// GetCategory resolves a category through the locale chain.
func (s *Service) GetCategory(ctx context.Context, slug, loc string) (content.Resolved[models.Category], error) {
	r, ok := s.resolver.ResolveCategory(ctx, slug, loc)
	if !ok {
		return r, notFound("category", slug)
	}
	return r, nil
}

// ListCategories lists the categories of one locale.
func (s *Service) ListCategories(ctx context.Context, loc string) []content.Resolved[models.Category] {
	return s.resolver.GetAllCategories(ctx, loc)
}

// SaveCategory stores a category.
func (s *Service) SaveCategory(ctx context.Context, loc string, c *models.Category) error {
	if err := s.resolver.SaveCategory(ctx, loc, c); err != nil {
		return err
	}
	s.notify(models.ChangeSaved, models.TypeCategory, loc, c.Slug)
	return nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, slug, loc string) error {
	if !s.resolver.DeleteCategory(ctx, slug, loc) {
		return notFound("category", slug)
	}
	s.notify(models.ChangeDeleted, models.TypeCategory, loc, slug)
	return nil
}

// GetTag resolves a tag through the locale chain.
func (s *Service) GetTag(ctx context.Context, slug, loc string) (content.Resolved[models.Tag], error) {
	r, ok := s.resolver.ResolveTag(ctx, slug, loc)
	if !ok {
		return r, notFound("tag", slug)
	}
	return r, nil
}

// ListTags lists the tags of one locale.
func (s *Service) ListTags(ctx context.Context, loc string) []content.Resolved[models.Tag] {
	return s.resolver.GetAllTags(ctx, loc)
}

// SaveTag stores a tag.
func (s *Service) SaveTag(ctx context.Context, loc string, t *models.Tag) error {
	if err := s.resolver.SaveTag(ctx, loc, t); err != nil {
		return err
	}
	s.notify(models.ChangeSaved, models.TypeTag, loc, t.Slug)
	return nil
}

// DeleteTag removes a tag.
func (s *Service) DeleteTag(ctx context.Context, slug, loc string) error {
	if !s.resolver.DeleteTag(ctx, slug, loc) {
		return notFound("tag", slug)
	}
	s.notify(models.ChangeDeleted, models.TypeTag, loc, slug)
	return nil
}

// Reindex brings the search index in line with storage. It is a no-op when
// the service runs without an index.
func (s *Service) Reindex(ctx context.Context) (index.Stats, error) {
	if s.db == nil {
		return index.Stats{}, nil
	}
	return index.Sync(ctx, s.db, s.Source(), s.logger)
}

// Source describes the content the index mirrors.
func (s *Service) Source() index.Source {
	site := s.resolver.Site()
	return index.Source{Store: s.store, Locales: locale.Enabled(site)}
}

func (s *Service) refresh(ctx context.Context, typ models.ContentType, loc, slug string, format models.Format) {
	if s.db == nil {
		return
	}
	if err := index.Refresh(ctx, s.db, s.store, typ, loc, slug, format); err != nil {
		s.logger.Warn("index refresh failed",
			slog.String("key", content.Key(typ, loc, slug, format)),
			slog.String("error", err.Error()))
	}
}

func (s *Service) notify(op string, kind models.ContentType, loc, slug string) {
	if s.notifier != nil {
		s.notifier.Notify(models.Change{Op: op, Kind: kind, Locale: loc, Slug: slug})
	}
}

func notFound(kind, slug string) error {
	return fmt.Errorf("contentservice: %s %q: %w", kind, slug, apperr.ErrNotFound)
}
