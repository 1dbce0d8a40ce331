// Package content resolves, lists and persists folio entities on top of a
// storage.Store, walking the locale fallback chain and the format preference
// (Markdown before JSON for posts).
package content

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/lifecycle"
	"github.com/starford/folio/internal/locale"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

const defaultReadConcurrency = 8

var (
	postFormats = []models.Format{models.FormatMarkdown, models.FormatJSON}
	jsonFormats = []models.Format{models.FormatJSON}
)

// Resolved is an entity together with where it was found.
type Resolved[T any] struct {
	Entity T
	Locale string
	Key    string
	Format models.Format
}

// Resolver reads and writes content entities.
type Resolver struct {
	store       storage.Store
	site        models.SiteConfig
	gate        lifecycle.Gate
	logger      *slog.Logger
	concurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock used by the lifecycle gate.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.gate.Now = now
	}
}

// WithLogger sets the logger used to report decode failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReadConcurrency bounds the number of parallel reads issued by listings.
func WithReadConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewResolver creates a Resolver over store for the given site.
func NewResolver(store storage.Store, site models.SiteConfig, opts ...Option) *Resolver {
	r := &Resolver{
		store:       store,
		site:        site,
		logger:      slog.Default(),
		concurrency: defaultReadConcurrency,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Site returns the site configuration the resolver was built with.
func (r *Resolver) Site() models.SiteConfig { return r.site }

// Gate returns the lifecycle gate applied to posts.
func (r *Resolver) Gate() lifecycle.Gate { return r.gate }

// kind describes how one content type is stored.
type kind[T any] struct {
	typ     models.ContentType
	formats []models.Format
	decode  func(data []byte, format models.Format) (T, error)
	slug    func(*T) *string
}

var (
	postKind = kind[models.Post]{
		typ:     models.TypePost,
		formats: postFormats,
		decode:  DecodePost,
		slug:    func(p *models.Post) *string { return &p.Slug },
	}
	pageKind = kind[models.Page]{
		typ:     models.TypePage,
		formats: jsonFormats,
		decode:  func(b []byte, _ models.Format) (models.Page, error) { return decodeJSON[models.Page](b) },
		slug:    func(p *models.Page) *string { return &p.Slug },
	}
	categoryKind = kind[models.Category]{
		typ:     models.TypeCategory,
		formats: jsonFormats,
		decode:  func(b []byte, _ models.Format) (models.Category, error) { return decodeJSON[models.Category](b) },
		slug:    func(c *models.Category) *string { return &c.Slug },
	}
	tagKind = kind[models.Tag]{
		typ:     models.TypeTag,
		formats: jsonFormats,
		decode:  func(b []byte, _ models.Format) (models.Tag, error) { return decodeJSON[models.Tag](b) },
		slug:    func(t *models.Tag) *string { return &t.Slug },
	}
)

// ResolvePost finds the post with slug, walking the locale chain that starts at
// preferred. A post hidden by the lifecycle gate ends its locale; the next
// locale is tried, never the next format.
func (r *Resolver) ResolvePost(ctx context.Context, slug, preferred string, vis lifecycle.Visibility) (Resolved[models.Post], bool) {
	return resolve(ctx, r, postKind, slug, preferred, r.postFilter(vis))
}

// ResolvePage finds a page by slug.
func (r *Resolver) ResolvePage(ctx context.Context, slug, preferred string) (Resolved[models.Page], bool) {
	return resolve(ctx, r, pageKind, slug, preferred, nil)
}

// ResolveCategory finds a category by slug.
func (r *Resolver) ResolveCategory(ctx context.Context, slug, preferred string) (Resolved[models.Category], bool) {
	return resolve(ctx, r, categoryKind, slug, preferred, nil)
}

// ResolveTag finds a tag by slug.
func (r *Resolver) ResolveTag(ctx context.Context, slug, preferred string) (Resolved[models.Tag], bool) {
	return resolve(ctx, r, tagKind, slug, preferred, nil)
}

// GetAllPosts lists the visible posts stored under loc (the legacy layout when
// loc is empty), newest first.
func (r *Resolver) GetAllPosts(ctx context.Context, loc string, vis lifecycle.Visibility) []Resolved[models.Post] {
	posts := getAll(ctx, r, postKind, loc, r.postFilter(vis))
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Entity.Date.After(posts[j].Entity.Date)
	})
	return posts
}

// GetAllPages lists the pages stored under loc in storage order.
func (r *Resolver) GetAllPages(ctx context.Context, loc string) []Resolved[models.Page] {
	return getAll(ctx, r, pageKind, loc, nil)
}

// GetAllCategories lists the categories stored under loc in storage order.
func (r *Resolver) GetAllCategories(ctx context.Context, loc string) []Resolved[models.Category] {
	return getAll(ctx, r, categoryKind, loc, nil)
}

// GetAllTags lists the tags stored under loc in storage order.
func (r *Resolver) GetAllTags(ctx context.Context, loc string) []Resolved[models.Tag] {
	return getAll(ctx, r, tagKind, loc, nil)
}

func (r *Resolver) postFilter(vis lifecycle.Visibility) func(*models.Post) bool {
	return func(p *models.Post) bool {
		return r.gate.Allows(p, vis)
	}
}

func resolve[T any](ctx context.Context, r *Resolver, k kind[T], slug, preferred string, visible func(*T) bool) (Resolved[T], bool) {
	if !ValidSlug(slug) {
		return Resolved[T]{}, false
	}
	for _, loc := range locale.Chain(r.site, preferred) {
		res, found, hidden := readAt(ctx, r, k, loc, slug, visible)
		if found {
			return res, true
		}
		if hidden {
			r.logger.Debug("content hidden by lifecycle gate",
				slog.String("type", string(k.typ)),
				slog.String("slug", slug),
				slog.String("locale", loc))
		}
	}
	return Resolved[T]{}, false
}

// readAt reads slug from exactly one locale, trying formats in preference
// order. hidden reports that an entity was decoded but rejected by visible.
func readAt[T any](ctx context.Context, r *Resolver, k kind[T], loc, slug string, visible func(*T) bool) (res Resolved[T], found, hidden bool) {
	for _, f := range k.formats {
		key := Key(k.typ, loc, slug, f)
		data, ok := r.store.Get(ctx, key)
		if !ok {
			continue
		}
		ent, err := k.decode(data, f)
		if err != nil {
			r.logger.Warn("skipping undecodable content",
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}
		if s := k.slug(&ent); *s == "" {
			*s = slug
		}
		if visible != nil && !visible(&ent) {
			return Resolved[T]{}, false, true
		}
		return Resolved[T]{Entity: ent, Locale: loc, Key: key, Format: f}, true, false
	}
	return Resolved[T]{}, false, false
}

func getAll[T any](ctx context.Context, r *Resolver, k kind[T], loc string, visible func(*T) bool) []Resolved[T] {
	slugs := slugsFromNames(r.store.List(ctx, Prefix(k.typ, loc)), k.formats)
	results := make([]Resolved[T], len(slugs))
	found := make([]bool, len(slugs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, slug := range slugs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i], found[i], _ = readAt(ctx, r, k, loc, slug, visible)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Resolved[T], 0, len(slugs))
	for i := range results {
		if found[i] {
			out = append(out, results[i])
		}
	}
	return out
}
