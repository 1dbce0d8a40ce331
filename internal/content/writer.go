package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// SavePost validates p, assigns an ID when it has none, and stores it under loc
// in the requested format. The caller's post is updated with the assigned ID.
func (r *Resolver) SavePost(ctx context.Context, loc string, p *models.Post, format models.Format) error {
	if err := ValidatePost(p); err != nil {
		return err
	}
	if format != models.FormatMarkdown {
		format = models.FormatJSON
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	data, err := EncodePost(p, format)
	if err != nil {
		return err
	}
	return r.write(ctx, Key(models.TypePost, loc, p.Slug, format), data)
}

// SavePage validates and stores a page as JSON.
func (r *Resolver) SavePage(ctx context.Context, loc string, p *models.Page) error {
	if err := ValidatePage(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.saveJSON(ctx, Key(models.TypePage, loc, p.Slug, models.FormatJSON), p)
}

// SaveCategory validates and stores a category as JSON.
func (r *Resolver) SaveCategory(ctx context.Context, loc string, c *models.Category) error {
	if err := ValidateCategory(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return r.saveJSON(ctx, Key(models.TypeCategory, loc, c.Slug, models.FormatJSON), c)
}

// SaveTag validates and stores a tag as JSON.
func (r *Resolver) SaveTag(ctx context.Context, loc string, t *models.Tag) error {
	if err := ValidateTag(t); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return r.saveJSON(ctx, Key(models.TypeTag, loc, t.Slug, models.FormatJSON), t)
}

// DeletePost removes every stored format of the post. It reports whether at
// least one of them was removed.
func (r *Resolver) DeletePost(ctx context.Context, slug, loc string) bool {
	if !ValidSlug(slug) {
		return false
	}
	deleted := false
	for _, f := range postFormats {
		if r.store.Delete(ctx, Key(models.TypePost, loc, slug, f)) {
			deleted = true
		}
	}
	return deleted
}

// DeletePage removes a page.
func (r *Resolver) DeletePage(ctx context.Context, slug, loc string) bool {
	return r.deleteJSON(ctx, models.TypePage, slug, loc)
}

// DeleteCategory removes a category.
func (r *Resolver) DeleteCategory(ctx context.Context, slug, loc string) bool {
	return r.deleteJSON(ctx, models.TypeCategory, slug, loc)
}

// DeleteTag removes a tag.
func (r *Resolver) DeleteTag(ctx context.Context, slug, loc string) bool {
	return r.deleteJSON(ctx, models.TypeTag, slug, loc)
}

func (r *Resolver) deleteJSON(ctx context.Context, typ models.ContentType, slug, loc string) bool {
	if !ValidSlug(slug) {
		return false
	}
	return r.store.Delete(ctx, Key(typ, loc, slug, models.FormatJSON))
}

func (r *Resolver) saveJSON(ctx context.Context, key string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return r.write(ctx, key, data)
}

func (r *Resolver) write(ctx context.Context, key string, data []byte) error {
	if !r.store.Set(ctx, key, data) {
		return fmt.Errorf("content: save %s: %w", key, apperr.ErrWriteFailed)
	}
	return nil
}
