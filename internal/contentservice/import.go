package contentservice

import (
	"context"
	"fmt"

	"github.com/starford/folio/internal/models"
)

// Bundle is a batch of entities imported into one locale.
type Bundle struct {
	Locale     string            `json:"locale"`
	Format     string            `json:"format"`
	Categories []models.Category `json:"categories"`
	Tags       []models.Tag      `json:"tags"`
	Posts      []models.Post     `json:"posts"`
	Pages      []models.Page     `json:"pages"`
}

// Report summarises an import. Errors holds one message per rejected item.
type Report struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

func (r *Report) record(kind string, i int, slug string, err error) {
	if err == nil {
		r.Imported++
		return
	}
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("%s[%d] %q: %v", kind, i, slug, err))
}

// Import saves every entity of b. A rejected item is reported and the rest of
// the batch continues. Posts are written in b.Format (JSON unless Markdown is
// requested).
func (s *Service) Import(ctx context.Context, b Bundle) Report {
	rep := Report{Errors: []string{}}
	format := models.ParseFormat(b.Format)
	for i := range b.Categories {
		c := b.Categories[i]
		rep.record("category", i, c.Slug, s.SaveCategory(ctx, b.Locale, &c))
	}
	for i := range b.Tags {
		t := b.Tags[i]
		rep.record("tag", i, t.Slug, s.SaveTag(ctx, b.Locale, &t))
	}
	for i := range b.Posts {
		p := b.Posts[i]
		rep.record("post", i, p.Slug, s.SavePost(ctx, b.Locale, &p, format))
	}
	for i := range b.Pages {
		p := b.Pages[i]
		rep.record("page", i, p.Slug, s.SavePage(ctx, b.Locale, &p))
	}
	return rep
}
