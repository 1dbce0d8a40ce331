package index

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// indexed lists the content types mirrored by the index and their formats.
var indexed = []struct {
	typ     models.ContentType
	formats []models.Format
}{
	{models.TypePost, []models.Format{models.FormatMarkdown, models.FormatJSON}},
	{models.TypePage, []models.Format{models.FormatJSON}},
}

// Source is the content the index mirrors: a store and the locales to scan.
// The legacy locale-less layout is always scanned as well.
type Source struct {
	Store   storage.Store
	Locales []string
}

// Stats summarises one Sync pass.
type Stats struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Skipped   int `json:"skipped"`
}

// Sync walks the source and brings the index up to date:
//   - new or changed files are decoded and upserted
//   - undecodable files are skipped and dropped from the index
//   - files no longer in storage are deleted from the index
func Sync(ctx context.Context, db *DB, src Source, logger *slog.Logger) (Stats, error) {
	var st Stats
	checksums, err := db.Checksums(ctx)
	if err != nil {
		return st, err
	}

	seen := make(map[string]struct{}, len(checksums))
	locales := append(append([]string{}, src.Locales...), "")
	for _, it := range indexed {
		for _, loc := range locales {
			prefix := content.Prefix(it.typ, loc)
			for _, name := range src.Store.List(ctx, prefix) {
				if err := ctx.Err(); err != nil {
					return st, err
				}
				format, slug, ok := splitName(name, it.formats)
				if !ok {
					continue
				}
				key := prefix + "/" + name
				data, ok := src.Store.Get(ctx, key)
				if !ok {
					continue
				}
				cs := Checksum(data)
				if checksums[key] == cs {
					seen[key] = struct{}{}
					st.Unchanged++
					continue
				}
				e, err := decodeEntry(it.typ, loc, slug, format, data)
				if err != nil {
					logger.Warn("sync: decode failed", slog.String("key", key), slog.String("error", err.Error()))
					st.Skipped++
					continue
				}
				e.Key, e.Checksum = key, cs
				if err := db.Upsert(ctx, e); err != nil {
					logger.Warn("sync: index failed", slog.String("key", key), slog.String("error", err.Error()))
					continue
				}
				seen[key] = struct{}{}
				st.Indexed++
				logger.Debug("sync: indexed", slog.String("key", key))
			}
		}
	}

	for key := range checksums {
		if _, ok := seen[key]; ok {
			continue
		}
		if err := db.Delete(ctx, key); err != nil {
			logger.Warn("sync: delete failed", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}
		st.Removed++
		logger.Debug("sync: removed stale", slog.String("key", key))
	}
	return st, nil
}

func splitName(name string, formats []models.Format) (models.Format, string, bool) {
	ext := path.Ext(name)
	if ext == "" {
		return "", "", false
	}
	f := models.Format(ext[1:])
	slug := strings.TrimSuffix(name, ext)
	if !content.ValidSlug(slug) {
		return "", "", false
	}
	for _, x := range formats {
		if x == f {
			return f, slug, true
		}
	}
	return "", "", false
}

func decodeEntry(typ models.ContentType, loc, slug string, format models.Format, data []byte) (Entry, error) {
	e := Entry{Kind: typ, Locale: loc, Slug: slug, Format: format}
	switch typ {
	case models.TypePost:
		p, err := content.DecodePost(data, format)
		if err != nil {
			return e, err
		}
		e.ID, e.Title, e.Body, e.Excerpt = p.ID, p.Title, p.Content, p.Excerpt
		e.Status, e.Date, e.ScheduledDate = p.Status, p.Date, p.ScheduledDate
	default:
		p, err := content.DecodePage(data)
		if err != nil {
			return e, err
		}
		e.ID, e.Title, e.Body = p.ID, p.Title, p.Content
	}
	return e, nil
}

// Refresh re-reads a single content file and updates or removes its entry.
// Types the index does not mirror are ignored.
func Refresh(ctx context.Context, db *DB, store storage.Store, typ models.ContentType, loc, slug string, format models.Format) error {
	mirrored := false
	for _, it := range indexed {
		if it.typ == typ {
			mirrored = true
		}
	}
	if !mirrored {
		return nil
	}
	key := content.Key(typ, loc, slug, format)
	data, ok := store.Get(ctx, key)
	if !ok {
		return db.Delete(ctx, key)
	}
	e, err := decodeEntry(typ, loc, slug, format, data)
	if err != nil {
		if delErr := db.Delete(ctx, key); delErr != nil {
			return delErr
		}
		return err
	}
	e.Key, e.Checksum = key, Checksum(data)
	return db.Upsert(ctx, e)
}
