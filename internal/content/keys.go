package content

import (
	"path"
	"strings"

	"github.com/starford/folio/internal/models"
)

// Root is the first segment of every content key.
const Root = "content"

// Prefix returns the key prefix holding entities of typ in locale. An empty
// locale addresses the legacy, locale-less layout.
func Prefix(typ models.ContentType, loc string) string {
	if loc == "" {
		return Root + "/" + string(typ)
	}
	return Root + "/" + string(typ) + "/" + loc
}

// Key returns the storage key of one entity in one format, e.g.
// content/posts/en/hello-world.md.
func Key(typ models.ContentType, loc, slug string, format models.Format) string {
	return Prefix(typ, loc) + "/" + slug + "." + string(format)
}

// ValidSlug reports whether slug is safe to embed in a key.
func ValidSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`)
}

// slugsFromNames turns a directory listing into slugs, keeping listing order
// and collapsing the formats of one slug into a single entry.
func slugsFromNames(names []string, formats []models.Format) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		ext := path.Ext(name)
		if ext == "" || !hasFormat(formats, models.Format(ext[1:])) {
			continue
		}
		slug := strings.TrimSuffix(name, ext)
		if !ValidSlug(slug) {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

func hasFormat(formats []models.Format, f models.Format) bool {
	for _, x := range formats {
		if x == f {
			return true
		}
	}
	return false
}
