// Package locale builds the ordered locale fallback chain used to resolve content.
package locale

import "github.com/starford/folio/internal/models"

// Legacy is the chain entry for locale-less storage paths.
const Legacy = ""

// Chain returns the ordered, de-duplicated list of locales to try for a read:
// the preferred locale when enabled, then the default locale, then every other
// enabled locale in configuration order, then Legacy.
func Chain(site models.SiteConfig, preferred string) []string {
	out := make([]string, 0, len(site.Locales)+2)
	seen := make(map[string]struct{}, len(site.Locales)+2)
	add := func(code string) {
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	if preferred != "" && site.IsEnabled(preferred) {
		add(preferred)
	}
	add(site.DefaultLocale)
	for _, l := range site.Locales {
		if l.Enabled {
			add(l.Code)
		}
	}
	return append(out, Legacy)
}

// Enabled returns the codes of all enabled locales in configuration order.
func Enabled(site models.SiteConfig) []string {
	out := make([]string, 0, len(site.Locales))
	for _, l := range site.Locales {
		if l.Enabled {
			out = append(out, l.Code)
		}
	}
	return out
}
