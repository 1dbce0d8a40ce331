// Package storage implements the key/value storage adapter used by folio: a local
// hierarchical file store, optional remote key/value backends, and the fallback
// Adapter that composes them.
package storage

import (
	"context"
	"sort"
	"strings"
)

// Store is the contract content code depends on. Implementations never return
// errors: failures are logged and reported as absent, false or empty.
type Store interface {
	// Get returns the value stored at key, or false when it is absent.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set writes value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) bool
	// Delete removes key. It reports false when nothing was removed.
	Delete(ctx context.Context, key string) bool
	// List returns the sorted, de-duplicated immediate child names under prefix.
	List(ctx context.Context, prefix string) []string
	// Exists reports whether a value is stored at key.
	Exists(ctx context.Context, key string) bool
}

// Backend is a single physical store. Misses are reported as errors wrapping
// apperr.ErrNotFound; anything else wraps apperr.ErrStorage.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// cleanKey normalises a logical key: no leading or trailing slashes.
func cleanKey(key string) string {
	return strings.Trim(key, "/")
}

// childNames projects full keys onto the immediate child segment below prefix.
// Keys outside prefix are ignored. The result is sorted and de-duplicated.
func childNames(prefix string, keys []string) []string {
	prefix = cleanKey(prefix)
	if prefix != "" {
		prefix += "/"
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = cleanKey(k)
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		if rest == "" {
			continue
		}
		if _, ok := seen[rest]; ok {
			continue
		}
		seen[rest] = struct{}{}
		out = append(out, rest)
	}
	sort.Strings(out)
	return out
}
