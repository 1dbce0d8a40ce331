// Package apperr holds the error taxonomy shared across folio packages.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound means the entity is absent after the full fallback chain.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps backend I/O failures. They are logged and collapsed at the
	// storage adapter boundary.
	ErrStorage = errors.New("storage failure")
	// ErrDecode wraps malformed JSON or frontmatter payloads.
	ErrDecode = errors.New("decode failure")
	// ErrWriteFailed is returned when every backend refused a write.
	ErrWriteFailed = errors.New("write failed")
)

// ValidationError lists missing or invalid fields of an entity being saved.
type ValidationError struct {
	Fields map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
