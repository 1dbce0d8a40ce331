package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/starford/folio/internal/apperr"
)

// FS implements Backend on the local file system. It is the system of record.
type FS struct {
	root string // absolute path to the content root
}

// NewFS creates an FS backend rooted at the given directory, creating it when missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Name implements Backend.
func (f *FS) Name() string { return "local" }

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// safePath maps a logical key onto the file system and rejects any result
// that escapes the root.
func (f *FS) safePath(key string) (string, error) {
	key = cleanKey(key)
	if key == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s: %w", key, apperr.ErrStorage)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s: %w", key, apperr.ErrStorage)
	}
	return abs, nil
}

// Get reads the file at key.
func (f *FS) Get(_ context.Context, key string) ([]byte, error) {
	abs, err := f.safePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, f.wrap("read", key, err)
	}
	return data, nil
}

// Set atomically replaces the file at key, creating parent directories.
func (f *FS) Set(_ context.Context, key string, value []byte) error {
	abs, err := f.safePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %v: %w", err, apperr.ErrStorage)
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(value)); err != nil {
		return fmt.Errorf("storage: write %s: %v: %w", key, err, apperr.ErrStorage)
	}
	return nil
}

// Delete removes the file at key.
func (f *FS) Delete(_ context.Context, key string) error {
	abs, err := f.safePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return f.wrap("delete", key, err)
	}
	return nil
}

// List returns the names of files and directories directly under prefix.
// A missing directory lists as empty. Hidden entries are skipped.
func (f *FS) List(_ context.Context, prefix string) ([]string, error) {
	abs, err := f.safePath(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("storage: list %s: %v: %w", prefix, err, apperr.ErrStorage)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// Exists reports whether a regular file is stored at key.
func (f *FS) Exists(_ context.Context, key string) (bool, error) {
	abs, err := f.safePath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %v: %w", key, err, apperr.ErrStorage)
	}
	return info.Mode().IsRegular(), nil
}

func (f *FS) wrap(op, key string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: %s %s: %w", op, key, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: %s %s: %v: %w", op, key, err, apperr.ErrStorage)
}
