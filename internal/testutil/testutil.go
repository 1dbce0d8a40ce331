// Package testutil provides shared test helpers for setting up content stores and index databases.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// Now is the fixed clock used by fixtures.
var Now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock returns Now.
func Clock() time.Time { return Now }

// Site returns a site with English (default) and German enabled and French disabled.
func Site() models.SiteConfig {
	return models.SiteConfig{
		Locales: []models.Locale{
			{Code: "en", Name: "English", Enabled: true},
			{Code: "de", Name: "Deutsch", Enabled: true},
			{Code: "fr", Name: "Français", Enabled: false},
		},
		DefaultLocale: "en",
	}
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary content root with a local-only storage adapter.
func TestStore(t *testing.T) (string, *storage.Adapter) {
	t.Helper()
	root := t.TempDir()
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, storage.NewAdapter(fs, storage.WithLogger(Logger()))
}

// Seed writes files (key → content) into store.
func Seed(t *testing.T, store storage.Store, files map[string]string) {
	t.Helper()
	for key, value := range files {
		if !store.Set(context.Background(), key, []byte(value)) {
			t.Fatalf("seed %s failed", key)
		}
	}
}
