package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/starford/folio/internal/apperr"
)

func testRedis(t *testing.T, keyPrefix string) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), keyPrefix)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedis_SetAndGet(t *testing.T) {
	r, mr := testRedis(t, "folio")
	ctx := context.Background()

	if err := r.Set(ctx, "content/posts/en/a.json", []byte(`{"title":"A"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := mr.Get("folio/content/posts/en/a.json"); err != nil || got != `{"title":"A"}` {
		t.Errorf("raw value = %q, %v", got, err)
	}
	got, err := r.Get(ctx, "/content/posts/en/a.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"title":"A"}` {
		t.Errorf("Get = %q", got)
	}
	if ok, err := r.Exists(ctx, "content/posts/en/a.json"); err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}

func TestRedis_GetMissIsNotFound(t *testing.T) {
	r, _ := testRedis(t, "")
	_, err := r.Get(context.Background(), "content/posts/en/missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, apperr.ErrStorage) {
		t.Error("a miss must not be reported as a storage failure")
	}
}

func TestRedis_DeleteMissingIsNotFound(t *testing.T) {
	r, _ := testRedis(t, "folio")
	ctx := context.Background()

	if err := r.Delete(ctx, "content/tags/en/go.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("delete of missing key: expected ErrNotFound, got %v", err)
	}
	if err := r.Set(ctx, "content/tags/en/go.json", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, "content/tags/en/go.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := r.Exists(ctx, "content/tags/en/go.json"); ok {
		t.Error("key should be gone")
	}
}

func TestRedis_ListProjectsChildrenUnderPrefix(t *testing.T) {
	r, mr := testRedis(t, "folio")
	ctx := context.Background()

	for _, k := range []string{
		"content/posts/en/b.md",
		"content/posts/en/a.json",
		"content/posts/en/a.md",
		"content/posts/en/drafts/c.md",
		"content/posts/de/x.json",
		"content/posts/english.json",
	} {
		if err := r.Set(ctx, k, []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	// Outside the namespace.
	if err := mr.Set("other/content/posts/en/z.md", "v"); err != nil {
		t.Fatal(err)
	}

	got, err := r.List(ctx, "content/posts/en")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"a.json", "a.md", "b.md", "drafts"}, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	got, err = r.List(ctx, "content/posts/fr")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List of empty prefix = %v", got)
	}
}

func TestRedis_ServerDownIsStorageError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "")
	t.Cleanup(func() { _ = r.Close() })
	mr.Close()

	_, err = r.Get(context.Background(), "content/posts/en/a.md")
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestAdapter_RedisDeleteMissFallsThroughToLocal(t *testing.T) {
	r, _ := testRedis(t, "folio")
	local := tempRoot(t)
	ctx := context.Background()
	if err := local.Set(ctx, "content/posts/en/old.md", []byte("---\ntitle: Old\n---\n")); err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(local, WithRemote(r), WithLogger(quietLogger()))

	if !a.Delete(ctx, "content/posts/en/old.md") {
		t.Fatal("delete should reach the local store after a remote miss")
	}
	if a.Exists(ctx, "content/posts/en/old.md") {
		t.Error("key should be gone from both stores")
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"content/posts/en", "content/posts/en"},
		{"a*b", `a\*b`},
		{"what?", `what\?`},
		{"[x]", `\[x\]`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeGlob(tt.in); got != tt.want {
			t.Errorf("escapeGlob(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
