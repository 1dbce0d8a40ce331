package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/folio/internal/apperr"
)

// memBackend is an in-memory Backend with switchable failure.
type memBackend struct {
	mu    sync.Mutex
	data  map[string][]byte
	fail  bool
	calls int
}

func newMem() *memBackend { return &memBackend{data: map[string][]byte{}} }

func (m *memBackend) Name() string { return "mem" }

func (m *memBackend) down() error {
	m.calls++
	if m.fail {
		return fmt.Errorf("mem: connection refused: %w", apperr.ErrStorage)
	}
	return nil
}

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.down(); err != nil {
		return nil, err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.down(); err != nil {
		return err
	}
	m.data[key] = value
	return nil
}

func (m *memBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.down(); err != nil {
		return err
	}
	if _, ok := m.data[key]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *memBackend) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.down(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return childNames(prefix, keys), nil
}

func (m *memBackend) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.down(); err != nil {
		return false, err
	}
	_, ok := m.data[key]
	return ok, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAdapter(t *testing.T) (*Adapter, *memBackend, *FS) {
	t.Helper()
	local := tempRoot(t)
	remote := newMem()
	return NewAdapter(local, WithRemote(remote), WithLogger(quietLogger())), remote, local
}

func TestAdapter_RemoteMissFallsBackToLocal(t *testing.T) {
	a, _, local := testAdapter(t)
	ctx := context.Background()
	_ = local.Set(ctx, "content/posts/en/a.json", []byte("local"))

	got, ok := a.Get(ctx, "content/posts/en/a.json")
	if !ok || string(got) != "local" {
		t.Fatalf("Get = %q, %v; want local file contents", got, ok)
	}
}

func TestAdapter_RemoteHitWins(t *testing.T) {
	a, remote, local := testAdapter(t)
	ctx := context.Background()
	remote.data["k.json"] = []byte("remote")
	_ = local.Set(ctx, "k.json", []byte("local"))

	r := a.Lookup(ctx, "k.json")
	if !r.Found || string(r.Value) != "remote" || r.Source != "mem" {
		t.Fatalf("Lookup = %+v, want remote hit", r)
	}
}

func TestAdapter_RemoteErrorFallsThrough(t *testing.T) {
	a, remote, local := testAdapter(t)
	ctx := context.Background()
	remote.fail = true
	_ = local.Set(ctx, "k.json", []byte("local"))

	if got, ok := a.Get(ctx, "k.json"); !ok || string(got) != "local" {
		t.Errorf("Get with remote down = %q, %v", got, ok)
	}
	if !a.Set(ctx, "w.json", []byte("x")) {
		t.Error("Set should fall through to local")
	}
	if ok, _ := local.Exists(ctx, "w.json"); !ok {
		t.Error("write did not land in local store")
	}
	if !a.Exists(ctx, "w.json") {
		t.Error("Exists should fall through to local")
	}
	if got := a.List(ctx, ""); !cmp.Equal(got, []string{"k.json", "w.json"}) {
		t.Errorf("List = %v", got)
	}
	if !a.Delete(ctx, "w.json") {
		t.Error("Delete should fall through to local")
	}
}

func TestAdapter_BothMiss(t *testing.T) {
	a, _, _ := testAdapter(t)
	ctx := context.Background()

	r := a.Lookup(ctx, "missing.json")
	if r.Found {
		t.Fatal("expected miss")
	}
	if !errors.Is(r.Cause, apperr.ErrNotFound) {
		t.Errorf("cause = %v, want ErrNotFound", r.Cause)
	}
	if got := a.List(ctx, "content/posts"); len(got) != 0 {
		t.Errorf("List = %v, want empty", got)
	}
	if a.Delete(ctx, "missing.json") {
		t.Error("Delete of missing key should report false")
	}
}

func TestAdapter_FailureCauseSurvivesLocalMiss(t *testing.T) {
	a, remote, _ := testAdapter(t)
	remote.fail = true
	r := a.Lookup(context.Background(), "missing.json")
	if r.Found {
		t.Fatal("expected miss")
	}
	if !errors.Is(r.Cause, apperr.ErrStorage) {
		t.Errorf("cause = %v, want ErrStorage from the remote", r.Cause)
	}
}

func TestAdapter_LocalOnly(t *testing.T) {
	local := tempRoot(t)
	a := NewAdapter(local, WithLogger(quietLogger()))
	ctx := context.Background()
	if a.RemoteName() != "none" {
		t.Errorf("RemoteName = %q", a.RemoteName())
	}
	if !a.Set(ctx, "content/pages/a.json", []byte("{}")) {
		t.Fatal("Set failed")
	}
	if got, ok := a.Get(ctx, "content/pages/a.json"); !ok || string(got) != "{}" {
		t.Errorf("Get = %q, %v", got, ok)
	}
}

func TestOpen_LocalBackend(t *testing.T) {
	cfg := Config{Backend: BackendLocal, Local: LocalConfig{Root: t.TempDir()}}
	a, err := Open(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.RemoteName() != "none" {
		t.Errorf("RemoteName = %q, want none", a.RemoteName())
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"local", Config{Backend: BackendLocal, Local: LocalConfig{Root: "./data"}}, false},
		{"unknown backend", Config{Backend: "ftp", Local: LocalConfig{Root: "./data"}}, true},
		{"missing root", Config{Backend: BackendLocal}, true},
		{"redis without url", Config{Backend: BackendRemote, Local: LocalConfig{Root: "d"}, Remote: RemoteConfig{Driver: DriverRedis}}, true},
		{"redis", Config{Backend: BackendRemote, Local: LocalConfig{Root: "d"}, Remote: RemoteConfig{Driver: DriverRedis, Redis: RedisConfig{URL: "redis://localhost:6379/0"}}}, false},
		{"s3 without bucket", Config{Backend: BackendRemote, Local: LocalConfig{Root: "d"}, Remote: RemoteConfig{Driver: DriverS3}}, true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}
