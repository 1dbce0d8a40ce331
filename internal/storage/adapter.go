package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/starford/folio/internal/apperr"
)

const defaultRemoteTimeout = 3 * time.Second

// Result is the outcome of a single lookup. Cause carries the last failure seen
// (a miss or a backend error) when Found is false.
type Result struct {
	Value  []byte
	Found  bool
	Source string
	Cause  error
}

// Adapter implements Store over the local file store, optionally fronted by a
// remote backend. With a remote configured every operation targets it first and
// falls through to the local store on a miss or any error.
type Adapter struct {
	local   Backend
	remote  Backend
	timeout time.Duration
	logger  *slog.Logger
}

var _ Store = (*Adapter)(nil)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithRemote fronts the local store with a remote backend.
func WithRemote(b Backend) AdapterOption {
	return func(a *Adapter) {
		a.remote = b
	}
}

// WithRemoteTimeout bounds every remote call.
func WithRemoteTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger used to report failures.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter creates an Adapter over the given local backend.
func NewAdapter(local Backend, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		local:   local,
		timeout: defaultRemoteTimeout,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Open builds the Adapter described by cfg. The backend choice is made here,
// once; changing it requires a restart.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	local, err := NewFS(cfg.Local.Root)
	if err != nil {
		return nil, err
	}
	opts := []AdapterOption{WithLogger(logger), WithRemoteTimeout(cfg.Remote.Timeout)}

	if cfg.RemoteEnabled() {
		var remote Backend
		switch cfg.Remote.Driver {
		case DriverRedis:
			r, err := NewRedis(cfg.Remote.Redis)
			if err != nil {
				return nil, err
			}
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := r.Ping(pingCtx); err != nil {
				logger.Warn("storage: redis unreachable at startup, reads will fall through to local",
					slog.String("error", err.Error()))
			}
			cancel()
			remote = r
		case DriverS3:
			s, err := NewS3(ctx, cfg.Remote.S3)
			if err != nil {
				return nil, err
			}
			remote = s
		default:
			return nil, fmt.Errorf("storage: unknown remote driver %q", cfg.Remote.Driver)
		}
		opts = append(opts, WithRemote(remote))
	}

	a := NewAdapter(local, opts...)
	logger.Info("storage: opened",
		slog.String("local_root", local.Root()),
		slog.String("remote", a.RemoteName()))
	return a, nil
}

// RemoteName returns the name of the remote backend, or "none".
func (a *Adapter) RemoteName() string {
	if a.remote == nil {
		return "none"
	}
	return a.remote.Name()
}

// Local returns the local backend.
func (a *Adapter) Local() Backend { return a.local }

// Close releases the remote backend's resources, if it holds any.
func (a *Adapter) Close() error {
	if c, ok := a.remote.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *Adapter) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout)
}

// Lookup reads key, trying the remote backend first when configured.
func (a *Adapter) Lookup(ctx context.Context, key string) Result {
	var cause error
	if a.remote != nil {
		rctx, cancel := a.remoteCtx(ctx)
		v, err := a.remote.Get(rctx, key)
		cancel()
		if err == nil {
			return Result{Value: v, Found: true, Source: a.remote.Name()}
		}
		a.report("get", a.remote.Name(), key, err)
		cause = err
	}
	v, err := a.local.Get(ctx, key)
	if err == nil {
		return Result{Value: v, Found: true, Source: a.local.Name()}
	}
	a.report("get", a.local.Name(), key, err)
	if cause == nil || !errors.Is(err, apperr.ErrNotFound) {
		cause = err
	}
	return Result{Cause: cause}
}

// Get implements Store.
func (a *Adapter) Get(ctx context.Context, key string) ([]byte, bool) {
	r := a.Lookup(ctx, key)
	return r.Value, r.Found
}

// Set implements Store.
func (a *Adapter) Set(ctx context.Context, key string, value []byte) bool {
	if a.remote != nil {
		rctx, cancel := a.remoteCtx(ctx)
		err := a.remote.Set(rctx, key, value)
		cancel()
		if err == nil {
			return true
		}
		a.report("set", a.remote.Name(), key, err)
	}
	if err := a.local.Set(ctx, key, value); err != nil {
		a.report("set", a.local.Name(), key, err)
		return false
	}
	return true
}

// Delete implements Store.
func (a *Adapter) Delete(ctx context.Context, key string) bool {
	if a.remote != nil {
		rctx, cancel := a.remoteCtx(ctx)
		err := a.remote.Delete(rctx, key)
		cancel()
		if err == nil {
			return true
		}
		a.report("delete", a.remote.Name(), key, err)
	}
	if err := a.local.Delete(ctx, key); err != nil {
		a.report("delete", a.local.Name(), key, err)
		return false
	}
	return true
}

// List implements Store. An empty remote listing falls through to the local store.
func (a *Adapter) List(ctx context.Context, prefix string) []string {
	if a.remote != nil {
		rctx, cancel := a.remoteCtx(ctx)
		names, err := a.remote.List(rctx, prefix)
		cancel()
		if err == nil && len(names) > 0 {
			return names
		}
		if err != nil {
			a.report("list", a.remote.Name(), prefix, err)
		}
	}
	names, err := a.local.List(ctx, prefix)
	if err != nil {
		a.report("list", a.local.Name(), prefix, err)
		return []string{}
	}
	return names
}

// Exists implements Store.
func (a *Adapter) Exists(ctx context.Context, key string) bool {
	if a.remote != nil {
		rctx, cancel := a.remoteCtx(ctx)
		ok, err := a.remote.Exists(rctx, key)
		cancel()
		if err == nil && ok {
			return true
		}
		if err != nil {
			a.report("exists", a.remote.Name(), key, err)
		}
	}
	ok, err := a.local.Exists(ctx, key)
	if err != nil {
		a.report("exists", a.local.Name(), key, err)
		return false
	}
	return ok
}

// report logs a backend failure. Misses are routine and logged at debug.
func (a *Adapter) report(op, backend, key string, err error) {
	attrs := []any{
		slog.String("op", op),
		slog.String("backend", backend),
		slog.String("key", key),
		slog.String("error", err.Error()),
	}
	if errors.Is(err, apperr.ErrNotFound) {
		a.logger.Debug("storage: miss", attrs...)
		return
	}
	a.logger.Warn("storage: backend failure", attrs...)
}
