package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/storage"
)

// components are the long-lived dependencies shared by every command.
type components struct {
	store *storage.Adapter
	db    *index.DB
	svc   *contentservice.Service
}

// openComponents opens storage and, when enabled, the index, and builds the
// content service on top of them. notifier may be nil.
func openComponents(ctx context.Context, cfg *Config, logger *slog.Logger, notifier contentservice.Notifier) (*components, error) {
	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	c := &components{store: store}

	resolver := content.NewResolver(store, cfg.Site.SiteConfig, content.WithLogger(logger))

	svcOpts := []contentservice.Option{
		contentservice.WithLogger(logger),
		contentservice.WithEngine(search.Engine{Limit: cfg.Search.MaxResults}),
	}
	if notifier != nil {
		svcOpts = append(svcOpts, contentservice.WithNotifier(notifier))
	}

	if cfg.Index.Enabled {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init index: %w", err)
		}
		c.db = db
		svcOpts = append(svcOpts, contentservice.WithIndex(db))
	}

	c.svc = contentservice.New(resolver, store, svcOpts...)
	return c, nil
}

func (c *components) Close() error {
	var err error
	if c.db != nil {
		err = c.db.Close()
	}
	if cerr := c.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
