package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/carrotIndustries/horizon/internal/blob"
	"github.com/carrotIndustries/horizon/internal/core"
	"github.com/carrotIndustries/horizon/internal/settings"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

// loadPool reads a JSON pool file. An empty path yields an empty pool.
func loadPool(path string) (core.Pool, error) {
	if path == "" {
		return core.NewMemoryPool(nil, nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	defer func() { _ = f.Close() }()
	return core.LoadMemoryPool(f)
}

// openRepository returns nil without a document name: the session then
// edits a scratch document.
func openRepository(doc string) (domain.DocumentRepository, error) {
	if doc == "" {
		return nil, nil
	}
	repo, err := core.OpenDocumentRepository()
	if err != nil {
		return nil, fmt.Errorf("open document repository: %w", err)
	}
	return repo, nil
}

// openSettings loads tool settings from the configured blob store. Invalid
// documents are logged and skipped.
func openSettings(ctx context.Context, logger core.Logger) (*settings.Store, error) {
	blobs, err := blob.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	st := settings.New(blobs)
	if err := st.Load(ctx); err != nil {
		logger.Warn("load tool settings", "driver", string(blobs.Driver()), "error", err)
	}
	return st, nil
}

// newSession builds a core for kind and records its initial state, loading
// doc from repo first when both are set. A missing document starts empty.
func newSession(ctx context.Context, kind core.EditorKind, repo domain.DocumentRepository, doc string, opts ...core.Option) (*core.Core, error) {
	c := core.NewCore(kind, opts...)
	if repo != nil && doc != "" {
		err := c.Load(ctx, repo, doc)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, err
		}
	}
	if _, err := c.Rebuild(false); err != nil {
		return nil, fmt.Errorf("initial rebuild: %w", err)
	}
	return c, nil
}
