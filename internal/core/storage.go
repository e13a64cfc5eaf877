package core

import (
	"context"
	"fmt"
	"os"

	"github.com/carrotIndustries/horizon/internal/infra/persistence/memory"
	"github.com/carrotIndustries/horizon/internal/infra/persistence/postgres"
	"github.com/carrotIndustries/horizon/internal/infra/persistence/sqlite"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

// StorageDriver identifies a document repository implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenDocumentRepository selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	HORIZON_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	HORIZON_SQLITE_PATH: path to sqlite file (default ./horizon.db)
//	HORIZON_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenDocumentRepository() (domain.DocumentRepository, error) {
	driver := os.Getenv("HORIZON_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewRepository(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("HORIZON_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("HORIZON_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// Save writes the live document to repo under name and clears the
// needs-save flag.
func (c *Core) Save(ctx context.Context, repo domain.DocumentRepository, name string) error {
	if c.tool != nil {
		return fmt.Errorf("save %s: tool %s is active", name, c.toolID)
	}
	if err := repo.SaveDocument(ctx, name, c.store.ExportState()); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	c.logger.Info("document saved", "name", name)
	c.SetNeedsSave(false)
	return nil
}

// Load replaces the live document with the one stored under name. History
// restarts with the loaded state as its only entry.
func (c *Core) Load(ctx context.Context, repo domain.DocumentRepository, name string) error {
	if c.tool != nil {
		return fmt.Errorf("load %s: tool %s is active", name, c.toolID)
	}
	snap, err := repo.LoadDocument(ctx, name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	c.store.ImportState(snap)
	c.selection = domain.NewSelection()
	c.HistoryClear()
	c.reverted = false
	if _, err := c.Rebuild(false); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	c.logger.Info("document loaded", "name", name)
	c.SetNeedsSave(false)
	return nil
}
