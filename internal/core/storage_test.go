package core

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/carrotIndustries/horizon/internal/infra/persistence/memory"
	"github.com/carrotIndustries/horizon/internal/infra/persistence/postgres"
	"github.com/carrotIndustries/horizon/internal/infra/persistence/postgres/testutil"
	"github.com/carrotIndustries/horizon/internal/infra/persistence/sqlite"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

func withEnv(key, value string, fn func()) {
	orig, had := os.LookupEnv(key)
	if value == "" {
		_ = os.Unsetenv(key)
	} else {
		_ = os.Setenv(key, value)
	}
	defer func() {
		if had {
			_ = os.Setenv(key, orig)
		} else {
			_ = os.Unsetenv(key)
		}
	}()
	fn()
}

func TestOpenDocumentRepository_Memory(t *testing.T) {
	withEnv("HORIZON_STORAGE_DRIVER", "memory", func() {
		repo, err := OpenDocumentRepository()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := repo.(*memory.Repository); !ok {
			t.Fatalf("expected *memory.Repository, got %T", repo)
		}
	})
}

func TestOpenDocumentRepository_SQLitePath(t *testing.T) {
	withEnv("HORIZON_STORAGE_DRIVER", "", func() {
		path := filepath.Join(t.TempDir(), "nested", "doc.db")
		withEnv("HORIZON_SQLITE_PATH", path, func() {
			repo, err := OpenDocumentRepository()
			if err != nil {
				t.Skipf("sqlite unavailable: %v", err)
			}
			defer func() { _ = repo.Close() }()
			s, ok := repo.(*sqlite.Store)
			if !ok {
				t.Fatalf("expected *sqlite.Store by default, got %T", repo)
			}
			if s.Path() != path {
				t.Fatalf("expected path %s, got %s", path, s.Path())
			}
		})
	})
}

func TestOpenDocumentRepository_Postgres(t *testing.T) {
	db, conn := testutil.NewStubDB()
	var gotDSN string
	restore := postgres.OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	})
	defer restore()
	withEnv("HORIZON_STORAGE_DRIVER", "postgres", func() {
		withEnv("HORIZON_POSTGRES_DSN", "postgres://cad@db/horizon", func() {
			repo, err := OpenDocumentRepository()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, ok := repo.(*postgres.Store); !ok {
				t.Fatalf("expected *postgres.Store, got %T", repo)
			}
		})
	})
	if gotDSN != "postgres://cad@db/horizon" {
		t.Fatalf("dsn not passed through: %q", gotDSN)
	}
	if len(conn.Execs) == 0 {
		t.Fatalf("expected schema statement")
	}
}

func TestOpenDocumentRepository_UnknownDriver(t *testing.T) {
	withEnv("HORIZON_STORAGE_DRIVER", "gibberish", func() {
		repo, err := OpenDocumentRepository()
		if err == nil || repo != nil {
			t.Fatalf("expected error for unknown driver, got repo=%v err=%v", repo, err)
		}
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	logger := &captureLogger{}
	c := newTestCore(t, EditorPackage, WithLogger(logger))
	c.ToolBegin(ToolDrawLineRectangle, beginAt(0, 0), nil, false)
	c.ToolUpdate(click(ButtonPrimary, 0, 0))
	c.ToolUpdate(click(ButtonPrimary, 10, 10))
	if !c.NeedsSave() {
		t.Fatalf("expected needs-save after rectangle")
	}
	want := mustMarshal(t, c)
	if err := c.Save(ctx, repo, "pkg"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.NeedsSave() {
		t.Fatalf("save should clear needs-save")
	}
	if _, ok := logger.find("info", "document saved"); !ok {
		t.Fatalf("save not logged")
	}

	other := newTestCore(t, EditorPackage)
	mustJunction(t, other, domain.ScopeDocument, pt(99, 99))
	other.SetSelection(domain.NewSelection(domain.Ref(domain.ObjectJunction, newID())))
	if err := other.Load(ctx, repo, "pkg"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := mustMarshal(t, other); string(got) != string(want) {
		t.Fatalf("loaded document differs:\n%s\n%s", got, want)
	}
	if len(other.History()) != 1 || other.CanUndo() || other.Selection().Len() != 0 {
		t.Fatalf("load should restart history and clear the selection")
	}
}

func TestLoadMissingDocument(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	err := c.Load(context.Background(), memory.NewRepository(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSaveRejectedWhileToolActive(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	c.ToolBegin(ToolPlaceJunction, beginAt(0, 0), nil, false)
	if err := c.Save(context.Background(), memory.NewRepository(), "doc"); err == nil {
		t.Fatalf("expected save to fail while a tool is active")
	}
	if err := c.Load(context.Background(), memory.NewRepository(), "doc"); err == nil {
		t.Fatalf("expected load to fail while a tool is active")
	}
}
