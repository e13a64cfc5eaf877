// Package sqlite persists documents to a single SQLite table, one row per
// document bucket.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/carrotIndustries/horizon/pkg/domain"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the repository satisfies the domain interface.
var _ domain.DocumentRepository = (*Store)(nil)

// Store is a SQLite-backed document repository.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "horizon.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// SaveDocument upserts every bucket of snapshot in a single transaction.
func (s *Store) SaveDocument(ctx context.Context, name string, snapshot domain.Snapshot) (retErr error) {
	if err := domain.ValidateDocumentName(name); err != nil {
		return err
	}
	payloads, err := domain.EncodeBuckets(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range domain.Buckets {
		key := domain.DocumentKey(name, bucket)
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(key,payload) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET payload=excluded.payload`, key, payloads[bucket]); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", key, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// LoadDocument reads every bucket stored under name.
func (s *Store) LoadDocument(ctx context.Context, name string) (domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, payload FROM state WHERE key LIKE ? ESCAPE '\'`, likePrefix(name))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := make(map[string][]byte)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan: %w", err)
		}
		doc, bucket, ok := domain.SplitDocumentKey(key)
		if !ok || doc != name {
			continue
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	return domain.DecodeBuckets(payloads)
}

// ListDocuments returns the names of every stored document.
func (s *Store) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	seen := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if doc, _, ok := domain.SplitDocumentKey(key); ok {
			seen[doc] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func likePrefix(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(name) + "/%"
}
