package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/carrotIndustries/horizon/pkg/domain"
)

// Compile-time contract assertion ensuring the repository satisfies the domain interface.
var _ domain.DocumentRepository = (*Repository)(nil)

// Repository keeps encoded documents in process memory. Documents are stored
// in bucket form so that the behaviour matches the SQL backends.
type Repository struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{docs: make(map[string]map[string][]byte)}
}

// SaveDocument stores snapshot under name, replacing any previous version.
func (r *Repository) SaveDocument(_ context.Context, name string, snapshot domain.Snapshot) error {
	if err := domain.ValidateDocumentName(name); err != nil {
		return err
	}
	payloads, err := domain.EncodeBuckets(snapshot)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[name] = payloads
	return nil
}

// LoadDocument returns a copy of the document stored under name.
func (r *Repository) LoadDocument(_ context.Context, name string) (domain.Snapshot, error) {
	r.mu.RLock()
	payloads, ok := r.docs[name]
	r.mu.RUnlock()
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	return domain.DecodeBuckets(payloads)
}

// ListDocuments returns the stored document names in lexical order.
func (r *Repository) ListDocuments(context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.docs))
	for name := range r.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements domain.DocumentRepository.
func (r *Repository) Close() error { return nil }
