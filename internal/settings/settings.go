// Package settings persists tool settings documents in a blob store. The
// editor reads and writes settings from its event loop without blocking;
// Load and Flush move them between memory and the store.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/carrotIndustries/horizon/internal/blob"
)

// Prefix is the blob key prefix of every settings document.
const Prefix = "tool-settings/"

const contentType = "application/json"

// Key returns the blob key for a settings id.
func Key(id string) string { return Prefix + id + ".json" }

type entry struct {
	raw   json.RawMessage
	dirty bool
}

// Store caches settings documents and implements core.SettingsStore.
type Store struct {
	mu      sync.Mutex
	blobs   blob.Store
	entries map[string]*entry
}

// New returns an empty cache over blobs.
func New(blobs blob.Store) *Store {
	return &Store{blobs: blobs, entries: make(map[string]*entry)}
}

// Load reads every settings document under Prefix. Entries changed since
// the last Flush are kept. Invalid documents are skipped and reported.
func (s *Store) Load(ctx context.Context) error {
	infos, err := s.blobs.List(ctx, Prefix)
	if err != nil {
		return fmt.Errorf("list settings: %w", err)
	}
	var errs []error
	for _, info := range infos {
		id, ok := idFromKey(info.Key)
		if !ok {
			continue
		}
		data, _, err := blob.ReadAll(ctx, s.blobs, info.Key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !json.Valid(data) {
			errs = append(errs, fmt.Errorf("settings %q: invalid JSON", id))
			continue
		}
		s.mu.Lock()
		if e, ok := s.entries[id]; !ok || !e.dirty {
			s.entries[id] = &entry{raw: data}
		}
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// LoadToolSettings returns a copy of the cached document for id.
func (s *Store) LoadToolSettings(id string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), e.raw...), true
}

// SaveToolSettings caches raw for id and marks it for the next Flush.
// Saving an identical document is a no-op.
func (s *Store) SaveToolSettings(id string, raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && string(e.raw) == string(raw) {
		return
	}
	s.entries[id] = &entry{raw: append(json.RawMessage(nil), raw...), dirty: true}
}

// Dirty lists the ids waiting for Flush, sorted.
func (s *Store) Dirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, e := range s.entries {
		if e.dirty {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Flush writes dirty documents and returns how many were written. Failed
// writes stay dirty.
func (s *Store) Flush(ctx context.Context) (int, error) {
	written := 0
	var errs []error
	for _, id := range s.Dirty() {
		s.mu.Lock()
		raw := append(json.RawMessage(nil), s.entries[id].raw...)
		s.mu.Unlock()
		if _, err := blob.PutBytes(ctx, s.blobs, Key(id), raw, contentType); err != nil {
			errs = append(errs, fmt.Errorf("write settings %q: %w", id, err))
			continue
		}
		s.mu.Lock()
		if e := s.entries[id]; string(e.raw) == string(raw) {
			e.dirty = false
		}
		s.mu.Unlock()
		written++
	}
	return written, errors.Join(errs...)
}

func idFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, Prefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, ".json")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
