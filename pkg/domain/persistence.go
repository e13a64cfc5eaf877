package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentNotFound is returned by repositories for unknown document names.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository is a minimal abstraction over durable document backends.
type DocumentRepository interface {
	SaveDocument(ctx context.Context, name string, snapshot Snapshot) error
	LoadDocument(ctx context.Context, name string) (Snapshot, error)
	ListDocuments(ctx context.Context) ([]string, error)
	Close() error
}

// Document buckets. Backends store one payload per bucket keyed by
// DocumentKey so that a document can be loaded without a schema per kind.
const (
	BucketDocument  = "document"
	BucketWork      = "work"
	BucketSchematic = "schematic"
	BucketBoard     = "board"
)

// Buckets lists the buckets every persisted document carries.
var Buckets = []string{BucketDocument, BucketWork, BucketSchematic, BucketBoard}

// DocumentKey joins a document name and a bucket into a storage key.
func DocumentKey(name, bucket string) string {
	return name + "/" + bucket
}

// SplitDocumentKey reverses DocumentKey. The bucket never contains a slash,
// so document names may.
func SplitDocumentKey(key string) (name, bucket string, ok bool) {
	idx := strings.LastIndex(key, "/")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

// ValidateDocumentName rejects names that cannot be turned into keys.
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("document name required")
	}
	return nil
}

// EncodeBuckets splits s into per-bucket JSON payloads.
func EncodeBuckets(s Snapshot) (map[string][]byte, error) {
	s.Normalize()
	out := make(map[string][]byte, len(Buckets))
	for _, bucket := range Buckets {
		var (
			data []byte
			err  error
		)
		switch bucket {
		case BucketDocument:
			data, err = json.Marshal(s.Document)
		case BucketWork:
			data, err = json.Marshal(s.Work)
		case BucketSchematic:
			data, err = json.Marshal(s.Schematic)
		case BucketBoard:
			data, err = json.Marshal(s.Board)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBuckets rebuilds a snapshot from payloads produced by EncodeBuckets.
// Missing buckets decode as empty; unknown buckets are ignored.
func DecodeBuckets(payloads map[string][]byte) (Snapshot, error) {
	var s Snapshot
	for bucket, data := range payloads {
		if len(data) == 0 {
			continue
		}
		var target any
		switch bucket {
		case BucketDocument:
			target = &s.Document
		case BucketWork:
			target = &s.Work
		case BucketSchematic:
			target = &s.Schematic
		case BucketBoard:
			target = &s.Board
		default:
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	s.Normalize()
	return s, nil
}
