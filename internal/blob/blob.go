// Package blob is the entry point to blob storage. Callers depend on the
// Store interface and obtain a backend from Open or the constructors here;
// only this package imports the infra implementations.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/carrotIndustries/horizon/internal/blob/core"
	fsblob "github.com/carrotIndustries/horizon/internal/infra/blob/fs"
	memblob "github.com/carrotIndustries/horizon/internal/infra/blob/memory"
	s3blob "github.com/carrotIndustries/horizon/internal/infra/blob/s3"
)

type (
	// Store is the backend contract.
	Store = core.Store
	// Info describes a stored blob.
	Info = core.Info
	// PutOptions carries optional Put parameters.
	PutOptions = core.PutOptions
	// Driver names a backend.
	Driver = core.Driver
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// ErrNotFound is wrapped by Get and Head for missing keys.
var ErrNotFound = core.ErrNotFound

// Environment variables consulted by Open.
const (
	EnvDriver = "HORIZON_BLOB_DRIVER"
	EnvFSRoot = "HORIZON_BLOB_FS_ROOT"
)

// Open selects a backend from the environment:
//
//	HORIZON_BLOB_DRIVER: fs|s3|memory (default fs)
//	HORIZON_BLOB_FS_ROOT: directory for the fs driver (default ./blobdata)
//	HORIZON_BLOB_S3_*: bucket, region, endpoint and path style for s3
func Open(ctx context.Context) (Store, error) {
	driver := Driver(os.Getenv(EnvDriver))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv(EnvFSRoot))
	case DriverS3:
		return s3blob.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memblob.New() }

// NewFilesystem returns a store rooted at dir.
func NewFilesystem(dir string) (Store, error) { return fsblob.New(dir) }

// PutBytes writes data at key.
func PutBytes(ctx context.Context, s Store, key string, data []byte, contentType string) (Info, error) {
	return s.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: contentType})
}

// ReadAll returns the full content of key.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, Info, error) {
	info, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, Info{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read blob %q: %w", key, err)
	}
	return data, info, nil
}
