package blob

import (
	"context"
	"errors"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	t.Setenv(EnvDriver, "memory")
	s, err := Open(ctx)
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("memory driver: %v %v", s, err)
	}

	t.Setenv(EnvDriver, "")
	t.Setenv(EnvFSRoot, t.TempDir())
	s, err = Open(ctx)
	if err != nil || s.Driver() != DriverFilesystem {
		t.Fatalf("default driver should be fs: %v %v", s, err)
	}

	t.Setenv(EnvDriver, "s3")
	t.Setenv("HORIZON_BLOB_S3_BUCKET", "")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("s3 without bucket should fail")
	}

	t.Setenv(EnvDriver, "gcs")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestPutBytesReadAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if _, err := PutBytes(ctx, s, "x/y.json", []byte(`{"a":1}`), "application/json"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, info, err := ReadAll(ctx, s, "x/y.json")
	if err != nil || string(data) != `{"a":1}` || info.ContentType != "application/json" {
		t.Fatalf("read: %q %+v %v", data, info, err)
	}
	if _, _, err := ReadAll(ctx, s, "x/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
