package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carrotIndustries/horizon/internal/blob/blobtest"
	"github.com/carrotIndustries/horizon/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func TestStoreContract(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) core.Store { return newTempStore(t) })
}

func TestSidecarLayout(t *testing.T) {
	s := newTempStore(t)
	if _, err := s.Put(context.Background(), "tool-settings/scale.json", strings.NewReader("{}"), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	data := filepath.Join(s.Root(), "tool-settings", "scale.json")
	if b, err := os.ReadFile(data); err != nil || string(b) != "{}" {
		t.Fatalf("blob file: %q %v", b, err)
	}
	if _, err := os.Stat(data + metaSuffix); err != nil {
		t.Fatalf("missing sidecar: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(data))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tmpPrefix) {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReservedKeys(t *testing.T) {
	s := newTempStore(t)
	for _, key := range []string{"x.json.meta", "dir/.tmp-123", "/abs", "", "a/../../b"} {
		if _, err := s.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestCorruptSidecar(t *testing.T) {
	s := newTempStore(t)
	if _, err := s.Put(context.Background(), "bad.json", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Root(), "bad.json"+metaSuffix), []byte("{"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := s.Head(context.Background(), "bad.json"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := s.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list to surface decode error")
	}
}

func TestDefaultRoot(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	s, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Root() != DefaultRoot || s.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected store %s %s", s.Root(), s.Driver())
	}
	if _, err := os.Stat(filepath.Join(dir, "blobdata")); err != nil {
		t.Fatalf("default root not created: %v", err)
	}
}
