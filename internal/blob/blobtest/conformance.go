// Package blobtest holds the behaviour every blob backend must share.
package blobtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/carrotIndustries/horizon/internal/blob/core"
)

// Run exercises the store contract against a fresh store per subtest.
func Run(t *testing.T, open func(t *testing.T) core.Store) {
	t.Helper()
	t.Run("PutGetHead", func(t *testing.T) { testPutGetHead(t, open(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, open(t)) })
	t.Run("Missing", func(t *testing.T) { testMissing(t, open(t)) })
	t.Run("ListPrefix", func(t *testing.T) { testListPrefix(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
}

func put(t *testing.T, s core.Store, key, body string) core.Info {
	t.Helper()
	info, err := s.Put(context.Background(), key, strings.NewReader(body), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
	return info
}

func read(t *testing.T, s core.Store, key string) (core.Info, string) {
	t.Helper()
	info, rc, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return info, string(b)
}

func testPutGetHead(t *testing.T, s core.Store) {
	ctx := context.Background()
	info, err := s.Put(ctx, "tool-settings/rotate.json", bytes.NewReader([]byte(`{"snap":true}`)),
		core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"tool": "rotate"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "tool-settings/rotate.json" || info.Size != 13 || info.ETag == "" {
		t.Fatalf("unexpected put info %+v", info)
	}
	got, body := read(t, s, "tool-settings/rotate.json")
	if body != `{"snap":true}` || got.ContentType != "application/json" {
		t.Fatalf("unexpected get %+v %q", got, body)
	}
	head, err := s.Head(ctx, "tool-settings/rotate.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ETag != got.ETag || head.Size != 13 || head.Metadata["tool"] != "rotate" {
		t.Fatalf("head disagrees with get: %+v vs %+v", head, got)
	}
	if head.LastModified.IsZero() {
		t.Fatalf("expected last modified time")
	}
}

func testOverwrite(t *testing.T, s core.Store) {
	first := put(t, s, "a.json", "one")
	second := put(t, s, "a.json", "second")
	if first.ETag == second.ETag {
		t.Fatalf("etag should change with content")
	}
	if _, body := read(t, s, "a.json"); body != "second" {
		t.Fatalf("expected overwritten content, got %q", body)
	}
	list, err := s.List(context.Background(), "")
	if err != nil || len(list) != 1 {
		t.Fatalf("overwrite must not duplicate: %+v %v", list, err)
	}
}

func testMissing(t *testing.T, s core.Store) {
	ctx := context.Background()
	if _, _, err := s.Get(ctx, "nope.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if _, err := s.Head(ctx, "nope.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, err := s.Put(ctx, "../escape", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}

func testListPrefix(t *testing.T, s core.Store) {
	for _, k := range []string{"tool-settings/b.json", "tool-settings/a.json", "tool-settings/c.json", "other/x.json"} {
		put(t, s, k, k)
	}
	list, err := s.List(context.Background(), "tool-settings/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"tool-settings/a.json", "tool-settings/b.json", "tool-settings/c.json"}
	if len(list) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), list)
	}
	for i, info := range list {
		if info.Key != want[i] || info.Size != int64(len(want[i])) {
			t.Fatalf("entry %d: got %+v want %s", i, info, want[i])
		}
	}
	all, err := s.List(context.Background(), "")
	if err != nil || len(all) != 4 {
		t.Fatalf("expected 4 blobs in total, got %d %v", len(all), err)
	}
}

func testDelete(t *testing.T, s core.Store) {
	ctx := context.Background()
	put(t, s, "gone.json", "x")
	ok, err := s.Delete(ctx, "gone.json")
	if err != nil || !ok {
		t.Fatalf("delete existing: %v %v", ok, err)
	}
	ok, err = s.Delete(ctx, "gone.json")
	if err != nil || ok {
		t.Fatalf("second delete should report missing: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, "gone.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleted blob still visible: %v", err)
	}
}
