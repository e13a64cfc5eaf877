package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/carrotIndustries/horizon/internal/blob"
	"github.com/carrotIndustries/horizon/internal/core"
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

var _ core.SettingsStore = (*Store)(nil)

func TestSaveFlushLoad(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := New(blobs)
	if _, ok := s.LoadToolSettings("rotate_arbitrary"); ok {
		t.Fatalf("empty store should have no settings")
	}
	s.SaveToolSettings("rotate_arbitrary", json.RawMessage(`{"snap":false}`))
	if got := s.Dirty(); len(got) != 1 || got[0] != "rotate_arbitrary" {
		t.Fatalf("unexpected dirty set %v", got)
	}
	n, err := s.Flush(ctx)
	if err != nil || n != 1 {
		t.Fatalf("flush: %d %v", n, err)
	}
	if len(s.Dirty()) != 0 {
		t.Fatalf("flush should clear dirty entries")
	}
	if n, _ := s.Flush(ctx); n != 0 {
		t.Fatalf("second flush should write nothing, wrote %d", n)
	}
	data, info, err := blob.ReadAll(ctx, blobs, Key("rotate_arbitrary"))
	if err != nil || string(data) != `{"snap":false}` || info.ContentType != "application/json" {
		t.Fatalf("stored document: %q %+v %v", data, info, err)
	}

	fresh := New(blobs)
	if err := fresh.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	raw, ok := fresh.LoadToolSettings("rotate_arbitrary")
	if !ok || string(raw) != `{"snap":false}` {
		t.Fatalf("reloaded settings: %q %v", raw, ok)
	}
	raw[0] = 'X'
	if again, _ := fresh.LoadToolSettings("rotate_arbitrary"); again[0] != '{' {
		t.Fatalf("returned document aliases the cache")
	}
}

func TestSaveIdenticalIsClean(t *testing.T) {
	s := New(blob.NewMemory())
	s.SaveToolSettings("x", json.RawMessage(`{}`))
	if _, err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	s.SaveToolSettings("x", json.RawMessage(`{}`))
	if len(s.Dirty()) != 0 {
		t.Fatalf("identical save should not dirty the entry")
	}
}

func TestLoadKeepsDirtyAndSkipsForeignKeys(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	for key, body := range map[string]string{
		Key("a"):                   `{"v":1}`,
		Key("b"):                   `{"v":2}`,
		Prefix + "nested/c.json":   `{}`,
		Prefix + "readme.txt":      "hi",
		"documents/board/doc.json": `{}`,
	} {
		if _, err := blob.PutBytes(ctx, blobs, key, []byte(body), "application/json"); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	s := New(blobs)
	s.SaveToolSettings("a", json.RawMessage(`{"v":9}`))
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if raw, _ := s.LoadToolSettings("a"); string(raw) != `{"v":9}` {
		t.Fatalf("load overwrote a dirty entry: %s", raw)
	}
	if raw, ok := s.LoadToolSettings("b"); !ok || string(raw) != `{"v":2}` {
		t.Fatalf("missing b: %s", raw)
	}
	for _, id := range []string{"nested/c", "readme.txt", "readme"} {
		if _, ok := s.LoadToolSettings(id); ok {
			t.Fatalf("foreign key %s loaded", id)
		}
	}
}

func TestLoadReportsInvalidJSON(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	if _, err := blob.PutBytes(ctx, blobs, Key("broken"), []byte("{"), "application/json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := blob.PutBytes(ctx, blobs, Key("ok"), []byte(`{}`), "application/json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := New(blobs)
	err := s.Load(ctx)
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
	if _, ok := s.LoadToolSettings("ok"); !ok {
		t.Fatalf("valid documents should still load")
	}
}

type failingPut struct{ blob.Store }

func (failingPut) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("disk full")
}

func TestFlushFailureKeepsDirty(t *testing.T) {
	s := New(failingPut{blob.NewMemory()})
	s.SaveToolSettings("x", json.RawMessage(`{}`))
	n, err := s.Flush(context.Background())
	if err == nil || n != 0 || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected write failure, got %d %v", n, err)
	}
	if got := s.Dirty(); len(got) != 1 {
		t.Fatalf("failed write should stay dirty: %v", got)
	}
}

func TestCoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := New(blobs)
	c := core.NewCore(core.EditorPackage, core.WithSettings(s))
	j, err := c.Store().Junctions(domain.ScopeDocument).Insert(uuid.New())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	sel := domain.NewSelection(domain.Ref(domain.ObjectJunction, j.UUID))
	c.ToolBegin(core.ToolRotateArbitrary, core.ToolArgs{Selection: sel}, nil, false)
	if !c.ToolIsActive() {
		t.Fatalf("rotate did not begin")
	}
	c.ToolUpdate(core.ToolArgs{Type: core.EventKey, Key: core.KeyS})
	c.ToolUpdate(core.ToolArgs{Type: core.EventKey, Key: core.KeyEscape})
	if c.ToolIsActive() {
		t.Fatalf("escape should end rotate")
	}
	if _, err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded := New(blobs)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	raw, ok := reloaded.LoadToolSettings(string(core.ToolRotateArbitrary))
	if !ok {
		t.Fatalf("rotate settings not persisted")
	}
	var rs core.RotateSettings
	if err := json.Unmarshal(raw, &rs); err != nil || rs.Snap {
		t.Fatalf("expected snap disabled, got %s %v", raw, err)
	}
}
