package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const junctionID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func TestParseSession(t *testing.T) {
	src := `
# rectangle in corner mode
begin draw_line_rectangle at 0 0 keep transient
move -5 7
click 1 0 0 on junction ` + junctionID + `
release 1 0 0
key escape
layer 2
select polygon ` + junctionID + ` vertex 3, junction ` + junctionID + `
select all
select none
answer cancel
answer ` + junctionID + `
undo
redo
expect history 3
expect active none
expect selected 0
expect count line 4
`
	s, err := ParseString("session.hz", src)
	require.NoError(t, err)
	require.Len(t, s.Statements, 17)

	kinds := make([]string, 0, len(s.Statements))
	for _, st := range s.Statements {
		kinds = append(kinds, st.Kind())
	}
	assert.Equal(t, []string{
		"begin", "move", "click", "release", "key", "layer", "select", "select", "select",
		"answer", "answer", "undo", "redo", "expect", "expect", "expect", "expect",
	}, kinds)

	b := s.Statements[0].Begin
	assert.Equal(t, "draw_line_rectangle", b.Tool)
	require.NotNil(t, b.At)
	assert.Equal(t, domain.Coordi{}, b.At.Coordi())
	assert.True(t, b.Keep())
	assert.True(t, b.Transient())
	assert.Equal(t, 3, s.Statements[0].Pos.Line)

	assert.Equal(t, Point{X: -5, Y: 7}, *s.Statements[1].Move)

	click := s.Statements[2].Click
	assert.Equal(t, 1, click.Button)
	require.NotNil(t, click.Target)
	ref, err := click.Target.Ref()
	require.NoError(t, err)
	assert.Equal(t, domain.Ref(domain.ObjectJunction, uuid.MustParse(junctionID)), ref)

	assert.Nil(t, s.Statements[3].Release.Target)
	assert.Equal(t, "escape", *s.Statements[4].Key)
	assert.Equal(t, 2, *s.Statements[5].Layer)

	sel := s.Statements[6].Select
	require.Len(t, sel.Refs, 2)
	ref, err = sel.Refs[0].Ref()
	require.NoError(t, err)
	assert.Equal(t, domain.VertexRef(domain.ObjectPolygon, uuid.MustParse(junctionID), 3), ref)
	assert.True(t, s.Statements[7].Select.All)
	assert.True(t, s.Statements[8].Select.None)

	assert.True(t, s.Statements[9].Answer.Cancel)
	assert.Equal(t, junctionID, s.Statements[10].Answer.ID)
	assert.True(t, s.Statements[11].Undo)
	assert.True(t, s.Statements[12].Redo)

	assert.Equal(t, 3, *s.Statements[13].Expect.History)
	assert.Equal(t, "none", *s.Statements[14].Expect.Active)
	assert.Equal(t, 0, *s.Statements[15].Expect.Selected)
	assert.Equal(t, Count{Type: "line", N: 4}, *s.Statements[16].Expect.Count)
}

func TestBeginWithoutOptions(t *testing.T) {
	s, err := ParseString("x", "begin delete")
	require.NoError(t, err)
	b := s.Statements[0].Begin
	assert.Nil(t, b.At)
	assert.False(t, b.Keep())
	assert.False(t, b.Transient())
}

func TestParseErrors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown statement": "jump 1 2",
		"missing coord":     "move 1",
		"bad answer":        "answer maybe",
		"dangling on":       "click 1 0 0 on junction",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString("bad.hz", src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.hz:1")
		})
	}
}

func TestTargetRefErrors(t *testing.T) {
	s, err := ParseString("x", "select widget "+junctionID)
	require.NoError(t, err)
	_, err = s.Statements[0].Select.Refs[0].Ref()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown object type")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.hz")
	require.NoError(t, os.WriteFile(path, []byte("undo\n# trailing comment\n"), 0o600))
	s, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, s.Statements, 1)
	assert.True(t, s.Statements[0].Undo)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.hz"))
	require.Error(t, err)
}

func TestEmptyScriptAndGrammar(t *testing.T) {
	s, err := ParseString("empty", "  # nothing\n")
	require.NoError(t, err)
	assert.Empty(t, s.Statements)
	assert.True(t, strings.Contains(Grammar(), "Statement"))
}
