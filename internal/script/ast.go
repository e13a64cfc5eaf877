package script

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// Script is a parsed session: statements run in order against one editor.
type Script struct {
	Statements []*Statement `@@*`
}

// Statement is one line of a script. Exactly one field is set.
type Statement struct {
	Pos lexer.Position

	Begin   *Begin  `  "begin" @@`
	Move    *Point  `| "move" @@`
	Click   *Click  `| "click" @@`
	Release *Click  `| "release" @@`
	Key     *string `| "key" @Ident`
	Layer   *int    `| "layer" @Int`
	Select  *Select `| "select" @@`
	Answer  *Answer `| "answer" @@`
	Undo    bool    `| @"undo"`
	Redo    bool    `| @"redo"`
	Expect  *Expect `| "expect" @@`
}

// Begin starts a tool: `begin <tool> [at X Y] [keep] [transient]`.
type Begin struct {
	Tool  string   `@Ident`
	At    *Point   `( "at" @@ )?`
	Flags []string `@( "keep" | "transient" )*`
}

// Keep reports whether the current selection is handed to the tool.
func (b *Begin) Keep() bool { return b.has("keep") }

// Transient reports whether the tool ends after its first placement.
func (b *Begin) Transient() bool { return b.has("transient") }

func (b *Begin) has(flag string) bool {
	for _, f := range b.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Point is a coordinate pair in nanometres.
type Point struct {
	X int64 `@Int`
	Y int64 `@Int`
}

// Coordi converts p to a domain coordinate.
func (p Point) Coordi() domain.Coordi { return domain.Coordi{X: p.X, Y: p.Y} }

// Click is `<button> X Y [on <target>]`.
type Click struct {
	Button int     `@Int`
	At     Point   `@@`
	Target *Target `( "on" @@ )?`
}

// Target names one selectable object: `<type> <uuid> [vertex N]`.
type Target struct {
	Pos    lexer.Position
	Type   string `@Ident`
	UUID   string `@UUID`
	Vertex int    `( "vertex" @Int )?`
}

// Ref resolves the target to a selection reference.
func (t *Target) Ref() (domain.SelectableRef, error) {
	typ, err := domain.ParseObjectType(t.Type)
	if err != nil {
		return domain.SelectableRef{}, fmt.Errorf("%s: %w", t.Pos, err)
	}
	id, err := uuid.Parse(t.UUID)
	if err != nil {
		return domain.SelectableRef{}, fmt.Errorf("%s: %w", t.Pos, err)
	}
	return domain.VertexRef(typ, id, t.Vertex), nil
}

// Select replaces the editor selection: `all`, `none` or a comma separated
// list of targets.
type Select struct {
	All  bool      `  @"all"`
	None bool      `| @"none"`
	Refs []*Target `| @@ ( "," @@ )*`
}

// Answer queues the reply to the next dialog: `cancel` or a uuid.
type Answer struct {
	Cancel bool   `  @"cancel"`
	ID     string `| @UUID`
}

// Expect asserts editor state after the preceding statements.
type Expect struct {
	History  *int    `  "history" @Int`
	Active   *string `| "active" @Ident`
	Selected *int    `| "selected" @Int`
	Count    *Count  `| "count" @@`
}

// Count is `<object type> N`.
type Count struct {
	Type string `@Ident`
	N    int    `@Int`
}

// Kind names the statement for logs and errors.
func (s *Statement) Kind() string {
	switch {
	case s.Begin != nil:
		return "begin"
	case s.Move != nil:
		return "move"
	case s.Click != nil:
		return "click"
	case s.Release != nil:
		return "release"
	case s.Key != nil:
		return "key"
	case s.Layer != nil:
		return "layer"
	case s.Select != nil:
		return "select"
	case s.Answer != nil:
		return "answer"
	case s.Undo:
		return "undo"
	case s.Redo:
		return "redo"
	case s.Expect != nil:
		return "expect"
	}
	return "unknown"
}
