// Package script parses the line-oriented session scripts used to drive the
// tool engine headless:
//
//	# draw a rectangle
//	begin draw_line_rectangle at 0 0
//	click 1 0 0
//	move 100 50
//	click 1 100 50
//	expect count line 4
package script

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[Script](
	participle.Lexer(Lexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// Parse reads a script from r. name is used in error positions.
func Parse(name string, r io.Reader) (*Script, error) {
	s, err := parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return s, nil
}

// ParseString parses src.
func ParseString(name, src string) (*Script, error) {
	s, err := parser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return s, nil
}

// ParseFile parses the script at path.
func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(path, f)
}

// Grammar returns the EBNF of the script language.
func Grammar() string { return parser.String() }
