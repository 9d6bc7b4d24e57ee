package parse

import (
	"bytes"
	"context"
	"fmt"
	"reflect"

	"github.com/slowlang/basicc/compiler/ast"
)

type (
	State struct {
		b []byte // all files concatenated

		Grammar Parser

		files []file
	}

	file struct {
		base int
		size int
		name string
	}

	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error)
	}

	// SyntaxError is a parse failure at a source position.
	// Line and Col are 1-based, Col counts bytes.
	SyntaxError struct {
		File string
		Line int
		Col  int

		Err error
	}

	TypeExpectedError struct {
		T interface{}
	}

	PartialReadError struct {
		End int
	}
)

func New(g Parser) *State {
	return &State{
		Grammar: g,
	}
}

func (s *State) Parse(ctx context.Context) (x ast.Node, err error) {
	x, i, err := s.Grammar.Parse(ctx, s.b, 0)
	if err != nil {
		return nil, s.SyntaxError(i, err)
	}

	i = SpaceAll.Skip(s.b, i)

	if i != len(s.b) {
		return nil, s.SyntaxError(i, PartialReadError{End: i})
	}

	return x, nil
}

func (s *State) AddFile(name string, text []byte) {
	f := file{
		name: name,
		base: len(s.b),
		size: len(text),
	}

	s.b = append(s.b, text...)

	s.files = append(s.files, f)
}

// Position resolves offset into the concatenated text to a file name and 1-based line and column.
func (s *State) Position(pos int) (name string, line, col int) {
	base := 0

	for _, f := range s.files {
		if pos >= f.base && pos <= f.base+f.size {
			name = f.name
			base = f.base

			break
		}
	}

	if pos > len(s.b) {
		pos = len(s.b)
	}

	text := s.b[base:pos]

	line = 1 + bytes.Count(text, []byte{'\n'})
	col = 1 + len(text) - (bytes.LastIndexByte(text, '\n') + 1)

	return
}

func (s *State) SyntaxError(pos int, err error) *SyntaxError {
	name, line, col := s.Position(pos)

	return &SyntaxError{
		File: name,
		Line: line,
		Col:  col,
		Err:  err,
	}
}

func NewTypeExpectedError(t interface{}) TypeExpectedError {
	return TypeExpectedError{
		T: t,
	}
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %v", e.Line, e.Col, e.Err)
	}

	return fmt.Sprintf("%s:%d:%d: %v", e.File, e.Line, e.Col, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e TypeExpectedError) Error() string {
	return fmt.Sprintf("%v expected", reflect.TypeOf(e.T))
}

func (e PartialReadError) Error() string {
	return "unexpected text"
}
