package parse

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"tlog.app/go/errors"

	"github.com/slowlang/basicc/compiler/ast"
)

type (
	Const []byte

	Ident []byte

	// Keyword is a Const which is not a prefix of a longer identifier.
	Keyword []byte

	// Quoted is a double quoted string without escapes.
	// It doesn't span lines and holds no control characters but tab.
	Quoted struct{}

	// RestOfLine is everything up to the line break, which is not consumed.
	// Trailing \r is dropped.
	RestOfLine struct{}

	// EOL is a line break or the end of text.
	EOL struct{}
)

func (p Const) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if bytes.HasPrefix(b[st:], p) {
		return Const(b[st : st+len(p)]), st + len(p), nil
	}

	return nil, st, errors.New("%q expected", []byte(p))
}

func (p Const) Describe() string { return fmt.Sprintf("%q", []byte(p)) }

func (p Ident) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if st == len(b) {
		return nil, st, errors.New("Ident expected")
	}

	i = st

	c := b[i]

	switch {
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		i++
	default:
		return nil, st, errors.New("Ident expected")
	}

loop:
	for i < len(b) {
		c := b[i]

		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_':
			i++
		case c >= utf8.RuneSelf:
			if r, w := utf8.DecodeRune(b[i:]); r == utf8.RuneError {
				return nil, i, errors.New("bad rune")
			} else {
				i += w
			}
		default:
			break loop
		}
	}

	return Ident(b[st:i]), i, nil
}

func (p Keyword) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	x, i, err = Ident{}.Parse(ctx, b, st)
	if err != nil || !bytes.Equal(x.(Ident), p) {
		return nil, st, errors.New("%s expected", []byte(p))
	}

	return Keyword(b[st:i]), i, nil
}

func (p Keyword) Describe() string { return string(p) }

func (p Quoted) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if st == len(b) || b[st] != '"' {
		return nil, st, errors.New("string expected")
	}

	i = st + 1

	for i < len(b) && b[i] != '"' && b[i] != '\n' {
		if b[i] < 0x20 && b[i] != '\t' {
			return nil, i, errors.New("control character in string: %#x", b[i])
		}

		i++
	}

	if i == len(b) || b[i] != '"' {
		return nil, i, errors.New("unterminated string")
	}

	return ast.String{
		Base: ast.Base{
			Pos: st,
			End: i + 1,
		},
		Value: string(b[st+1 : i]),
	}, i + 1, nil
}

func (p Quoted) Describe() string { return "string" }

func (p RestOfLine) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	i = st

	for i < len(b) && b[i] != '\n' {
		i++
	}

	end := i
	if end > st && b[end-1] == '\r' {
		end--
	}

	return Const(b[st:end]), i, nil
}

func (p EOL) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	switch {
	case st == len(b):
		return None{}, st, nil
	case b[st] == '\n':
		return None{}, st + 1, nil
	case b[st] == '\r' && st+1 < len(b) && b[st+1] == '\n':
		return None{}, st + 2, nil
	}

	return nil, st, errors.New("end of line expected")
}

func (p EOL) Describe() string { return "end of line" }
