package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/basicc/compiler/ast"
)

type (
	// Digits is an unsigned decimal literal.
	Digits struct{}
)

func (p Digits) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	i = st

	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	if i == st {
		return nil, st, errors.New("number expected")
	}

	return ast.Number{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
		Text: string(b[st:i]),
	}, i, nil
}

func (p Digits) Describe() string { return "number" }
