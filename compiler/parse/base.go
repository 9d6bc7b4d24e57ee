package parse

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"

	"github.com/slowlang/basicc/compiler/ast"
)

type (
	None struct{}

	Optional struct {
		Parser
	}

	AllOf []Parser

	AnyOf []Parser

	// List is one or more Of separated by Sep.
	List struct {
		Of  Parser
		Sep Parser
	}
)

func (None) Parse(ctx context.Context, b []byte, st int) (_ ast.Node, i int, err error) {
	return None{}, st, nil
}

func (p Optional) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	x, i, err = p.Parser.Parse(ctx, b, st)
	if i == st {
		return None{}, st, nil
	}

	return
}

func (p AllOf) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	i = st

	res := make([]ast.Node, len(p))

	for j, r := range p {
		x, i, err = r.Parse(ctx, b, i)
		if err != nil {
			return nil, i, err
		}

		res[j] = x
	}

	return res, i, nil
}

func (p AnyOf) Parse(ctx context.Context, b []byte, st int) (_ ast.Node, i int, err error) {
	for _, r := range p {
		x, j, e := r.Parse(ctx, b, st)
		if e == nil {
			return x, j, nil
		}
		if j == st {
			continue
		}
		if err == nil {
			i = j
			err = e
		}
	}

	if err != nil {
		return
	}

	return nil, st, errors.New("expected %v", joinHuman(p...))
}

func (p List) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	x, i, err = p.Of.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	res := []ast.Node{x}

	for {
		sep := i

		_, i, err = p.Sep.Parse(ctx, b, sep)
		if err != nil && i == sep {
			break
		}
		if err != nil {
			return nil, i, errors.Wrap(err, "separator")
		}

		x, i, err = p.Of.Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "item %d", len(res))
		}

		res = append(res, x)
	}

	return res, i, nil
}

func joinHuman(l ...Parser) string {
	switch len(l) {
	case 0:
		return "<none>"
	case 1:
		return describe(l[0])
	}

	var b strings.Builder

	for i, r := range l {
		if i+1 == len(l) {
			b.WriteString(" or ")
		} else if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(describe(r))
	}

	return b.String()
}

func describe(p Parser) string {
	switch p := p.(type) {
	case interface{ Describe() string }:
		return p.Describe()
	case Spacer:
		return describe(p.Of)
	default:
		return fmt.Sprintf("%T", p)
	}
}
