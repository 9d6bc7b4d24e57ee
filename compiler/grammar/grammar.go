// Package grammar defines BASIC syntax in terms of parse combinators.
//
//	program           = { blank-line | line }
//	line              = number [ statement ] EOL
//	statement         = comment-statement | print-statement
//	comment-statement = "REM" rest-of-line
//	print-statement   = "PRINT" [ expr-list ]
//	expr-list         = labeled-expr { "," labeled-expr }
//	labeled-expr      = string expression | expression
//	expression        = number | string
//
// Keywords are case sensitive and must not run into a following letter or digit.
package grammar

import (
	"context"
	"strings"

	"tlog.app/go/errors"

	"github.com/slowlang/basicc/compiler/ast"
	"github.com/slowlang/basicc/compiler/parse"
)

type (
	Program struct{}

	Line struct{}

	Statement struct{}

	Comment struct{}

	Print struct{}

	LabeledExpr struct{}

	Expression struct{}
)

var blanks = parse.SpaceTab

func Parse(ctx context.Context, name string, text []byte) (*ast.Program, error) {
	s := parse.New(Program{})

	s.AddFile(name, text)

	x, err := s.Parse(ctx)
	if err != nil {
		return nil, err
	}

	return x.(*ast.Program), nil
}

func (p Program) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	res := &ast.Program{}

	i = parse.SpaceAll.Skip(b, st)

	for i < len(b) {
		x, i, err = Line{}.Parse(ctx, b, i)
		if err != nil {
			return nil, i, err
		}

		res.Lines = append(res.Lines, x.(ast.Line))

		i = parse.SpaceAll.Skip(b, i)
	}

	res.Base = ast.Base{
		Pos: st,
		End: i,
	}

	return res, i, nil
}

func (p Line) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	r := parse.AllOf{
		parse.Digits{},
		parse.Optional{Parser: parse.Spaced(Statement{}, blanks)},
		parse.Spaced(parse.EOL{}, blanks),
	}

	x, i, err = r.Parse(ctx, b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "line")
	}

	xt := x.([]ast.Node)

	res := ast.Line{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
		Number: xt[0].(ast.Number),
	}

	if s, ok := xt[1].(ast.Stmt); ok {
		res.Stmt = s
	}

	return res, i, nil
}

func (p Statement) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	return parse.AnyOf{
		Comment{},
		Print{},
	}.Parse(ctx, b, st)
}

func (p Statement) Describe() string { return "statement" }

func (p Comment) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	r := parse.AllOf{
		parse.Keyword("REM"),
		parse.RestOfLine{},
	}

	x, i, err = r.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	text := x.([]ast.Node)[1].(parse.Const)

	return &ast.Comment{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
		Text: strings.TrimLeft(string(text), " \t"),
	}, i, nil
}

func (p Comment) Describe() string { return "REM" }

func (p Print) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	r := parse.AllOf{
		parse.Keyword("PRINT"),
		parse.Optional{Parser: parse.Spaced(parse.List{
			Of:  parse.Spaced(LabeledExpr{}, blanks),
			Sep: parse.Spaced(parse.Const(","), blanks),
		}, blanks)},
	}

	x, i, err = r.Parse(ctx, b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "PRINT")
	}

	res := &ast.Print{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
	}

	list, _ := x.([]ast.Node)[1].([]ast.Node)

	for _, e := range list {
		le, ok := e.(ast.LabeledExpr)
		if !ok {
			return nil, st, parse.NewTypeExpectedError(le)
		}

		res.Exprs = append(res.Exprs, le)
	}

	return res, i, nil
}

func (p Print) Describe() string { return "PRINT" }

func (p LabeledExpr) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	r := parse.AnyOf{
		parse.AllOf{
			parse.Quoted{},
			parse.Spaced(Expression{}, blanks),
		},
		Expression{},
	}

	x, i, err = r.Parse(ctx, b, st)
	if err != nil && i == st {
		return nil, st, errors.New("expression expected")
	}
	if err != nil {
		return nil, i, err
	}

	res := ast.LabeledExpr{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
	}

	switch x := x.(type) {
	case []ast.Node:
		label := x[0].(ast.String)

		res.Label = &label
		res.Expr = x[1].(ast.Expr)
	case ast.Expr:
		res.Expr = x
	default:
		return nil, st, parse.NewTypeExpectedError((*ast.Expr)(nil))
	}

	return res, i, nil
}

func (p LabeledExpr) Describe() string { return "expression" }

func (p Expression) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	return parse.AnyOf{
		parse.Digits{},
		parse.Quoted{},
	}.Parse(ctx, b, st)
}

func (p Expression) Describe() string { return "expression" }
