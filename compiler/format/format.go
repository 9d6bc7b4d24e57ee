package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/basicc/compiler/ast"
)

func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Program:
		return formatProgram(ctx, b, x)
	case ast.Line:
		return formatLine(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatProgram(ctx context.Context, b []byte, x *ast.Program) (_ []byte, err error) {
	for _, l := range x.Lines {
		b, err = formatLine(ctx, b, l)
		if err != nil {
			return nil, errors.Wrap(err, "line %v", l.Number.Text)
		}
	}

	return b, nil
}

func formatLine(ctx context.Context, b []byte, x ast.Line) (_ []byte, err error) {
	b = append(b, x.Number.Text...)

	switch s := x.Stmt.(type) {
	case nil:
	case *ast.Comment:
		b = append(b, " REM"...)

		if s.Text != "" {
			b = app(b, " %s", s.Text)
		}
	case *ast.Print:
		b = append(b, " PRINT"...)

		for i, e := range s.Exprs {
			if i != 0 {
				b = append(b, ',')
			}

			b = append(b, ' ')

			b, err = formatLabeled(ctx, b, e)
			if err != nil {
				return nil, errors.Wrap(err, "expr %d", i)
			}
		}
	default:
		return nil, errors.New("unsupported stmt: %T", s)
	}

	b = append(b, '\n')

	return b, nil
}

func formatLabeled(ctx context.Context, b []byte, x ast.LabeledExpr) (_ []byte, err error) {
	if x.Label != nil {
		b = quote(b, x.Label.Value)
		b = append(b, ' ')
	}

	switch e := x.Expr.(type) {
	case ast.Number:
		b = append(b, e.Text...)
	case ast.String:
		b = quote(b, e.Value)
	default:
		return nil, errors.New("unsupported expr: %T", e)
	}

	return b, nil
}

func app(b []byte, f string, args ...any) []byte {
	return hfmt.Appendf(b, f, args...)
}

// quote doesn't escape: strings can't contain quotes or line breaks.
func quote(b []byte, s string) []byte {
	b = append(b, '"')
	b = append(b, s...)
	return append(b, '"')
}
