package front

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/basicc/compiler/ast"
	"github.com/slowlang/basicc/compiler/ir"
	"github.com/slowlang/basicc/compiler/tp"
)

type (
	state struct {
		p *ir.Package
		f *ir.Func

		printf ir.Sym
	}

	// UnsupportedError is a node the lowering doesn't know about.
	// It means the parser and the lowering got out of sync.
	UnsupportedError struct {
		Node ast.Node
		PC   loc.PC
	}
)

var printfType = tp.Func{
	In:       []tp.Type{tp.String},
	Out:      []tp.Type{tp.Int32},
	Variadic: true,
}

// Lower appends operations for each line of collated program to f in program order.
// It doesn't terminate f.
func Lower(ctx context.Context, p *ir.Package, f *ir.Func, prog *ast.Program) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: lower", "func", f.Name, "lines", len(prog.Lines))
	defer tr.Finish("err", &err)

	s := &state{
		p:      p,
		f:      f,
		printf: ir.Nil,
	}

	for _, l := range prog.Lines {
		err = s.lowerStmt(ctx, l.Number.Text, l.Stmt)
		if err != nil {
			return errors.Wrap(err, "line %v", l.Number.Text)
		}
	}

	return nil
}

func (s *state) lowerStmt(ctx context.Context, num string, x ast.Stmt) error {
	switch x := x.(type) {
	case *ast.Comment:
		return s.f.AddComment(x.Text)
	case *ast.Print:
		return s.lowerPrint(ctx, num, x)
	default:
		return NewUnsupportedError(x)
	}
}

func (s *state) lowerPrint(ctx context.Context, num string, x *ast.Print) error {
	if len(x.Exprs) == 0 {
		return nil
	}

	if s.printf == ir.Nil {
		s.printf = s.p.Import("printf", printfType)
	}

	args := make([]ir.Value, 0, 1+len(x.Exprs))
	args = append(args, ir.Str(FormatString(len(x.Exprs))))

	for _, e := range x.Exprs {
		text, err := Render(e)
		if err != nil {
			return err
		}

		args = append(args, ir.Str(text))
	}

	v, err := s.f.NewLocal(LocalName(num), tp.Int32)
	if err != nil {
		return errors.Wrap(err, "result")
	}

	tlog.SpanFromContext(ctx).V("lower_print").Printw("print", "line", num, "args", len(args)-1)

	return s.f.AddAssignment(v, ir.Call{
		Func: s.printf,
		Args: args,
	})
}

// FormatString is one %s per argument separated by spaces and a line break.
func FormatString(n int) string {
	return strings.TrimSuffix(strings.Repeat("%s ", n), " ") + "\n"
}

// Render is the text labeled expression prints as.
// Label goes right before the value with no separator.
func Render(e ast.LabeledExpr) (string, error) {
	var val string

	switch x := e.Expr.(type) {
	case ast.Number:
		val = x.Text
	case ast.String:
		val = x.Value
	default:
		return "", NewUnsupportedError(x)
	}

	if e.Label == nil {
		return val, nil
	}

	return e.Label.Value + val, nil
}

func LocalName(num string) string {
	return "printf.line." + num
}

func NewUnsupportedError(x ast.Node) *UnsupportedError {
	return &UnsupportedError{
		Node: x,
		PC:   loc.Caller(1),
	}
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported node %T (at %v)", e.Node, e.PC)
}
