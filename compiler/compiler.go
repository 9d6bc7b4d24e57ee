package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/basicc/compiler/analyze"
	"github.com/slowlang/basicc/compiler/ast"
	"github.com/slowlang/basicc/compiler/back"
	"github.com/slowlang/basicc/compiler/compile"
	"github.com/slowlang/basicc/compiler/format"
	"github.com/slowlang/basicc/compiler/front"
	"github.com/slowlang/basicc/compiler/grammar"
)

func CompileFile(ctx context.Context, name string, opts compile.Options) error {
	text, err := ReadFile(ctx, name)
	if err != nil {
		return err
	}

	return Compile(ctx, name, text, opts)
}

// Compile builds the program text into an executable at opts.Output.
func Compile(ctx context.Context, name string, text []byte, opts compile.Options) (err error) {
	c, err := Lower(ctx, name, text, opts)
	if err != nil {
		return err
	}

	err = compile.Build(ctx, c, opts)
	if err != nil {
		return errors.Wrap(err, "build")
	}

	return nil
}

// Assembly returns the assembly text the program compiles to.
func Assembly(ctx context.Context, name string, text []byte, opts compile.Options) ([]byte, error) {
	c, err := Lower(ctx, name, text, opts)
	if err != nil {
		return nil, err
	}

	err = c.Main().EndWithReturn(0)
	if err != nil {
		return nil, errors.Wrap(err, "terminate main")
	}

	return c.Assemble(ctx)
}

// List returns the collated program in canonical form.
func List(ctx context.Context, name string, text []byte) ([]byte, error) {
	prog, err := Parse(ctx, name, text)
	if err != nil {
		return nil, err
	}

	return format.Format(ctx, nil, prog)
}

// Parse parses and collates the program.
func Parse(ctx context.Context, name string, text []byte) (*ast.Program, error) {
	prog, err := grammar.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	prog, err = analyze.Collate(ctx, prog)
	if err != nil {
		return nil, errors.Wrap(err, "collate")
	}

	return prog, nil
}

// Lower parses the program and lowers it into the main routine of a new target context.
// The routine is not terminated.
func Lower(ctx context.Context, name string, text []byte, opts compile.Options) (*back.Context, error) {
	prog, err := Parse(ctx, name, text)
	if err != nil {
		return nil, err
	}

	c, err := compile.NewContext(opts)
	if err != nil {
		return nil, errors.Wrap(err, "target")
	}

	err = front.Lower(ctx, c.Package, c.Main(), prog)
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	return c, nil
}

func ReadFile(ctx context.Context, name string) ([]byte, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return text, nil
}
