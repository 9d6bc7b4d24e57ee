package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/basicc/compiler"
	"github.com/slowlang/basicc/compiler/asm"
	"github.com/slowlang/basicc/compiler/compile"
)

func main() {
	listCmd := &cli.Command{
		Name:        "list",
		Description: "print the program with lines collated",
		Action:      listAct,
		Args:        cli.Args{},
	}

	asmCmd := &cli.Command{
		Name:        "asm",
		Description: "print generated assembly",
		Action:      asmAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "basicc",
		Description: "basicc [-o outfile] [-g] [-v] srcfile compiles line-numbered BASIC into a native executable",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "a.out", "output executable"),
			cli.NewFlag("debug,g", false, "generate debug info"),
			cli.NewFlag("verbose,v", false, "log compilation stages and dump generated code"),
		},
		Commands: []*cli.Command{
			listCmd,
			asmCmd,
		},
	}

	err := cli.Run(app, os.Args, os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "basicc: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func compileAct(c *cli.Command) (err error) {
	ctx, opts, src, err := setup(c)
	if err != nil {
		return err
	}

	err = compiler.CompileFile(ctx, src, opts)
	if err != nil {
		return errors.Wrap(err, "compile %v", src)
	}

	return nil
}

func listAct(c *cli.Command) (err error) {
	ctx, _, src, err := setup(c)
	if err != nil {
		return err
	}

	text, err := compiler.ReadFile(ctx, src)
	if err != nil {
		return err
	}

	b, err := compiler.List(ctx, src, text)
	if err != nil {
		return errors.Wrap(err, "list %v", src)
	}

	_, err = os.Stdout.Write(b)

	return err
}

func asmAct(c *cli.Command) (err error) {
	ctx, opts, src, err := setup(c)
	if err != nil {
		return err
	}

	text, err := compiler.ReadFile(ctx, src)
	if err != nil {
		return err
	}

	b, err := compiler.Assembly(ctx, src, text, opts)
	if err != nil {
		return errors.Wrap(err, "assemble %v", src)
	}

	_, err = os.Stdout.Write(b)

	return err
}

func setup(c *cli.Command) (ctx context.Context, opts compile.Options, src string, err error) {
	if len(c.Args) != 1 {
		return nil, opts, "", errors.New("exactly one source file expected, got %d", len(c.Args))
	}

	ctx = context.Background()

	opts = compile.DefaultOptions()
	opts.Output = c.String("output")
	opts.Debug = c.Bool("debug")
	opts.Verbose = c.Bool("verbose")

	if opts.Verbose {
		ctx = tlog.ContextWithSpan(ctx, tlog.Root())
	}

	return ctx, opts, c.Args[0], nil
}

// exitCode propagates the failed tool exit status.
func exitCode(err error) int {
	var te *asm.ToolError

	if errors.As(err, &te) && te.Status > 0 {
		return te.Status
	}

	return 1
}
