package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xyproto/env/v2"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/basicc/compiler/asm"
	"github.com/slowlang/basicc/compiler/back"
)

type (
	Options struct {
		Output string

		Debug   bool
		Verbose bool

		CC   string
		OS   string
		Arch string
		Libs []string

		KeepTemps bool
	}

	// LinkError is a failed link step.
	LinkError struct {
		Output string
		Err    error
	}
)

// DefaultOptions reads toolchain and target settings from the environment.
func DefaultOptions() Options {
	return Options{
		Output:    "a.out",
		CC:        env.Str("CC", "cc"),
		OS:        runtime.GOOS,
		Arch:      env.Str("BASICC_ARCH", runtime.GOARCH),
		Libs:      []string{"m"},
		KeepTemps: env.Bool("BASICC_KEEP_TEMPS"),
	}
}

func NewContext(opts Options) (*back.Context, error) {
	a, err := back.NewArch(opts.OS, opts.Arch)
	if err != nil {
		return nil, err
	}

	c := back.New(a)

	c.DebugInfo = opts.Debug
	c.DumpIR = opts.Verbose

	if opts.CC != "" {
		c.CC = opts.CC
	}

	return c, nil
}

// Build terminates the main routine and turns the context into an executable at opts.Output.
// Nothing is left at opts.Output if it fails.
func Build(ctx context.Context, c *back.Context, opts Options) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile: build", "out", opts.Output, "debug", opts.Debug)
	defer tr.Finish("err", &err)

	f := c.Main()

	if !f.Terminated() {
		err = f.EndWithReturn(0)
		if err != nil {
			return errors.Wrap(err, "terminate %v", f.Name)
		}
	}

	obj := ObjectPath(opts.Output)

	assembled := false

	// the assembler may leave a partial object on failure
	defer func() {
		if opts.KeepTemps && assembled {
			tr.Printw("keep object", "path", obj)
			return
		}

		if e := os.Remove(obj); e != nil && !errors.Is(e, os.ErrNotExist) {
			tlog.Printw("warning: remove intermediate object", "path", obj, "err", e)
		}
	}()

	err = c.CompileToFile(ctx, back.Object, obj)
	if err != nil {
		return errors.Wrap(err, "compile object")
	}

	assembled = true

	return Link(ctx, opts, obj)
}

// Link links into a temporary file next to opts.Output and renames it on success.
func Link(ctx context.Context, opts Options, objs ...string) (err error) {
	out := opts.Output
	dir, base := filepath.Split(out)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create output")
	}

	tmp := f.Name()

	err = f.Close()
	if err != nil {
		return errors.Wrap(err, "create output")
	}

	defer func() {
		if err == nil {
			return
		}

		_ = os.Remove(tmp)
	}()

	cc := opts.CC
	if cc == "" {
		cc = "cc"
	}

	err = asm.Link(ctx, cc, opts.Debug, tmp, objs, opts.Libs)
	if err != nil {
		return &LinkError{Output: out, Err: err}
	}

	err = os.Chmod(tmp, 0o755)
	if err != nil {
		return errors.Wrap(err, "chmod output")
	}

	err = os.Rename(tmp, out)
	if err != nil {
		return errors.Wrap(err, "rename output")
	}

	return nil
}

// ObjectPath is the intermediate object file for the output.
func ObjectPath(out string) string {
	obj := strings.TrimSuffix(out, filepath.Ext(out)) + ".o"

	if obj == out {
		obj += ".o"
	}

	return obj
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link %v: %v", e.Output, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }
