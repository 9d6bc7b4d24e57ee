package back

import (
	"context"
	"fmt"
	"os"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/basicc/compiler/asm"
	"github.com/slowlang/basicc/compiler/ir"
	"github.com/slowlang/basicc/compiler/tp"
)

type (
	// Arch emits GNU assembler text for one target.
	Arch interface {
		Name() string

		Func(b []byte, name string, frame int) []byte
		EndFunc(b []byte, name string) []byte

		Comment(b []byte, text string) []byte

		// Call calls variadic function with all the arguments being data labels.
		Call(b []byte, sym string, args []string) []byte

		// Store saves int32 call result into the slot at off bytes above the frame bottom.
		Store(b []byte, off, frame int, name string) []byte

		Return(b []byte, v ir.Imm, frame int) []byte

		Trailer(b []byte) []byte
	}

	// Context is a target code generation context.
	// It accumulates routines and lowers them to assembly or object code.
	Context struct {
		Arch Arch

		*ir.Package

		DebugInfo bool
		DumpIR    bool

		CC string
	}

	OutputKind int

	// Error is a failure to materialize the output file.
	Error struct {
		Kind OutputKind
		Path string
		Err  error
	}

	UnsupportedTargetError struct {
		OS, Arch string
	}

	pkgContext struct {
		strs map[string]string
		data []string
	}

	funContext struct {
		slots []int
		frame int
	}
)

const (
	Assembler OutputKind = iota
	Object
)

func New(a Arch) *Context {
	return &Context{
		Arch:    a,
		Package: &ir.Package{},
		CC:      "cc",
	}
}

func NewArch(goos, goarch string) (Arch, error) {
	if goos == "linux" {
		switch goarch {
		case "amd64":
			return AMD64{}, nil
		case "arm64":
			return ARM64{}, nil
		}
	}

	return nil, UnsupportedTargetError{OS: goos, Arch: goarch}
}

// Main is the program entry routine, int main(int, char **).
func (c *Context) Main() *ir.Func {
	if f := c.Package.Func("main"); f != nil {
		return f
	}

	return c.Package.NewFunc("main", tp.Func{
		In:  []tp.Type{tp.Int32, tp.Ptr{X: tp.String}},
		Out: []tp.Type{tp.Int32},
	})
}

func (c *Context) CompileToFile(ctx context.Context, kind OutputKind, path string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile to file", "kind", kind, "path", path)
	defer tr.Finish("err", &err)

	text, err := c.Assemble(ctx)
	if err != nil {
		return &Error{Kind: kind, Path: path, Err: err}
	}

	switch kind {
	case Assembler:
		err = os.WriteFile(path, text, 0o644)
	case Object:
		err = asm.Assemble(ctx, c.CC, c.DebugInfo, text, path)
	default:
		err = errors.New("unsupported output kind: %v", kind)
	}

	if err != nil {
		return &Error{Kind: kind, Path: path, Err: err}
	}

	return nil
}

func (c *Context) Assemble(ctx context.Context) (b []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: assemble", "arch", c.Arch.Name(), "funcs", len(c.Funcs))
	defer tr.Finish("err", &err)

	if c.DumpIR {
		tr.Printw("ir", "text", string(ir.Format(nil, c.Package)))
	}

	p := &pkgContext{
		strs: make(map[string]string),
	}

	b = append(b, "\t.text\n"...)

	for _, f := range c.Funcs {
		b, err = c.compileFunc(ctx, b, p, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	if len(p.data) != 0 {
		b = append(b, "\n\t.section\t.rodata\n"...)

		for i, s := range p.data {
			b = hfmt.Appendf(b, ".LC%d:\n\t.string\t", i)
			b = AppendQuote(b, s)
			b = append(b, '\n')
		}
	}

	b = c.Arch.Trailer(b)

	if c.DumpIR {
		tr.Printw("assembly", "text", string(b))
	}

	return b, nil
}

func (c *Context) compileFunc(ctx context.Context, b []byte, p *pkgContext, f *ir.Func) (_ []byte, err error) {
	if !f.Terminated() {
		return nil, errors.New("not terminated")
	}

	fc := &funContext{}

	off := 0

	for _, l := range f.Locals {
		size := l.Type.Size()
		if size != 4 {
			return nil, errors.New("local %q: unsupported type %v", l.Name, l.Type)
		}

		off = alignUp(off, size)
		fc.slots = append(fc.slots, off)
		off += size
	}

	fc.frame = alignUp(off, 16)

	tlog.SpanFromContext(ctx).V("frame").Printw("frame", "func", f.Name, "locals", len(f.Locals), "frame", fc.frame)

	b = c.Arch.Func(b, f.Name, fc.frame)

	for _, op := range f.Code {
		switch op := op.(type) {
		case ir.Comment:
			b = c.Arch.Comment(b, op.Text)
		case ir.Eval:
			b, err = c.compileCall(b, p, op.Call)
		case ir.Assign:
			b, err = c.compileCall(b, p, op.Call)
			if err == nil {
				b = c.Arch.Store(b, fc.slots[op.Local], fc.frame, f.Locals[op.Local].Name)
			}
		case ir.Return:
			b = c.Arch.Return(b, op.Value, fc.frame)
		default:
			err = errors.New("unsupported op: %T", op)
		}

		if err != nil {
			return nil, err
		}
	}

	b = c.Arch.EndFunc(b, f.Name)

	return b, nil
}

func (c *Context) compileCall(b []byte, p *pkgContext, call ir.Call) ([]byte, error) {
	if call.Func < 0 || int(call.Func) >= len(c.Imports) {
		return nil, errors.New("call: no such symbol: %d", call.Func)
	}

	args := make([]string, len(call.Args))

	for i, a := range call.Args {
		s, ok := a.(ir.Str)
		if !ok {
			return nil, errors.New("call %v: unsupported arg %d: %T", c.Imports[call.Func].Name, i, a)
		}

		args[i] = p.str(string(s))
	}

	return c.Arch.Call(b, c.Imports[call.Func].Name, args), nil
}

// str returns the label of a read-only copy of s.
func (p *pkgContext) str(s string) string {
	if l, ok := p.strs[s]; ok {
		return l
	}

	l := fmt.Sprintf(".LC%d", len(p.data))

	p.strs[s] = l
	p.data = append(p.data, s)

	return l
}

// AppendQuote appends s as a GNU assembler string literal.
func AppendQuote(b []byte, s string) []byte {
	b = append(b, '"')

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '"' || c == '\\':
			b = append(b, '\\', c)
		case c == '\n':
			b = append(b, '\\', 'n')
		case c == '\t':
			b = append(b, '\\', 't')
		case c >= 0x20 && c < 0x7f:
			b = append(b, c)
		default:
			b = append(b, '\\', '0'+c>>6, '0'+c>>3&7, '0'+c&7)
		}
	}

	return append(b, '"')
}

func alignUp(x, a int) int {
	return (x + a - 1) &^ (a - 1)
}

func (k OutputKind) String() string {
	switch k {
	case Assembler:
		return "assembler"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("OutputKind(%d)", int(k))
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: %v %v: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target: %v/%v", e.OS, e.Arch)
}
