package ir

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/basicc/compiler/tp"
)

type (
	Package struct {
		Imports []Import
		Funcs   []*Func
	}

	// Import is an external function resolved by the linker.
	Import struct {
		Name string
		Type tp.Func
	}

	// Sym is an index into Package.Imports.
	Sym int

	// Func is a single block routine.
	// Code is executed in order and ends with Return.
	Func struct {
		Name string
		Type tp.Func

		Locals []Local
		Code   []Op

		names      map[string]Var
		terminated bool
	}

	Local struct {
		Name string
		Type tp.Type
	}

	// Var is an index into Func.Locals.
	Var int

	Op any

	Comment struct {
		Text string
	}

	Call struct {
		Func Sym
		Args []Value
	}

	Eval struct {
		Call Call
	}

	Assign struct {
		Local Var
		Call  Call
	}

	Return struct {
		Value Imm
	}

	Value any

	Str string
	Imm int64

	DuplicateLocalError struct {
		Func string
		Name string
	}

	TerminatedError struct {
		Func string
	}
)

const (
	Nil Sym = -1
)

// Import declares external function.
// Importing the same name again returns the first declaration.
func (p *Package) Import(name string, t tp.Func) Sym {
	for i, imp := range p.Imports {
		if imp.Name == name {
			return Sym(i)
		}
	}

	p.Imports = append(p.Imports, Import{
		Name: name,
		Type: t,
	})

	return Sym(len(p.Imports) - 1)
}

func (p *Package) NewFunc(name string, t tp.Func) *Func {
	f := &Func{
		Name: name,
		Type: t,
	}

	p.Funcs = append(p.Funcs, f)

	return f
}

func (p *Package) Func(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

func (f *Func) AddComment(text string) error {
	return f.add(Comment{Text: text})
}

func (f *Func) NewLocal(name string, t tp.Type) (Var, error) {
	if _, ok := f.names[name]; ok {
		return -1, DuplicateLocalError{Func: f.Name, Name: name}
	}

	if f.names == nil {
		f.names = make(map[string]Var)
	}

	v := Var(len(f.Locals))

	f.Locals = append(f.Locals, Local{
		Name: name,
		Type: t,
	})

	f.names[name] = v

	return v, nil
}

func (f *Func) AddEval(c Call) error {
	return f.add(Eval{Call: c})
}

func (f *Func) AddAssignment(v Var, c Call) error {
	if v < 0 || int(v) >= len(f.Locals) {
		return errors.New("func %v: no such local: %d", f.Name, v)
	}

	return f.add(Assign{Local: v, Call: c})
}

func (f *Func) EndWithReturn(v Imm) error {
	err := f.add(Return{Value: v})
	if err != nil {
		return err
	}

	f.terminated = true

	return nil
}

func (f *Func) Terminated() bool { return f.terminated }

func (f *Func) add(op Op) error {
	if f.terminated {
		return TerminatedError{Func: f.Name}
	}

	f.Code = append(f.Code, op)

	return nil
}

func (e DuplicateLocalError) Error() string {
	return fmt.Sprintf("func %v: duplicate local %q", e.Func, e.Name)
}

func (e TerminatedError) Error() string {
	return fmt.Sprintf("func %v: op after return", e.Func)
}

func (c Call) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKeyInt64(b, "func", int64(c.Func))
	b = e.AppendKeyInt64(b, "args", int64(len(c.Args)))

	return b
}
