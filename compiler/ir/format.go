package ir

import (
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
)

// Format renders the package as C-like pseudo code for dumps.
func Format(b []byte, p *Package) []byte {
	for _, imp := range p.Imports {
		b = hfmt.Appendf(b, "extern %s %v;\n", imp.Name, imp.Type)
	}

	for _, f := range p.Funcs {
		b = hfmt.Appendf(b, "\n%s %v {\n", f.Name, f.Type)

		for _, l := range f.Locals {
			b = hfmt.Appendf(b, "\t%v %q;\n", l.Type, l.Name)
		}

		for _, op := range f.Code {
			b = append(b, '\t')
			b = formatOp(b, p, f, op)
			b = append(b, '\n')
		}

		b = append(b, "}\n"...)
	}

	return b
}

func formatOp(b []byte, p *Package, f *Func, op Op) []byte {
	switch op := op.(type) {
	case Comment:
		b = hfmt.Appendf(b, "/* %s */", op.Text)
	case Eval:
		b = formatCall(b, p, op.Call)
		b = append(b, ';')
	case Assign:
		b = hfmt.Appendf(b, "%q = ", f.Locals[op.Local].Name)
		b = formatCall(b, p, op.Call)
		b = append(b, ';')
	case Return:
		b = hfmt.Appendf(b, "return %d;", op.Value)
	default:
		b = hfmt.Appendf(b, "<%T>", op)
	}

	return b
}

func formatCall(b []byte, p *Package, c Call) []byte {
	if c.Func >= 0 && int(c.Func) < len(p.Imports) {
		b = append(b, p.Imports[c.Func].Name...)
	} else {
		b = hfmt.Appendf(b, "sym%d", c.Func)
	}

	b = append(b, '(')

	for i, a := range c.Args {
		if i != 0 {
			b = append(b, ", "...)
		}

		switch a := a.(type) {
		case Str:
			b = strconv.AppendQuote(b, string(a))
		case Imm:
			b = strconv.AppendInt(b, int64(a), 10)
		default:
			b = hfmt.Appendf(b, "<%T>", a)
		}
	}

	return append(b, ')')
}
