package tp

import (
	"fmt"

	"github.com/nikandfor/hacked/hfmt"
)

type (
	Type interface {
		Size() int
	}

	Func struct {
		In  []Type
		Out []Type

		Variadic bool
	}

	Int struct {
		Bits   int16
		Signed bool
	}

	Ptr struct {
		X Type
	}
)

var (
	Int32  = Int{Bits: 32, Signed: true}
	Char   = Int{Bits: 8, Signed: true}
	String = Ptr{X: Char}
)

func (x Int) Size() int {
	return int(x.Bits) / 8
}

func (x Ptr) Size() int {
	return 8
}

func (x Func) Size() int {
	return 8
}

func (x Int) String() string {
	if x.Signed {
		return fmt.Sprintf("int%d", x.Bits)
	}

	return fmt.Sprintf("uint%d", x.Bits)
}

func (x Ptr) String() string {
	return fmt.Sprintf("*%v", x.X)
}

func (x Func) String() string {
	b := []byte("func(")

	for i, t := range x.In {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = hfmt.Appendf(b, "%v", t)
	}

	if x.Variadic {
		if len(x.In) != 0 {
			b = append(b, ", "...)
		}

		b = append(b, "..."...)
	}

	b = append(b, ')')

	switch len(x.Out) {
	case 0:
	case 1:
		b = hfmt.Appendf(b, " %v", x.Out[0])
	default:
		b = append(b, " ("...)

		for i, t := range x.Out {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = hfmt.Appendf(b, "%v", t)
		}

		b = append(b, ')')
	}

	return string(b)
}
