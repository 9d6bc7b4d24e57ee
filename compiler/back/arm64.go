package back

import (
	"strconv"

	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/basicc/compiler/ir"
)

type (
	// ARM64 is AArch64 ELF with AAPCS64 calling convention.
	ARM64 struct{}
)

const arm64ArgRegs = 8

func (ARM64) Name() string { return "arm64" }

func (a ARM64) Func(b []byte, name string, frame int) []byte {
	b = hfmt.Appendf(b, `
	.globl	%[1]s
	.type	%[1]s, %%function
	.p2align	2
%[1]s:
	stp	x29, x30, [sp, #-16]!
	mov	x29, sp
`, name)

	return a.moveSP(b, "sub", frame)
}

func (ARM64) EndFunc(b []byte, name string) []byte {
	return hfmt.Appendf(b, "\t.size\t%[1]s, .-%[1]s\n", name)
}

func (ARM64) Comment(b []byte, text string) []byte {
	return hfmt.Appendf(b, "\t// %s\n", text)
}

func (a ARM64) Call(b []byte, sym string, args []string) []byte {
	stack := 0
	if len(args) > arm64ArgRegs {
		stack = alignUp(8*(len(args)-arm64ArgRegs), 16)
	}

	b = a.moveSP(b, "sub", stack)

	for i := arm64ArgRegs; i < len(args); i++ {
		b = a.addr(b, "x9", args[i])
		b = a.offset(b, "str\tx9", 8*(i-arm64ArgRegs))
	}

	for i := 0; i < len(args) && i < arm64ArgRegs; i++ {
		b = a.addr(b, "x"+strconv.Itoa(i), args[i])
	}

	b = hfmt.Appendf(b, "\tbl\t%s\n", sym)

	return a.moveSP(b, "add", stack)
}

func (a ARM64) Store(b []byte, off, frame int, name string) []byte {
	b = a.offset(b, "str\tw0", off)

	return hfmt.Appendf(b, "\t// %s\n", name)
}

func (ARM64) Return(b []byte, v ir.Imm, frame int) []byte {
	if v >= 0 && v < 1<<16 {
		b = hfmt.Appendf(b, "\tmov\tw0, #%d\n", int64(v))
	} else {
		b = hfmt.Appendf(b, "\tldr\tw0, =%d\n", int32(v))
	}

	return append(b, "\tmov\tsp, x29\n\tldp\tx29, x30, [sp], #16\n\tret\n"...)
}

func (ARM64) Trailer(b []byte) []byte {
	return append(b, "\n\t.section\t.note.GNU-stack,\"\",%progbits\n"...)
}

func (ARM64) addr(b []byte, reg, label string) []byte {
	return hfmt.Appendf(b, "\tadrp\t%[1]s, %[2]s\n\tadd\t%[1]s, %[1]s, :lo12:%[2]s\n", reg, label)
}

// offset emits "<op>, [sp, #off]" using x10 for offsets out of the immediate range.
func (ARM64) offset(b []byte, op string, off int) []byte {
	if off < 1<<12 {
		return hfmt.Appendf(b, "\t%s, [sp, #%d]\n", op, off)
	}

	return hfmt.Appendf(b, "\tldr\tx10, =%d\n\t%s, [sp, x10]\n", off, op)
}

func (ARM64) moveSP(b []byte, op string, n int) []byte {
	switch {
	case n == 0:
		return b
	case n < 1<<12:
		return hfmt.Appendf(b, "\t%s\tsp, sp, #%d\n", op, n)
	default:
		return hfmt.Appendf(b, "\tldr\tx10, =%d\n\t%s\tsp, sp, x10\n", n, op)
	}
}
