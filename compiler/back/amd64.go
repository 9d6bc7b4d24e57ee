package back

import (
	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/basicc/compiler/ir"
)

type (
	// AMD64 is x86-64 ELF with System V calling convention.
	AMD64 struct{}
)

var amd64ArgRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

func (AMD64) Name() string { return "amd64" }

func (AMD64) Func(b []byte, name string, frame int) []byte {
	b = hfmt.Appendf(b, `
	.globl	%[1]s
	.type	%[1]s, @function
%[1]s:
	pushq	%%rbp
	movq	%%rsp, %%rbp
`, name)

	if frame != 0 {
		b = hfmt.Appendf(b, "\tsubq\t$%d, %%rsp\n", frame)
	}

	return b
}

func (AMD64) EndFunc(b []byte, name string) []byte {
	return hfmt.Appendf(b, "\t.size\t%[1]s, .-%[1]s\n", name)
}

func (AMD64) Comment(b []byte, text string) []byte {
	return hfmt.Appendf(b, "\t# %s\n", text)
}

func (AMD64) Call(b []byte, sym string, args []string) []byte {
	stack := 0
	if len(args) > len(amd64ArgRegs) {
		stack = len(args) - len(amd64ArgRegs)
	}

	pad := stack % 2 * 8

	if pad != 0 {
		b = hfmt.Appendf(b, "\tsubq\t$%d, %%rsp\n", pad)
	}

	for i := len(args) - 1; i >= len(amd64ArgRegs); i-- {
		b = hfmt.Appendf(b, "\tleaq\t%s(%%rip), %%rax\n\tpushq\t%%rax\n", args[i])
	}

	for i := 0; i < len(args) && i < len(amd64ArgRegs); i++ {
		b = hfmt.Appendf(b, "\tleaq\t%s(%%rip), %%%s\n", args[i], amd64ArgRegs[i])
	}

	b = hfmt.Appendf(b, "\txorl\t%%eax, %%eax\n\tcall\t%s@PLT\n", sym)

	if stack != 0 {
		b = hfmt.Appendf(b, "\taddq\t$%d, %%rsp\n", stack*8+pad)
	}

	return b
}

func (AMD64) Store(b []byte, off, frame int, name string) []byte {
	return hfmt.Appendf(b, "\tmovl\t%%eax, %d(%%rbp)\t# %s\n", off-frame, name)
}

func (AMD64) Return(b []byte, v ir.Imm, frame int) []byte {
	return hfmt.Appendf(b, "\tmovl\t$%d, %%eax\n\tleave\n\tret\n", int32(v))
}

func (AMD64) Trailer(b []byte) []byte {
	return append(b, "\n\t.section\t.note.GNU-stack,\"\",@progbits\n"...)
}
