package back

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/basicc/compiler/ir"
	"github.com/slowlang/basicc/compiler/tp"
)

var printfType = tp.Func{
	In:       []tp.Type{tp.String},
	Out:      []tp.Type{tp.Int32},
	Variadic: true,
}

func TestAMD64(t *testing.T) {
	c := New(AMD64{})

	printLine(t, c, "10", "%s %s\n", "1", "A1")
	require.NoError(t, c.Main().EndWithReturn(0))

	b, err := c.Assemble(context.Background())
	require.NoError(t, err)

	text := string(b)

	assert.Contains(t, text, "\t.globl\tmain\n")
	assert.Contains(t, text, "main:\n\tpushq\t%rbp\n\tmovq\t%rsp, %rbp\n\tsubq\t$16, %rsp\n")
	assert.Contains(t, text, "\t# line 10\n")
	assert.Contains(t, text, "\tleaq\t.LC0(%rip), %rdi\n\tleaq\t.LC1(%rip), %rsi\n\tleaq\t.LC2(%rip), %rdx\n")
	assert.Contains(t, text, "\txorl\t%eax, %eax\n\tcall\tprintf@PLT\n")
	assert.Contains(t, text, "\tmovl\t%eax, -16(%rbp)\t# printf.line.10\n")
	assert.Contains(t, text, "\tmovl\t$0, %eax\n\tleave\n\tret\n")
	assert.Contains(t, text, ".LC0:\n\t.string\t\"%s %s\\n\"\n")
	assert.Contains(t, text, ".LC2:\n\t.string\t\"A1\"\n")
	assert.Contains(t, text, ".note.GNU-stack")

	assert.NotContains(t, text, "addq")
}

func TestAMD64StackArgs(t *testing.T) {
	for _, tc := range []struct {
		N     int
		Pad   bool
		Stack int
	}{
		{N: 7, Pad: true, Stack: 16},
		{N: 8, Pad: false, Stack: 16},
		{N: 9, Pad: true, Stack: 32},
	} {
		c := New(AMD64{})

		args := make([]string, tc.N-1)
		for i := range args {
			args[i] = strconv.Itoa(i)
		}

		printLine(t, c, "10", strings.Repeat("%s ", len(args)), args...)
		require.NoError(t, c.Main().EndWithReturn(0))

		b, err := c.Assemble(context.Background())
		require.NoError(t, err)

		text := string(b)

		assert.Equal(t, tc.N-6, strings.Count(text, "\tpushq\t%rax\n"), "args %d", tc.N)
		assert.Equal(t, tc.Pad, strings.Contains(text, "\tsubq\t$8, %rsp\n"), "args %d", tc.N)
		assert.Contains(t, text, "\taddq\t$"+strconv.Itoa(tc.Stack)+", %rsp\n", "args %d", tc.N)

		// last argument is pushed first
		last := strings.Index(text, "\tleaq\t.LC"+strconv.Itoa(tc.N-1)+"(%rip), %rax\n")
		first := strings.Index(text, "\tleaq\t.LC6(%rip), %rax\n")
		assert.True(t, last >= 0 && last <= first, "args %d", tc.N)
	}
}

func TestARM64(t *testing.T) {
	c := New(ARM64{})

	printLine(t, c, "10", "%s %s\n", "1", "A1")
	require.NoError(t, c.Main().EndWithReturn(0))

	b, err := c.Assemble(context.Background())
	require.NoError(t, err)

	text := string(b)

	assert.Contains(t, text, "main:\n\tstp\tx29, x30, [sp, #-16]!\n\tmov\tx29, sp\n\tsub\tsp, sp, #16\n")
	assert.Contains(t, text, "\t// line 10\n")
	assert.Contains(t, text, "\tadrp\tx0, .LC0\n\tadd\tx0, x0, :lo12:.LC0\n")
	assert.Contains(t, text, "\tadrp\tx2, .LC2\n\tadd\tx2, x2, :lo12:.LC2\n")
	assert.Contains(t, text, "\tbl\tprintf\n")
	assert.Contains(t, text, "\tstr\tw0, [sp, #0]\n")
	assert.Contains(t, text, "\tmov\tw0, #0\n\tmov\tsp, x29\n\tldp\tx29, x30, [sp], #16\n\tret\n")
	assert.Contains(t, text, ".LC1:\n\t.string\t\"1\"\n")
}

func TestARM64StackArgs(t *testing.T) {
	c := New(ARM64{})

	args := make([]string, 9)
	for i := range args {
		args[i] = strconv.Itoa(i + 1)
	}

	printLine(t, c, "10", strings.Repeat("%s ", len(args)), args...)
	require.NoError(t, c.Main().EndWithReturn(0))

	b, err := c.Assemble(context.Background())
	require.NoError(t, err)

	text := string(b)

	// 10 args: 2 on the stack, 16 bytes
	assert.Contains(t, text, "\tstr\tx9, [sp, #0]\n")
	assert.Contains(t, text, "\tstr\tx9, [sp, #8]\n")
	assert.Contains(t, text, "\tadd\tsp, sp, #16\n\tstr\tw0, [sp, #0]\n")
	assert.Contains(t, text, "\tadrp\tx7, .LC7\n")
	assert.NotContains(t, text, "\tadrp\tx8,")
}

func TestStringsDeduplicated(t *testing.T) {
	c := New(AMD64{})

	printLine(t, c, "10", "%s\n", "same")
	printLine(t, c, "20", "%s\n", "same")
	require.NoError(t, c.Main().EndWithReturn(0))

	b, err := c.Assemble(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(string(b), ".string\t\"same\""))
	assert.Equal(t, 1, strings.Count(string(b), ".string\t\"%s\\n\""))
	assert.Equal(t, 2, strings.Count(string(b), "call\tprintf@PLT"))
	assert.Contains(t, string(b), "\tmovl\t%eax, -12(%rbp)\t# printf.line.20\n")
}

func TestEmptyMain(t *testing.T) {
	for _, a := range []Arch{AMD64{}, ARM64{}} {
		c := New(a)
		require.NoError(t, c.Main().EndWithReturn(0))

		b, err := c.Assemble(context.Background())
		require.NoError(t, err)

		assert.Contains(t, string(b), "main:\n", a.Name())
		assert.NotContains(t, string(b), ".rodata", a.Name())
		assert.NotContains(t, string(b), "sub", a.Name())
	}
}

func TestNotTerminated(t *testing.T) {
	c := New(AMD64{})
	c.Main()

	_, err := c.Assemble(context.Background())
	assert.ErrorContains(t, err, "not terminated")
}

func TestCompileToFile(t *testing.T) {
	ctx := context.Background()

	c := New(ARM64{})
	printLine(t, c, "10", "%s\n", "x")
	require.NoError(t, c.Main().EndWithReturn(0))

	path := filepath.Join(t.TempDir(), "out.s")

	err := c.CompileToFile(ctx, Assembler, path)
	require.NoError(t, err)

	exp, err := c.Assemble(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, exp, data)

	err = c.CompileToFile(ctx, Assembler, filepath.Join(t.TempDir(), "no", "such", "dir.s"))

	var e *Error
	if assert.ErrorAs(t, err, &e) {
		assert.Equal(t, Assembler, e.Kind)
	}
}

func TestNewArch(t *testing.T) {
	a, err := NewArch("linux", "amd64")
	require.NoError(t, err)
	assert.Equal(t, "amd64", a.Name())

	a, err = NewArch("linux", "arm64")
	require.NoError(t, err)
	assert.Equal(t, "arm64", a.Name())

	_, err = NewArch("darwin", "arm64")
	assert.EqualError(t, err, "unsupported target: darwin/arm64")

	_, err = NewArch("linux", "riscv64")
	assert.ErrorAs(t, err, &UnsupportedTargetError{})
}

func TestAppendQuote(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\n\t\303\251"`, string(AppendQuote(nil, "a\"b\\c\n\té")))
	assert.Equal(t, `"100%"`, string(AppendQuote(nil, "100%")))
	assert.Equal(t, `"\000\177"`, string(AppendQuote(nil, "\x00\x7f")))
}

func printLine(t *testing.T, c *Context, num, format string, args ...string) {
	t.Helper()

	f := c.Main()
	sym := c.Import("printf", printfType)

	v, err := f.NewLocal("printf.line."+num, tp.Int32)
	require.NoError(t, err)

	vals := []ir.Value{ir.Str(format)}
	for _, a := range args {
		vals = append(vals, ir.Str(a))
	}

	require.NoError(t, f.AddComment("line "+num))
	require.NoError(t, f.AddAssignment(v, ir.Call{Func: sym, Args: vals}))
}
