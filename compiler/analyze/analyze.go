package analyze

import (
	"context"
	"strings"

	"github.com/google/btree"
	"tlog.app/go/tlog"

	"github.com/slowlang/basicc/compiler/ast"
)

type (
	// Collator keeps the latest definition of each line number in ascending order.
	Collator struct {
		lines *btree.BTreeG[ast.Line]
	}
)

// Collate applies lines in source order and returns the program with unique ascending line numbers.
// Every returned line has a statement.
func Collate(ctx context.Context, p *ast.Program) (_ *ast.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "analyze: collate", "lines", len(p.Lines))
	defer tr.Finish("err", &err)

	c := NewCollator()

	for _, l := range p.Lines {
		c.Set(l)
	}

	res := &ast.Program{
		Base:  p.Base,
		Lines: c.Lines(),
	}

	if tr.If("dump_collated") {
		for _, l := range res.Lines {
			tr.Printw("line", "num", l.Number.Text, "stmt", tlog.NextAsType, l.Stmt)
		}
	}

	tr.Printw("collated", "lines", len(res.Lines), "dropped", len(p.Lines)-len(res.Lines))

	return res, nil
}

func NewCollator() *Collator {
	return &Collator{
		lines: btree.NewG[ast.Line](4, lineLess),
	}
}

// Set defines the line or deletes it if it has no statement.
// Deleting undefined line is not an error.
func (c *Collator) Set(l ast.Line) {
	l.Number.Text = Normalize(l.Number.Text)

	if l.Stmt == nil {
		c.lines.Delete(l)
		return
	}

	c.lines.ReplaceOrInsert(l)
}

func (c *Collator) Get(num string) (ast.Line, bool) {
	return c.lines.Get(ast.Line{Number: ast.Number{Text: Normalize(num)}})
}

func (c *Collator) Len() int {
	return c.lines.Len()
}

func (c *Collator) Lines() []ast.Line {
	res := make([]ast.Line, 0, c.lines.Len())

	c.lines.Ascend(func(l ast.Line) bool {
		res = append(res, l)
		return true
	})

	return res
}

// Normalize strips leading zeros so equal line numbers have equal text.
func Normalize(num string) string {
	n := strings.TrimLeft(num, "0")
	if n == "" && num != "" {
		return "0"
	}

	return n
}

// Less compares normalized decimal numbers of any length.
func Less(x, y string) bool {
	if len(x) != len(y) {
		return len(x) < len(y)
	}

	return x < y
}

func lineLess(x, y ast.Line) bool {
	return Less(x.Number.Text, y.Number.Text)
}
