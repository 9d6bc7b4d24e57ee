package ast

type (
	Node interface {
	}

	Base struct {
		Pos int
		End int
	}

	Program struct {
		Base `tlog:",embed"`

		Lines []Line
	}

	// Line is a numbered source line.
	// Line without a statement deletes previous definition of the same number.
	Line struct {
		Base `tlog:",embed"`

		Number Number
		Stmt   Stmt `tlog:",omitempty"`
	}

	Stmt interface {
		Node
		stmt()
	}

	Comment struct {
		Base `tlog:",embed"`

		Text string
	}

	Print struct {
		Base `tlog:",embed"`

		Exprs []LabeledExpr
	}

	LabeledExpr struct {
		Base `tlog:",embed"`

		Label *String `tlog:",omitempty"`
		Expr  Expr
	}

	Expr interface {
		Node
		expr()
	}

	// Number is kept as written, digits are never converted to a machine integer.
	Number struct {
		Base `tlog:",embed"`

		Text string
	}

	String struct {
		Base `tlog:",embed"`

		Value string
	}
)

func (*Comment) stmt() {}
func (*Print) stmt()   {}

func (Number) expr() {}
func (String) expr() {}
