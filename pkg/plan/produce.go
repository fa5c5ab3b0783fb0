package plan

import (
	"context"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/result"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// NamedExpr pairs a RETURN/WITH projection expression with the output column name it
// is bound under.
type NamedExpr struct {
	Name string
	Expr expr.Node
}

// Produce evaluates every NamedExpr against each row pulled from Input and writes the
// result as one row on Stream. The header is written exactly once, on the first Pull.
// Produce still binds each projected value onto ResultSyms so operators above it in the
// tree (ORDER BY, DISTINCT) can read the same values without re-evaluating the
// expressions.
type Produce struct {
	Input      Cursor
	Columns    []NamedExpr
	ResultSyms []symbol.Symbol
	Stream     result.Stream

	headerWritten bool
	rowsWritten   int
}

func (c *Produce) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	if !c.headerWritten {
		names := make([]string, len(c.Columns))
		for i, col := range c.Columns {
			names[i] = col.Name
		}
		if err := c.Stream.WriteHeader(names); err != nil {
			return false, err
		}
		c.headerWritten = true
	}
	values := make([]value.Typed, len(c.Columns))
	for i, col := range c.Columns {
		v, err := col.Expr.Eval(ctx.evalCtx(frame, value.AsIs))
		if err != nil {
			return false, err
		}
		values[i] = v
		frame.Set(c.ResultSyms[i], v)
	}
	if err := c.Stream.WriteRow(values); err != nil {
		return false, err
	}
	c.rowsWritten++
	return true, nil
}

func (c *Produce) Reset() {
	c.Input.Reset()
	c.headerWritten = false
	c.rowsWritten = 0
}

// Optional pulls from Right once per row from Left, resetting Right for each. If Right
// produces zero rows for a given left row, Optional emits exactly one row with every
// symbol in RightSyms set to Null rather than dropping the left row — the left-outer-join
// behavior LEFT-side pattern clauses with OPTIONAL MATCH require. If Left itself has no
// operator (a bare OPTIONAL MATCH at the start of a query) Left should be a *Once, which
// already supplies the single empty-row semantics this operator needs.
type Optional struct {
	Left      Cursor
	Right     Cursor
	RightSyms []symbol.Symbol

	rightOpen     bool
	rightProduced bool
}

func (c *Optional) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		if c.rightOpen {
			ok, err := c.Right.Pull(frame, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				c.rightProduced = true
				return true, nil
			}
			c.rightOpen = false
			if !c.rightProduced {
				for _, sym := range c.RightSyms {
					frame.Set(sym, value.Null())
				}
				return true, nil
			}
			continue
		}
		ok, err := c.Left.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		c.Right.Reset()
		c.rightOpen = true
		c.rightProduced = false
	}
}

func (c *Optional) Reset() {
	c.Left.Reset()
	c.Right.Reset()
	c.rightOpen = false
	c.rightProduced = false
}

// Unwind expands the list Expr evaluates to into one row per element, bound at Symbol.
// A non-list value is treated as a single-element list (Cypher's UNWIND semantics);
// Null unwinds to zero rows.
type Unwind struct {
	Input  Cursor
	Expr   expr.Node
	Symbol symbol.Symbol

	items []value.Typed
	pos   int
	have  bool
}

func (c *Unwind) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		if c.have && c.pos < len(c.items) {
			frame.Set(c.Symbol, c.items[c.pos])
			c.pos++
			return true, nil
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			c.have = false
			return false, err
		}
		v, err := c.Expr.Eval(ctx.evalCtx(frame, value.AsIs))
		if err != nil {
			return false, err
		}
		switch v.Kind() {
		case value.KindNull:
			c.items = nil
		case value.KindList:
			list, _ := v.AsList()
			c.items = list
		default:
			c.items = []value.Typed{v}
		}
		c.pos = 0
		c.have = true
	}
}

func (c *Unwind) Reset() {
	c.Input.Reset()
	c.items = nil
	c.pos = 0
	c.have = false
}
