// Package plan implements the pull-based tree of logical operators that streams
// records through scans, expansions, filters and writes. This is a pull-based cursor
// pipeline rather than a tree-walking interpreter, so the operator tree's shape is
// grounded directly in the query-execution contract each operator must satisfy; each
// cursor follows a first-error-wins, no-per-row-recovery error-propagation idiom.
package plan

import (
	"context"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// Cursor is the pull interface every logical operator exposes. Pull returns true if it
// assigned to its output Symbols on frame; false once exhausted. A Cursor that has
// returned false must keep returning false on every subsequent call.
type Cursor interface {
	Pull(frame *symbol.Frame, ctx *Context) (bool, error)
	Reset()
}

// Context carries execution-wide state shared by every cursor in one query's tree:
// the accessor for the owning transaction, the query parameters, and a cancellation
// signal checked at pull boundaries. evalCtx builds an expression-evaluation context
// from these per call.
type Context struct {
	Accessor   storage.Accessor
	Parameters map[string]value.Typed
	Ctx        context.Context
}

// Cancelled reports whether the execution's context has been cancelled or its deadline
// exceeded. Cursors whose Pull does nontrivial work (scans, expansions, buffering
// operators) check this at each pull boundary.
func (c *Context) Cancelled() bool {
	select {
	case <-c.Ctx.Done():
		return true
	default:
		return false
	}
}

// evalCtx builds an expr.Context for evaluating an expression against frame under the
// given view.
func (c *Context) evalCtx(frame *symbol.Frame, view value.View) *expr.Context {
	return &expr.Context{Frame: frame, Accessor: c.Accessor, View: view, Parameters: c.Parameters}
}

// Once produces exactly one empty row, then is exhausted. It is the base of every
// pattern that does not start with a scan (e.g. `RETURN 1`, or the Left input of
// Optional for a bare OPTIONAL MATCH).
type Once struct {
	done bool
}

func (c *Once) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if c.done {
		return false, nil
	}
	c.done = true
	return true, nil
}

func (c *Once) Reset() { c.done = false }

// ScanAll emits one row per vertex in the accessor's view, binding each to Symbol.
type ScanAll struct {
	Symbol symbol.Symbol
	View   value.View

	it storage.VertexIterator
}

func (c *ScanAll) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	if c.it == nil {
		c.it = ctx.Accessor.Vertices(c.View)
	}
	h, ok := c.it.Next()
	if !ok {
		return false, nil
	}
	frame.Set(c.Symbol, value.Vertex(h))
	return true, nil
}

func (c *ScanAll) Reset() { c.it = nil }

// ScanAllByLabel restricts ScanAll to vertices carrying Label, using the accessor's
// label index.
type ScanAllByLabel struct {
	Symbol symbol.Symbol
	Label  storage.LabelID
	View   value.View

	it storage.VertexIterator
}

func (c *ScanAllByLabel) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	if c.it == nil {
		c.it = ctx.Accessor.VerticesByLabel(c.Label, c.View)
	}
	h, ok := c.it.Next()
	if !ok {
		return false, nil
	}
	frame.Set(c.Symbol, value.Vertex(h))
	return true, nil
}

func (c *ScanAllByLabel) Reset() { c.it = nil }

// ScanAllByLabelProperty probes the label-property index for vertices carrying Label
// with property Prop equal to Expr. It is an index probe: Expr is evaluated once, the
// first time Pull is called after a Reset, not once per candidate vertex.
type ScanAllByLabelProperty struct {
	Symbol symbol.Symbol
	Label  storage.LabelID
	Prop   storage.PropertyID
	Expr   expr.Node
	View   value.View

	it storage.VertexIterator
}

func (c *ScanAllByLabelProperty) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	if c.it == nil {
		v, err := c.Expr.Eval(ctx.evalCtx(frame, c.View))
		if err != nil {
			return false, err
		}
		c.it = ctx.Accessor.VerticesByLabelProperty(c.Label, c.Prop, v, c.View)
	}
	h, ok := c.it.Next()
	if !ok {
		return false, nil
	}
	frame.Set(c.Symbol, value.Vertex(h))
	return true, nil
}

func (c *ScanAllByLabelProperty) Reset() { c.it = nil }
