package plan

import (
	"context"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// PropertySet is one `key: expr` entry in a CREATE/MERGE property map or a SET clause.
type PropertySet struct {
	Name string
	Expr expr.Node
}

// CreateNode pulls one row from Input, inserts a new vertex, applies Labels and Props
// to it, binds it to Symbol, and passes the row through. Because InsertVertex is
// visible under NEW immediately, a later clause in the same query can read back what
// this operator just wrote without committing.
type CreateNode struct {
	Input  Cursor
	Symbol symbol.Symbol
	Labels []storage.LabelID
	Props  []PropertySet
}

func (c *CreateNode) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	v := ctx.Accessor.InsertVertex()
	if len(c.Labels) > 0 {
		if err := ctx.Accessor.AddVertexLabels(v, c.Labels); err != nil {
			return false, err
		}
	}
	for _, p := range c.Props {
		val, err := p.Expr.Eval(ctx.evalCtx(frame, value.New))
		if err != nil {
			return false, err
		}
		if err := ctx.Accessor.SetVertexProperty(v, p.Name, val); err != nil {
			return false, err
		}
	}
	frame.Set(c.Symbol, value.Vertex(v))
	return true, nil
}

func (c *CreateNode) Reset() { c.Input.Reset() }

// CreateExpand pulls one row from Input, inserts a new edge of Type between the
// vertices bound at From and To, applies Props, binds the new edge to EdgeSym, and
// passes the row through.
type CreateExpand struct {
	Input   Cursor
	From    symbol.Symbol
	To      symbol.Symbol
	EdgeSym symbol.Symbol
	Type    storage.EdgeTypeID
	Props   []PropertySet
}

func (c *CreateExpand) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	from, ok := frame.Get(c.From).AsVertex()
	if !ok {
		return false, &value.TypeError{Op: "create_expand", Kind: frame.Get(c.From).Kind()}
	}
	to, ok := frame.Get(c.To).AsVertex()
	if !ok {
		return false, &value.TypeError{Op: "create_expand", Kind: frame.Get(c.To).Kind()}
	}
	e, err := ctx.Accessor.InsertEdge(from, to, c.Type)
	if err != nil {
		return false, err
	}
	for _, p := range c.Props {
		val, err := p.Expr.Eval(ctx.evalCtx(frame, value.New))
		if err != nil {
			return false, err
		}
		if err := ctx.Accessor.SetEdgeProperty(e, p.Name, val); err != nil {
			return false, err
		}
	}
	frame.Set(c.EdgeSym, value.Edge(e))
	return true, nil
}

func (c *CreateExpand) Reset() { c.Input.Reset() }

// SetProperty pulls from Input and, for each row, sets property Name on the vertex or
// edge bound at Target to Expr's value.
type SetProperty struct {
	Input  Cursor
	Target symbol.Symbol
	Name   string
	Expr   expr.Node
}

func (c *SetProperty) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	val, err := c.Expr.Eval(ctx.evalCtx(frame, value.New))
	if err != nil {
		return false, err
	}
	bound := frame.Get(c.Target)
	if v, ok := bound.AsVertex(); ok {
		if err := ctx.Accessor.SetVertexProperty(v, c.Name, val); err != nil {
			return false, err
		}
	} else if e, ok := bound.AsEdge(); ok {
		if err := ctx.Accessor.SetEdgeProperty(e, c.Name, val); err != nil {
			return false, err
		}
	} else {
		return false, &value.TypeError{Op: "set_property", Kind: bound.Kind()}
	}
	return true, nil
}

func (c *SetProperty) Reset() { c.Input.Reset() }

// RemoveProperty is SetProperty's inverse: removes property Name from the vertex or
// edge bound at Target.
type RemoveProperty struct {
	Input  Cursor
	Target symbol.Symbol
	Name   string
}

func (c *RemoveProperty) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	bound := frame.Get(c.Target)
	if v, ok := bound.AsVertex(); ok {
		if err := ctx.Accessor.RemoveVertexProperty(v, c.Name); err != nil {
			return false, err
		}
	} else if e, ok := bound.AsEdge(); ok {
		if err := ctx.Accessor.RemoveEdgeProperty(e, c.Name); err != nil {
			return false, err
		}
	} else {
		return false, &value.TypeError{Op: "remove_property", Kind: bound.Kind()}
	}
	return true, nil
}

func (c *RemoveProperty) Reset() { c.Input.Reset() }

// SetLabels adds Labels to the vertex bound at Target.
type SetLabels struct {
	Input  Cursor
	Target symbol.Symbol
	Labels []storage.LabelID
}

func (c *SetLabels) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	v, ok := frame.Get(c.Target).AsVertex()
	if !ok {
		return false, &value.TypeError{Op: "set_labels", Kind: frame.Get(c.Target).Kind()}
	}
	if err := ctx.Accessor.AddVertexLabels(v, c.Labels); err != nil {
		return false, err
	}
	return true, nil
}

func (c *SetLabels) Reset() { c.Input.Reset() }

// RemoveLabels removes Labels from the vertex bound at Target.
type RemoveLabels struct {
	Input  Cursor
	Target symbol.Symbol
	Labels []storage.LabelID
}

func (c *RemoveLabels) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	v, ok := frame.Get(c.Target).AsVertex()
	if !ok {
		return false, &value.TypeError{Op: "remove_labels", Kind: frame.Get(c.Target).Kind()}
	}
	if err := ctx.Accessor.RemoveVertexLabels(v, c.Labels); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RemoveLabels) Reset() { c.Input.Reset() }

// Delete removes the vertex or edge bound at each of Targets. Detach controls whether
// deleting a vertex with incident edges is allowed (detach deletes them too) or fails
// with a constraint error — storage.ErrHasEdges surfaces through unchanged so the
// engine layer can classify it.
type Delete struct {
	Input   Cursor
	Targets []symbol.Symbol
	Detach  bool
}

func (c *Delete) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if ctx.Cancelled() {
		return false, context.Canceled
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	for _, sym := range c.Targets {
		bound := frame.Get(sym)
		if v, ok := bound.AsVertex(); ok {
			if err := ctx.Accessor.DeleteVertex(v, c.Detach); err != nil {
				return false, err
			}
			continue
		}
		if e, ok := bound.AsEdge(); ok {
			if err := ctx.Accessor.DeleteEdge(e); err != nil {
				return false, err
			}
			continue
		}
		return false, &value.TypeError{Op: "delete", Kind: bound.Kind()}
	}
	return true, nil
}

func (c *Delete) Reset() { c.Input.Reset() }

// Merge pulls one row from MatchBranch; if it produces at least one row, every row is
// passed through with OnMatch applied once per row. If MatchBranch produces zero rows
// for the input row, CreateBranch runs instead (expected to produce exactly one row,
// the newly created pattern) with OnCreate applied. This mirrors Optional's
// reset-per-input-row shape but inverts which branch is the default.
type Merge struct {
	Input        Cursor
	MatchBranch  Cursor
	CreateBranch Cursor
	OnMatch      []Cursor
	OnCreate     []Cursor

	branchOpen  bool
	matched     bool
	usingCreate bool
	onApplied   bool
}

func (c *Merge) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		if !c.branchOpen {
			ok, err := c.Input.Pull(frame, ctx)
			if err != nil || !ok {
				return false, err
			}
			c.MatchBranch.Reset()
			c.branchOpen = true
			c.matched = false
			c.usingCreate = false
			c.onApplied = false
		}
		if !c.usingCreate {
			ok, err := c.MatchBranch.Pull(frame, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				c.matched = true
				if err := runEffectCursors(c.OnMatch, frame, ctx); err != nil {
					return false, err
				}
				return true, nil
			}
			if c.matched {
				c.branchOpen = false
				continue
			}
			c.usingCreate = true
			c.CreateBranch.Reset()
		}
		ok, err := c.CreateBranch.Pull(frame, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			c.branchOpen = false
			continue
		}
		if !c.onApplied {
			if err := runEffectCursors(c.OnCreate, frame, ctx); err != nil {
				return false, err
			}
			c.onApplied = true
		}
		return true, nil
	}
}

// runEffectCursors drains each one-shot effect cursor (a SetProperty/SetLabels chain
// built over a *Once) fully before moving to the next, applying ON MATCH / ON CREATE
// side effects without producing rows Merge needs to forward itself.
func runEffectCursors(cursors []Cursor, frame *symbol.Frame, ctx *Context) error {
	for _, cur := range cursors {
		cur.Reset()
		for {
			ok, err := cur.Pull(frame, ctx)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}
	}
	return nil
}

func (c *Merge) Reset() {
	c.Input.Reset()
	c.branchOpen = false
	c.matched = false
	c.usingCreate = false
	c.onApplied = false
}

// CreateIndex pulls one row from Input (ordinarily a *Once) and builds a label-property
// index over Label/Props. storage.ErrIndexExists surfaces unchanged so the engine layer
// can classify it as a schema error rather than fail the whole statement silently.
type CreateIndex struct {
	Input Cursor
	Label storage.LabelID
	Props []storage.PropertyID
}

func (c *CreateIndex) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	for _, prop := range c.Props {
		if err := ctx.Accessor.BuildIndex(c.Label, prop); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (c *CreateIndex) Reset() { c.Input.Reset() }

// CallFunc is a procedure the Call operator invokes once per input row, given the
// current frame and context, returning zero or more output rows as value slices in
// YieldSyms order.
type CallFunc func(frame *symbol.Frame, ctx *Context) ([][]value.Typed, error)

// Call is the extension point for procedure invocations (`CALL proc(...) YIELD ...`)
// that do not fit the fixed operator catalog. Each input row may fan out into zero or
// more output rows, all buffered up front per input row since most procedures are not
// naturally pull-based themselves.
type Call struct {
	Input     Cursor
	Proc      CallFunc
	YieldSyms []symbol.Symbol

	pending [][]value.Typed
	pos     int
}

func (c *Call) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		if c.pos < len(c.pending) {
			row := c.pending[c.pos]
			c.pos++
			for i, s := range c.YieldSyms {
				frame.Set(s, row[i])
			}
			return true, nil
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		rows, err := c.Proc(frame, ctx)
		if err != nil {
			return false, err
		}
		c.pending = rows
		c.pos = 0
	}
}

func (c *Call) Reset() {
	c.Input.Reset()
	c.pending = nil
	c.pos = 0
}
