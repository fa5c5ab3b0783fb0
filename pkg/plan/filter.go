package plan

import (
	"context"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// PropertyPredicate is one property-equality test NodeFilter/EdgeFilter must satisfy:
// property Prop must equal Expr's value for the row to pass.
type PropertyPredicate struct {
	Prop storage.PropertyID
	Expr expr.Node
}

// NodeFilter passes through rows whose vertex at Symbol carries every label in Labels
// and matches every predicate in Props. Used for the pattern-match filters a planner
// folds into a scan rather than issuing as a separate Filter, so it is a distinct
// operator from the general Filter below. Property values are always compared under
// the OLD view, regardless of which view Symbol itself was bound under.
type NodeFilter struct {
	Input  Cursor
	Symbol symbol.Symbol
	Labels []storage.LabelID
	Props  []PropertyPredicate
}

func (c *NodeFilter) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		v, ok := frame.Get(c.Symbol).AsVertex()
		if !ok {
			return false, &value.TypeError{Op: "node_filter", Kind: frame.Get(c.Symbol).Kind()}
		}
		pass, err := c.matches(frame, ctx, v)
		if err != nil {
			return false, err
		}
		if pass {
			return true, nil
		}
	}
}

func (c *NodeFilter) matches(frame *symbol.Frame, ctx *Context, v value.VertexHandle) (bool, error) {
	if len(c.Labels) > 0 {
		labels, err := ctx.Accessor.VertexLabels(v)
		if err != nil {
			return false, err
		}
		have := make(map[storage.LabelID]bool, len(labels))
		for _, l := range labels {
			have[l] = true
		}
		for _, want := range c.Labels {
			if !have[want] {
				return false, nil
			}
		}
	}
	for _, pred := range c.Props {
		name, ok := ctx.Accessor.PropertyName(pred.Prop)
		if !ok {
			return false, nil
		}
		got, found, err := ctx.Accessor.VertexProperty(v.WithView(value.Old), name)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		want, err := pred.Expr.Eval(ctx.evalCtx(frame, value.Old))
		if err != nil {
			return false, err
		}
		eq := value.Equal(got, want)
		b, ok := eq.AsBool()
		if !ok || !b {
			return false, nil
		}
	}
	return true, nil
}

func (c *NodeFilter) Reset() { c.Input.Reset() }

// EdgeFilter is NodeFilter's edge counterpart: passes rows whose edge at Symbol carries
// EdgeType (if set) and matches every property predicate. Property values are compared
// under the OLD view, same as NodeFilter.
type EdgeFilter struct {
	Input    Cursor
	Symbol   symbol.Symbol
	EdgeType *storage.EdgeTypeID
	Props    []PropertyPredicate
}

func (c *EdgeFilter) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		e, ok := frame.Get(c.Symbol).AsEdge()
		if !ok {
			return false, &value.TypeError{Op: "edge_filter", Kind: frame.Get(c.Symbol).Kind()}
		}
		pass, err := c.matches(frame, ctx, e)
		if err != nil {
			return false, err
		}
		if pass {
			return true, nil
		}
	}
}

func (c *EdgeFilter) matches(frame *symbol.Frame, ctx *Context, e value.EdgeHandle) (bool, error) {
	if c.EdgeType != nil {
		_, _, etype, err := ctx.Accessor.VertexEndpoints(e)
		if err != nil {
			return false, err
		}
		if etype != *c.EdgeType {
			return false, nil
		}
	}
	for _, pred := range c.Props {
		name, ok := ctx.Accessor.PropertyName(pred.Prop)
		if !ok {
			return false, nil
		}
		got, found, err := ctx.Accessor.EdgeProperty(e.WithView(value.Old), name)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		want, err := pred.Expr.Eval(ctx.evalCtx(frame, value.Old))
		if err != nil {
			return false, err
		}
		eq := value.Equal(got, want)
		b, ok := eq.AsBool()
		if !ok || !b {
			return false, nil
		}
	}
	return true, nil
}

func (c *EdgeFilter) Reset() { c.Input.Reset() }

// Filter passes through rows for which Expr evaluates to Bool(true). Any other result
// — Null, or a non-Bool value — rejects the row; Filter never fails the query over a
// non-Boolean predicate, it simply treats it as false, matching Cypher's WHERE
// semantics.
type Filter struct {
	Input Cursor
	Expr  expr.Node
}

func (c *Filter) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		v, err := c.Expr.Eval(ctx.evalCtx(frame, value.AsIs))
		if err != nil {
			return false, err
		}
		if b, ok := v.AsBool(); ok && b {
			return true, nil
		}
	}
}

func (c *Filter) Reset() { c.Input.Reset() }
