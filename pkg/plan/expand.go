package plan

import (
	"context"

	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// Expand pulls one row from Input, then emits one output row per edge incident to the
// vertex bound at From, in Dir, restricted to Types (nil means any type). EdgeSym and
// ToSym are bound on every emitted row; ToSym is always tagged with the same view as
// From, matching the traversal's own consistency.
//
// When Dir is storage.DirBoth and an edge is a self-loop (From's vertex has an edge to
// itself), that edge is emitted exactly once, not twice — the vertex is reachable from
// itself in a single "hop" regardless of which endpoint a directed read would call out.
type Expand struct {
	Input  Cursor
	From   symbol.Symbol
	EdgeSym symbol.Symbol
	ToSym  symbol.Symbol
	Dir    storage.Direction
	Types  []storage.EdgeTypeID

	it     storage.EdgeRefIterator
	curFrom value.VertexHandle
}

func (c *Expand) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		if c.it == nil {
			ok, err := c.Input.Pull(frame, ctx)
			if err != nil || !ok {
				return false, err
			}
			from, ok := frame.Get(c.From).AsVertex()
			if !ok {
				return false, &value.TypeError{Op: "expand", Kind: frame.Get(c.From).Kind()}
			}
			c.curFrom = from
			c.it = c.edges(ctx, from)
		}
		ref, ok := c.it.Next()
		if !ok {
			c.it = nil
			continue
		}
		frame.Set(c.EdgeSym, value.Edge(value.EdgeHandle{ID: string(ref.ID), View: c.curFrom.View}))
		frame.Set(c.ToSym, value.Vertex(value.VertexHandle{ID: string(ref.Neighbor), View: c.curFrom.View}))
		return true, nil
	}
}

func (c *Expand) edges(ctx *Context, v value.VertexHandle) storage.EdgeRefIterator {
	switch c.Dir {
	case storage.DirOut:
		return ctx.Accessor.OutEdges(v, c.Types)
	case storage.DirIn:
		return ctx.Accessor.InEdges(v, c.Types)
	default:
		return ctx.Accessor.BothEdges(v, c.Types)
	}
}

func (c *Expand) Reset() {
	c.Input.Reset()
	c.it = nil
}

// expandHop pairs a vertex reached by a traversal with the number of hops taken to
// reach it. ExpandVariable's search keeps its frontier as plain vertex handles and does
// not use this type.
type expandHop struct {
	vertex value.VertexHandle
	depth  int
}

// ExpandVariable performs a breadth-first traversal from the vertex bound at From,
// emitting one row per traversed hop whose depth lies between Lower and Upper (both
// bounds inclusive, matching Cypher's variable-length relationship bounds); a vertex
// reached along several paths is emitted once per path. PerHopFilter,
// when non-nil, is evaluated with EdgeSym/ToSym bound to the candidate hop before it is
// queued for further expansion or emitted; a hop PerHopFilter rejects is pruned from
// that branch of the search entirely, not merely excluded from output.
//
// Duplicate-edge suppression within a single path is the responsibility of
// ExpandUniquenessFilter layered above this cursor, not this cursor itself — this cursor
// only avoids infinite loops via the depth bound.
type ExpandVariable struct {
	Input      Cursor
	From       symbol.Symbol
	EdgeSym    symbol.Symbol
	ToSym      symbol.Symbol
	Dir        storage.Direction
	Types      []storage.EdgeTypeID
	Lower, Upper int
	PerHopFilter func(frame *symbol.Frame, ctx *Context) (bool, error)

	queue []expandHop
	emitted []struct {
		edge value.EdgeHandle
		to   value.VertexHandle
	}
	emitPos int
}

func (c *ExpandVariable) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		if c.emitPos < len(c.emitted) {
			row := c.emitted[c.emitPos]
			c.emitPos++
			frame.Set(c.EdgeSym, value.Edge(row.edge))
			frame.Set(c.ToSym, value.Vertex(row.to))
			return true, nil
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		from, ok := frame.Get(c.From).AsVertex()
		if !ok {
			return false, &value.TypeError{Op: "expand_variable", Kind: frame.Get(c.From).Kind()}
		}
		if err := c.search(frame, ctx, from); err != nil {
			return false, err
		}
		c.emitPos = 0
		if len(c.emitted) == 0 {
			continue
		}
	}
}

// search runs one full BFS from start and fills c.emitted with every (edge, to) pair
// reachable in [Lower, Upper] hops, applying PerHopFilter at each candidate hop.
func (c *ExpandVariable) search(frame *symbol.Frame, ctx *Context, start value.VertexHandle) error {
	c.emitted = c.emitted[:0]
	frontier := []value.VertexHandle{start}
	for depth := 1; depth <= c.Upper; depth++ {
		var next []value.VertexHandle
		for _, v := range frontier {
			it := c.edges(ctx, v)
			for {
				ref, ok := it.Next()
				if !ok {
					break
				}
				edgeH := value.EdgeHandle{ID: string(ref.ID), View: start.View}
				toH := value.VertexHandle{ID: string(ref.Neighbor), View: start.View}
				frame.Set(c.EdgeSym, value.Edge(edgeH))
				frame.Set(c.ToSym, value.Vertex(toH))
				if c.PerHopFilter != nil {
					keep, err := c.PerHopFilter(frame, ctx)
					if err != nil {
						return err
					}
					if !keep {
						continue
					}
				}
				if depth >= c.Lower {
					c.emitted = append(c.emitted, struct {
						edge value.EdgeHandle
						to   value.VertexHandle
					}{edgeH, toH})
				}
				next = append(next, toH)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return nil
}

func (c *ExpandVariable) edges(ctx *Context, v value.VertexHandle) storage.EdgeRefIterator {
	switch c.Dir {
	case storage.DirOut:
		return ctx.Accessor.OutEdges(v, c.Types)
	case storage.DirIn:
		return ctx.Accessor.InEdges(v, c.Types)
	default:
		return ctx.Accessor.BothEdges(v, c.Types)
	}
}

func (c *ExpandVariable) Reset() {
	c.Input.Reset()
	c.emitted = nil
	c.emitPos = 0
}

// ExpandUniquenessFilter sits directly above an Expand/ExpandVariable and rejects rows
// whose newly-bound value at Sym coincides with any value already bound earlier in the
// same pattern (at PriorSyms) — Cypher's rule that a single relationship pattern never
// reuses the same edge twice within one match, even though the same vertex may repeat.
// Generic over Vertex and Edge: Sym may hold either kind, and comparisons use
// value.HashKey so vertex-uniqueness patterns (e.g. TRAIL semantics over nodes) are
// enforced the same way edge-uniqueness ones are.
type ExpandUniquenessFilter struct {
	Input     Cursor
	Sym       symbol.Symbol
	PriorSyms []symbol.Symbol
}

func (c *ExpandUniquenessFilter) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for {
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		v := frame.Get(c.Sym)
		if v.Kind() != value.KindVertex && v.Kind() != value.KindEdge {
			return false, &value.TypeError{Op: "expand_uniqueness_filter", Kind: v.Kind()}
		}
		key := value.HashKey(v)
		dup := false
		for _, sym := range c.PriorSyms {
			prior := frame.Get(sym)
			if prior.Kind() == v.Kind() && value.HashKey(prior) == key {
				dup = true
				break
			}
		}
		if !dup {
			return true, nil
		}
	}
}

func (c *ExpandUniquenessFilter) Reset() { c.Input.Reset() }
