package plan

import (
	"context"
	"fmt"
	"sort"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// Accumulate drains Input entirely on the first Pull, buffering every row's Symbols,
// then replays them one at a time. It is the barrier every blocking operator (Aggregate,
// OrderBy, and Distinct when it needs a full pass) sits behind once planning decides
// buffering the whole input is necessary rather than streaming.
type Accumulate struct {
	Input   Cursor
	Symbols []symbol.Symbol

	rows  [][]value.Typed
	pos   int
	ready bool
}

func (c *Accumulate) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if !c.ready {
		for {
			if ctx.Cancelled() {
				return false, context.Canceled
			}
			ok, err := c.Input.Pull(frame, ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				break
			}
			row := make([]value.Typed, len(c.Symbols))
			for i, s := range c.Symbols {
				row[i] = frame.Get(s)
			}
			c.rows = append(c.rows, row)
		}
		c.ready = true
		c.pos = 0
	}
	if c.pos >= len(c.rows) {
		return false, nil
	}
	row := c.rows[c.pos]
	c.pos++
	for i, s := range c.Symbols {
		frame.Set(s, row[i])
	}
	return true, nil
}

func (c *Accumulate) Reset() {
	c.Input.Reset()
	c.rows = nil
	c.pos = 0
	c.ready = false
}

// AggregateFunc names one of the supported aggregation functions.
type AggregateFunc int

const (
	AggCount AggregateFunc = iota
	AggCountStar
	AggSum
	AggAvg
	AggMin
	AggMax
	AggCollect
)

// AggregateExpr is one aggregation column: Func applied to Expr (Expr is ignored for
// AggCountStar), bound to Result on output.
type AggregateExpr struct {
	Func   AggregateFunc
	Expr   expr.Node
	Result symbol.Symbol
}

// Aggregate groups rows from Input by the Typed-value equality of GroupBy, computing
// every AggregateExpr per group. Null forms its own group like any other distinct
// value (Cypher groups NULL keys together rather than dropping them). Groups are
// emitted in first-seen order once Input is exhausted; Aggregate is always a full
// barrier, buffering the entire input before producing its first row.
type Aggregate struct {
	Input    Cursor
	GroupBy  []expr.Node
	GroupSyms []symbol.Symbol
	Aggs     []AggregateExpr

	groups  []*aggGroup
	index   map[string]int
	pos     int
	ready   bool
}

type aggGroup struct {
	key   []value.Typed
	state []aggState
}

type aggState struct {
	count   int64
	sum     float64
	sumSet  bool
	min     value.Typed
	max     value.Typed
	haveMM  bool
	collect []value.Typed
}

func (c *Aggregate) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if !c.ready {
		if err := c.run(frame, ctx); err != nil {
			return false, err
		}
		c.ready = true
		c.pos = 0
	}
	if c.pos >= len(c.groups) {
		return false, nil
	}
	g := c.groups[c.pos]
	c.pos++
	for i, s := range c.GroupSyms {
		frame.Set(s, g.key[i])
	}
	for i, agg := range c.Aggs {
		frame.Set(agg.Result, finishAgg(agg.Func, g.state[i]))
	}
	return true, nil
}

func (c *Aggregate) Reset() {
	c.Input.Reset()
	c.groups = nil
	c.index = nil
	c.pos = 0
	c.ready = false
}

func (c *Aggregate) run(frame *symbol.Frame, ctx *Context) error {
	c.groups = nil
	c.index = make(map[string]int)
	sawRow := false
	for {
		if ctx.Cancelled() {
			return context.Canceled
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key := make([]value.Typed, len(c.GroupBy))
		for i, e := range c.GroupBy {
			v, err := e.Eval(ctx.evalCtx(frame, value.AsIs))
			if err != nil {
				return err
			}
			key[i] = v
		}
		gk := groupKey(key)
		idx, ok := c.index[gk]
		if !ok {
			idx = len(c.groups)
			c.index[gk] = idx
			c.groups = append(c.groups, &aggGroup{key: key, state: make([]aggState, len(c.Aggs))})
		}
		sawRow = true
		g := c.groups[idx]
		for i, agg := range c.Aggs {
			var v value.Typed
			if agg.Func != AggCountStar {
				var err error
				v, err = agg.Expr.Eval(ctx.evalCtx(frame, value.AsIs))
				if err != nil {
					return err
				}
			}
			applyAgg(agg.Func, &g.state[i], v)
		}
	}
	if !sawRow && len(c.GroupBy) == 0 {
		c.groups = append(c.groups, &aggGroup{state: make([]aggState, len(c.Aggs))})
	}
	return nil
}

func groupKey(vals []value.Typed) string {
	parts := make([]any, len(vals))
	for i, v := range vals {
		parts[i] = value.HashKey(v)
	}
	return formatKey(parts)
}

func formatKey(parts []any) string {
	s := ""
	for _, p := range parts {
		s += "\x1f" + fmt.Sprintf("%v", p)
	}
	return s
}

func applyAgg(fn AggregateFunc, s *aggState, v value.Typed) {
	switch fn {
	case AggCountStar:
		s.count++
	case AggCount:
		if !v.IsNull() {
			s.count++
		}
	case AggSum, AggAvg:
		if !v.IsNull() && v.IsNumeric() {
			s.sum += asFloat(v)
			s.count++
			s.sumSet = true
		}
	case AggMin:
		if !v.IsNull() {
			if !s.haveMM {
				s.min, s.haveMM = v, true
			} else if lt, err := value.Less(v, s.min); err == nil {
				if b, ok := lt.AsBool(); ok && b {
					s.min = v
				}
			}
		}
	case AggMax:
		if !v.IsNull() {
			if !s.haveMM {
				s.max, s.haveMM = v, true
			} else if gt, err := value.Greater(v, s.max); err == nil {
				if b, ok := gt.AsBool(); ok && b {
					s.max = v
				}
			}
		}
	case AggCollect:
		if !v.IsNull() {
			s.collect = append(s.collect, v)
		}
	}
}

func finishAgg(fn AggregateFunc, s aggState) value.Typed {
	switch fn {
	case AggCountStar, AggCount:
		return value.Int(s.count)
	case AggSum:
		if !s.sumSet {
			return value.Int(0)
		}
		return value.Float(s.sum)
	case AggAvg:
		if s.count == 0 {
			return value.Null()
		}
		return value.Float(s.sum / float64(s.count))
	case AggMin:
		if !s.haveMM {
			return value.Null()
		}
		return s.min
	case AggMax:
		if !s.haveMM {
			return value.Null()
		}
		return s.max
	case AggCollect:
		return value.List(s.collect)
	default:
		return value.Null()
	}
}

func asFloat(v value.Typed) float64 {
	if i, ok := v.AsInt(); ok {
		return float64(i)
	}
	f, _ := v.AsFloat()
	return f
}

// SortOrder selects ascending or descending order for one OrderBy sort item.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// SortItem is one ORDER BY clause term.
type SortItem struct {
	Expr  expr.Node
	Order SortOrder
}

// OrderBy buffers the whole of Input, sorts it lexicographically by Items, and replays
// it in that order. Null sorts last under Ascending and first under Descending, for
// every sort item independently (Cypher's per-column NULL ordering, not a single
// global rule).
type OrderBy struct {
	Input Cursor
	Items []SortItem
	Syms  []symbol.Symbol

	rows  [][]value.Typed
	keys  [][]value.Typed
	pos   int
	ready bool
}

func (c *OrderBy) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if !c.ready {
		if err := c.run(frame, ctx); err != nil {
			return false, err
		}
		c.ready = true
		c.pos = 0
	}
	if c.pos >= len(c.rows) {
		return false, nil
	}
	row := c.rows[c.pos]
	c.pos++
	for i, s := range c.Syms {
		frame.Set(s, row[i])
	}
	return true, nil
}

func (c *OrderBy) run(frame *symbol.Frame, ctx *Context) error {
	c.rows = nil
	c.keys = nil
	for {
		if ctx.Cancelled() {
			return context.Canceled
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row := make([]value.Typed, len(c.Syms))
		for i, s := range c.Syms {
			row[i] = frame.Get(s)
		}
		key := make([]value.Typed, len(c.Items))
		for i, item := range c.Items {
			v, err := item.Expr.Eval(ctx.evalCtx(frame, value.AsIs))
			if err != nil {
				return err
			}
			key[i] = v
		}
		c.rows = append(c.rows, row)
		c.keys = append(c.keys, key)
	}
	idx := make([]int, len(c.rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return c.less(c.keys[idx[i]], c.keys[idx[j]])
	})
	sortedRows := make([][]value.Typed, len(idx))
	for i, n := range idx {
		sortedRows[i] = c.rows[n]
	}
	c.rows = sortedRows
	return nil
}

func (c *OrderBy) less(a, b []value.Typed) bool {
	for i, item := range c.Items {
		av, bv := a[i], b[i]
		if av.IsNull() || bv.IsNull() {
			if av.IsNull() && bv.IsNull() {
				continue
			}
			aLast := item.Order == Ascending
			if av.IsNull() {
				return !aLast
			}
			return aLast
		}
		lt, err := value.Less(av, bv)
		if err == nil {
			if b, ok := lt.AsBool(); ok && b {
				return item.Order == Ascending
			}
		}
		gt, err := value.Greater(av, bv)
		if err == nil {
			if b, ok := gt.AsBool(); ok && b {
				return item.Order == Descending
			}
		}
	}
	return false
}

func (c *OrderBy) Reset() {
	c.Input.Reset()
	c.rows = nil
	c.keys = nil
	c.pos = 0
	c.ready = false
}

// Skip discards the first N rows from Input, then passes the rest through unchanged.
type Skip struct {
	Input Cursor
	N     int

	skipped int
}

func (c *Skip) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	for c.skipped < c.N {
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		c.skipped++
	}
	return c.Input.Pull(frame, ctx)
}

func (c *Skip) Reset() {
	c.Input.Reset()
	c.skipped = 0
}

// Limit passes through at most N rows from Input, then is permanently exhausted.
type Limit struct {
	Input Cursor
	N     int

	emitted int
}

func (c *Limit) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if c.emitted >= c.N {
		return false, nil
	}
	ok, err := c.Input.Pull(frame, ctx)
	if err != nil || !ok {
		return false, err
	}
	c.emitted++
	return true, nil
}

func (c *Limit) Reset() {
	c.Input.Reset()
	c.emitted = 0
}

// Distinct passes through the first row seen for each distinct combination of Syms'
// values (by Typed-value equality), suppressing every later duplicate.
type Distinct struct {
	Input Cursor
	Syms  []symbol.Symbol

	seen map[string]struct{}
}

func (c *Distinct) Pull(frame *symbol.Frame, ctx *Context) (bool, error) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	for {
		if ctx.Cancelled() {
			return false, context.Canceled
		}
		ok, err := c.Input.Pull(frame, ctx)
		if err != nil || !ok {
			return false, err
		}
		key := make([]any, len(c.Syms))
		for i, s := range c.Syms {
			key[i] = value.HashKey(frame.Get(s))
		}
		k := formatKey(key)
		if _, dup := c.seen[k]; dup {
			continue
		}
		c.seen[k] = struct{}{}
		return true, nil
	}
}

func (c *Distinct) Reset() {
	c.Input.Reset()
	c.seen = nil
}
