package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/plan"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

func TestAggregateGroupsByKeyAndComputesSumCount(t *testing.T) {
	table := symbol.NewTable()
	group := table.CreateSymbol("g", true, symbol.TypeAny)
	amount := table.CreateSymbol("amt", true, symbol.TypeNumber)
	ctx := &plan.Context{Ctx: context.Background()}

	rows := []struct {
		g   value.Typed
		amt value.Typed
	}{
		{value.String("a"), value.Int(10)},
		{value.String("a"), value.Int(5)},
		{value.String("b"), value.Int(1)},
	}
	src := &pairValues{gSym: group, vSym: amount, rows: rows}

	sumSym := table.CreateSymbol("sum", true, symbol.TypeNumber)
	countSym := table.CreateSymbol("count", true, symbol.TypeNumber)
	frame := symbol.New(table.Size())
	agg := &plan.Aggregate{
		Input:     src,
		GroupBy:   []expr.Node{expr.Identifier{Symbol: group}},
		GroupSyms: []symbol.Symbol{group},
		Aggs: []plan.AggregateExpr{
			{Func: plan.AggSum, Expr: expr.Identifier{Symbol: amount}, Result: sumSym},
			{Func: plan.AggCount, Expr: expr.Identifier{Symbol: amount}, Result: countSym},
		},
	}

	totals := map[string]float64{}
	counts := map[string]int64{}
	for {
		ok, err := agg.Pull(frame, ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		g, _ := frame.Get(group).AsString()
		sum, _ := frame.Get(sumSym).AsFloat()
		count, _ := frame.Get(countSym).AsInt()
		totals[g] = sum
		counts[g] = count
	}
	assert.Equal(t, 15.0, totals["a"])
	assert.Equal(t, int64(2), counts["a"])
	assert.Equal(t, 1.0, totals["b"])
	assert.Equal(t, int64(1), counts["b"])
}

func TestAggregateNullFormsOwnGroup(t *testing.T) {
	table := symbol.NewTable()
	group := table.CreateSymbol("g", true, symbol.TypeAny)
	amount := table.CreateSymbol("amt", true, symbol.TypeNumber)
	ctx := &plan.Context{Ctx: context.Background()}

	rows := []struct {
		g   value.Typed
		amt value.Typed
	}{
		{value.Null(), value.Int(1)},
		{value.Null(), value.Int(2)},
	}
	src := &pairValues{gSym: group, vSym: amount, rows: rows}

	countSym := table.CreateSymbol("count", true, symbol.TypeNumber)
	frame := symbol.New(table.Size())
	agg := &plan.Aggregate{
		Input:     src,
		GroupBy:   []expr.Node{expr.Identifier{Symbol: group}},
		GroupSyms: []symbol.Symbol{group},
		Aggs:      []plan.AggregateExpr{{Func: plan.AggCountStar, Result: countSym}},
	}

	n := 0
	for {
		ok, err := agg.Pull(frame, ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 1, n)
}

func TestAggregateEmptyInputWithNoGroupBySeedsOneRow(t *testing.T) {
	table := symbol.NewTable()
	ctx := &plan.Context{Ctx: context.Background()}

	countStar := table.CreateSymbol("count_star", true, symbol.TypeNumber)
	sumSym := table.CreateSymbol("sum", true, symbol.TypeNumber)
	avgSym := table.CreateSymbol("avg", true, symbol.TypeNumber)
	minSym := table.CreateSymbol("min", true, symbol.TypeAny)
	frame := symbol.New(table.Size())

	agg := &plan.Aggregate{
		Input: &emptyCursor{},
		Aggs: []plan.AggregateExpr{
			{Func: plan.AggCountStar, Result: countStar},
			{Func: plan.AggSum, Result: sumSym},
			{Func: plan.AggAvg, Result: avgSym},
			{Func: plan.AggMin, Result: minSym},
		},
	}

	ok, err := agg.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	c, _ := frame.Get(countStar).AsInt()
	assert.Equal(t, int64(0), c)
	s, _ := frame.Get(sumSym).AsInt()
	assert.Equal(t, int64(0), s)
	assert.True(t, frame.Get(avgSym).IsNull())
	assert.True(t, frame.Get(minSym).IsNull())

	ok, err = agg.Pull(frame, ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAggregateEmptyInputWithGroupByProducesNoRows(t *testing.T) {
	table := symbol.NewTable()
	group := table.CreateSymbol("g", true, symbol.TypeAny)
	ctx := &plan.Context{Ctx: context.Background()}

	countSym := table.CreateSymbol("count", true, symbol.TypeNumber)
	frame := symbol.New(table.Size())
	agg := &plan.Aggregate{
		Input:     &emptyCursor{},
		GroupBy:   []expr.Node{expr.Identifier{Symbol: group}},
		GroupSyms: []symbol.Symbol{group},
		Aggs:      []plan.AggregateExpr{{Func: plan.AggCountStar, Result: countSym}},
	}

	ok, err := agg.Pull(frame, ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderByAscendingSortsNullLast(t *testing.T) {
	table := symbol.NewTable()
	x := table.CreateSymbol("x", true, symbol.TypeAny)
	frame := symbol.New(table.Size())
	ctx := &plan.Context{Ctx: context.Background()}

	src := &fixedValues{sym: x, values: []value.Typed{value.Int(3), value.Null(), value.Int(1)}}
	ob := &plan.OrderBy{
		Input: src,
		Items: []plan.SortItem{{Expr: expr.Identifier{Symbol: x}, Order: plan.Ascending}},
		Syms:  []symbol.Symbol{x},
	}

	var got []value.Typed
	for {
		ok, err := ob.Pull(frame, ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, frame.Get(x))
	}
	require.Len(t, got, 3)
	a, _ := got[0].AsInt()
	b, _ := got[1].AsInt()
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(3), b)
	assert.True(t, got[2].IsNull())
}

// pairValues binds a (group, value) pair onto two symbols, one row per Pull.
type pairValues struct {
	gSym, vSym symbol.Symbol
	rows       []struct {
		g   value.Typed
		amt value.Typed
	}
	pos int
}

func (c *pairValues) Pull(frame *symbol.Frame, ctx *plan.Context) (bool, error) {
	if c.pos >= len(c.rows) {
		return false, nil
	}
	row := c.rows[c.pos]
	c.pos++
	frame.Set(c.gSym, row.g)
	frame.Set(c.vSym, row.amt)
	return true, nil
}

func (c *pairValues) Reset() { c.pos = 0 }
