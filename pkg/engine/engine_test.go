package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konr4dp/memgraph/pkg/engine"
	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/plan"
	"github.com/konr4dp/memgraph/pkg/result"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// runPlan pulls root to exhaustion, collecting one row per successful Pull as the values
// bound to every symbol in symbols (in creation order), and returns those rows.
func runPlan(t *testing.T, acc storage.Accessor, root plan.Cursor, symbols *symbol.Table) [][]value.Typed {
	t.Helper()
	frame := symbol.New(symbols.Size())
	ctx := &plan.Context{Accessor: acc, Parameters: nil, Ctx: context.Background()}
	var rows [][]value.Typed
	for {
		ok, err := root.Pull(frame, ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		all := symbols.All()
		row := make([]value.Typed, len(all))
		for i, s := range all {
			row[i] = frame.Get(s)
		}
		rows = append(rows, row)
	}
	return rows
}

// scenario 1: snapshot isolation across advance_command.
func TestScenario1_OldNewViewIsolation(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	acc.InsertVertex()
	acc.InsertVertex()
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)

	scan := func(view value.View) []value.Typed {
		sc := &plan.ScanAll{Symbol: n, View: view}
		rows := runPlan(t, acc, sc, table)
		out := make([]value.Typed, len(rows))
		for i, r := range rows {
			out[i] = r[0]
		}
		return out
	}

	assert.Len(t, scan(value.Old), 2)

	acc.InsertVertex()
	assert.Len(t, scan(value.Old), 2)
	assert.Len(t, scan(value.New), 3)

	acc.AdvanceCommand()
	assert.Len(t, scan(value.Old), 3)
}

// scenario 2: V-graph direction semantics.
func TestScenario2_ExpandDirections(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v1 := acc.InsertVertex()
	v2 := acc.InsertVertex()
	v3 := acc.InsertVertex()
	et := acc.EdgeType("KNOWS")
	_, err := acc.InsertEdge(v1, v2, et)
	require.NoError(t, err)
	_, err = acc.InsertEdge(v1, v3, et)
	require.NoError(t, err)
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	r := table.CreateSymbol("r", true, symbol.TypeEdge)
	m := table.CreateSymbol("m", true, symbol.TypeVertex)

	outPlan := &plan.Expand{
		Input:   &plan.ScanAll{Symbol: n, View: value.Old},
		From:    n,
		EdgeSym: r,
		ToSym:   m,
		Dir:     storage.DirOut,
	}
	rows := runPlan(t, acc, outPlan, table)
	assert.Len(t, rows, 2)

	bothPlan := &plan.Expand{
		Input:   &plan.ScanAll{Symbol: n, View: value.Old},
		From:    n,
		EdgeSym: r,
		ToSym:   m,
		Dir:     storage.DirBoth,
	}
	rows = runPlan(t, acc, bothPlan, table)
	assert.Len(t, rows, 4)
}

// scenario 3: self-loop under BOTH is emitted exactly once.
func TestScenario3_SelfLoopOnce(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	et := acc.EdgeType("LOOP")
	_, err := acc.InsertEdge(v, v, et)
	require.NoError(t, err)
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	r := table.CreateSymbol("r", true, symbol.TypeEdge)
	m := table.CreateSymbol("m", true, symbol.TypeVertex)

	p := &plan.Expand{
		Input:   &plan.ScanAll{Symbol: n, View: value.Old},
		From:    n,
		EdgeSym: r,
		ToSym:   m,
		Dir:     storage.DirBoth,
	}
	rows := runPlan(t, acc, p, table)
	assert.Len(t, rows, 1)
}

// scenario 4: OPTIONAL MATCH producing Null-filled rows for unmatched left rows.
func TestScenario4_OptionalMatch(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v1 := acc.InsertVertex()
	v2 := acc.InsertVertex()
	v3 := acc.InsertVertex()
	require.NoError(t, acc.SetVertexProperty(v1, "p", value.Int(1)))
	require.NoError(t, acc.SetVertexProperty(v2, "p", value.Int(2)))
	require.NoError(t, acc.SetVertexProperty(v3, "p", value.Int(2)))
	et := acc.EdgeType("E")
	_, err := acc.InsertEdge(v1, v2, et)
	require.NoError(t, err)
	_, err = acc.InsertEdge(v1, v3, et)
	require.NoError(t, err)
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	r := table.CreateSymbol("r", true, symbol.TypeEdge)
	m := table.CreateSymbol("m", true, symbol.TypeVertex)

	right := &plan.Expand{
		Input:   &plan.Once{},
		From:    n,
		EdgeSym: r,
		ToSym:   m,
		Dir:     storage.DirOut,
	}
	opt := &plan.Optional{
		Left:      &plan.ScanAll{Symbol: n, View: value.Old},
		Right:     right,
		RightSyms: []symbol.Symbol{r, m},
	}
	rows := runPlan(t, acc, opt, table)
	assert.Len(t, rows, 4)
}

// scenario 5: OPTIONAL MATCH on an empty database yields one Null row.
func TestScenario5_OptionalMatchEmptyDB(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)

	opt := &plan.Optional{
		Left:      &plan.Once{},
		Right:     &plan.ScanAll{Symbol: n, View: value.Old},
		RightSyms: []symbol.Symbol{n},
	}
	rows := runPlan(t, acc, opt, table)
	require.Len(t, rows, 1)
	assert.True(t, rows[0][0].IsNull())
}

// scenario 6: WHERE + count(*) aggregation.
func TestScenario6_CountWithFilter(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	vals := []int64{0, 0, 0, 1, 1, 1}
	for _, v := range vals {
		h := acc.InsertVertex()
		require.NoError(t, acc.SetVertexProperty(h, "p", value.Int(v)))
	}
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	cnt := table.CreateSymbol("count", true, symbol.TypeNumber)

	filter := &plan.Filter{
		Input: &plan.ScanAll{Symbol: n, View: value.Old},
		Expr: &expr.Comparison{
			Left:  &expr.PropertyLookup{Target: &expr.Identifier{Symbol: n}, Key: "p"},
			Op:    expr.CmpEq,
			Right: &expr.Literal{Value: value.Int(0)},
		},
	}
	agg := &plan.Aggregate{
		Input: filter,
		Aggs: []plan.AggregateExpr{
			{Func: plan.AggCountStar, Result: cnt},
		},
	}
	rows := runPlan(t, acc, agg, table)
	require.Len(t, rows, 1)
	got, ok := rows[0][1].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(3), got)
}

func TestExecuteReportsSummary(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	acc.InsertVertex()
	acc.InsertVertex()
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)

	buf := result.NewBuffer()
	root := &plan.Produce{
		Input:      &plan.ScanAll{Symbol: n, View: value.Old},
		Columns:    []plan.NamedExpr{{Name: "n", Expr: &expr.Identifier{Symbol: n}}},
		ResultSyms: []symbol.Symbol{n},
		Stream:     buf,
	}

	summary, err := engine.Execute(engine.Request{
		Root:     root,
		Symbols:  table,
		Accessor: acc,
		Ctx:      context.Background(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RowsProduced)
	assert.Len(t, buf.Rows, 2)
	assert.Equal(t, []string{"n"}, buf.Columns)
}
