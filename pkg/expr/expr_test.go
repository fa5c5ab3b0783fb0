package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

func newCtx(acc storage.Accessor, frame *symbol.Frame, view value.View) *expr.Context {
	return &expr.Context{Frame: frame, Accessor: acc, View: view, Parameters: map[string]value.Typed{}}
}

func TestIdentifierReadsFrame(t *testing.T) {
	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeNumber)
	frame := symbol.New(table.Size())
	frame.Set(n, value.Int(5))

	got, err := (expr.Identifier{Symbol: n}).Eval(newCtx(nil, frame, value.Old))
	require.NoError(t, err)
	assert.Equal(t, value.Int(5), got)
}

func TestIdentifierSwitchesBoundHandleToContextView(t *testing.T) {
	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(n, value.Vertex(value.VertexHandle{ID: "v1", View: value.New}))

	got, err := (expr.Identifier{Symbol: n}).Eval(newCtx(nil, frame, value.Old))
	require.NoError(t, err)
	h, ok := got.AsVertex()
	require.True(t, ok)
	assert.Equal(t, value.Old, h.View)
}

func TestIdentifierSwitchesHandlesNestedInListAndMap(t *testing.T) {
	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeAny)
	frame := symbol.New(table.Size())
	v := value.Vertex(value.VertexHandle{ID: "v1", View: value.New})
	e := value.Edge(value.EdgeHandle{ID: "e1", View: value.New})
	frame.Set(n, value.List([]value.Typed{v, value.Map(map[string]value.Typed{"e": e})}))

	got, err := (expr.Identifier{Symbol: n}).Eval(newCtx(nil, frame, value.Old))
	require.NoError(t, err)
	list, ok := got.AsList()
	require.True(t, ok)
	vh, _ := list[0].AsVertex()
	assert.Equal(t, value.Old, vh.View)
	m, _ := list[1].AsMap()
	eh, _ := m["e"].AsEdge()
	assert.Equal(t, value.Old, eh.View)
}

func TestIdentifierAsIsLeavesBoundHandleUntouched(t *testing.T) {
	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(n, value.Vertex(value.VertexHandle{ID: "v1", View: value.New}))

	got, err := (expr.Identifier{Symbol: n}).Eval(newCtx(nil, frame, value.AsIs))
	require.NoError(t, err)
	h, _ := got.AsVertex()
	assert.Equal(t, value.New, h.View)
}

func TestLiteral(t *testing.T) {
	got, err := (expr.Literal{Value: value.String("x")}).Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	assert.Equal(t, value.String("x"), got)
}

func TestParameterUnboundErrors(t *testing.T) {
	_, err := (expr.Parameter{Name: "missing"}).Eval(newCtx(nil, symbol.New(0), value.Old))
	require.Error(t, err)
}

func TestParameterBound(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	ctx.Parameters["x"] = value.Int(7)
	got, err := (expr.Parameter{Name: "x"}).Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, value.Int(7), got)
}

func TestPropertyLookupOnVertex(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	require.NoError(t, acc.SetVertexProperty(v, "name", value.String("alice")))
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(n, value.Vertex(v.WithView(value.Old)))

	lookup := expr.PropertyLookup{Target: expr.Identifier{Symbol: n}, Key: "name"}
	got, err := lookup.Eval(newCtx(acc, frame, value.Old))
	require.NoError(t, err)
	s, ok := got.AsString()
	require.True(t, ok)
	assert.Equal(t, "alice", s)
}

func TestPropertyLookupMissingIsNullNotError(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(n, value.Vertex(v.WithView(value.Old)))

	lookup := expr.PropertyLookup{Target: expr.Identifier{Symbol: n}, Key: "nope"}
	got, err := lookup.Eval(newCtx(acc, frame, value.Old))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestPropertyLookupOnMap(t *testing.T) {
	lookup := expr.PropertyLookup{
		Target: expr.Literal{Value: value.Map(map[string]value.Typed{"k": value.Int(1)})},
		Key:    "k",
	}
	got, err := lookup.Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), got)
}

func TestListIndexNegativeAndOutOfRange(t *testing.T) {
	idx := expr.ListIndex{
		List:  expr.Literal{Value: value.List([]value.Typed{value.Int(1), value.Int(2), value.Int(3)})},
		Index: expr.Literal{Value: value.Int(-1)},
	}
	got, err := idx.Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), got)

	idx.Index = expr.Literal{Value: value.Int(10)}
	got, err = idx.Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestListSliceClampsBounds(t *testing.T) {
	slice := expr.ListSlice{
		List: expr.Literal{Value: value.List([]value.Typed{value.Int(1), value.Int(2), value.Int(3)})},
		From: expr.Literal{Value: value.Int(-100)},
		To:   expr.Literal{Value: value.Int(100)},
	}
	got, err := slice.Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	list, ok := got.AsList()
	require.True(t, ok)
	assert.Len(t, list, 3)
}

func TestUnaryOpNot(t *testing.T) {
	got, err := (expr.UnaryOp{Op: expr.OpNot, Operand: expr.Literal{Value: value.Bool(false)}}).Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	b, _ := got.AsBool()
	assert.True(t, b)
}

func TestBinaryOpAdd(t *testing.T) {
	got, err := (expr.BinaryOp{Op: expr.OpAdd, Left: expr.Literal{Value: value.Int(1)}, Right: expr.Literal{Value: value.Int(2)}}).Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), got)
}

func TestComparisonPropagatesNull(t *testing.T) {
	got, err := (expr.Comparison{Op: expr.CmpNeq, Left: expr.Literal{Value: value.Null()}, Right: expr.Literal{Value: value.Int(1)}}).Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestIsNullCheckAlwaysDefinite(t *testing.T) {
	got, err := (expr.IsNullCheck{Operand: expr.Literal{Value: value.Null()}}).Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	b, _ := got.AsBool()
	assert.True(t, b)

	got, err = (expr.IsNullCheck{Operand: expr.Literal{Value: value.Null()}, Negate: true}).Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	b, _ = got.AsBool()
	assert.False(t, b)
}

func TestCaseExpressionSimpleForm(t *testing.T) {
	c := expr.CaseExpression{
		Test: expr.Literal{Value: value.Int(2)},
		Branches: []expr.CaseBranch{
			{When: expr.Literal{Value: value.Int(1)}, Then: expr.Literal{Value: value.String("one")}},
			{When: expr.Literal{Value: value.Int(2)}, Then: expr.Literal{Value: value.String("two")}},
		},
		Else: expr.Literal{Value: value.String("other")},
	}
	got, err := c.Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	s, _ := got.AsString()
	assert.Equal(t, "two", s)
}

func TestCaseExpressionFallsThroughToElse(t *testing.T) {
	c := expr.CaseExpression{
		Branches: []expr.CaseBranch{
			{When: expr.Literal{Value: value.Bool(false)}, Then: expr.Literal{Value: value.Int(1)}},
		},
	}
	got, err := c.Eval(newCtx(nil, symbol.New(0), value.Old))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}
