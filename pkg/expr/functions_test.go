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

func call(t *testing.T, ctx *expr.Context, name string, args ...value.Typed) value.Typed {
	t.Helper()
	nodes := make([]expr.Node, len(args))
	for i, a := range args {
		nodes[i] = expr.Literal{Value: a}
	}
	got, err := (expr.FunctionCall{Name: name, Args: nodes}).Eval(ctx)
	require.NoError(t, err)
	return got
}

func TestFunctionCallUnknownNameErrors(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	_, err := (expr.FunctionCall{Name: "notAFunction"}).Eval(ctx)
	require.Error(t, err)
}

func TestToIntegerConversions(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	i, _ := call(t, ctx, "toInteger", value.Float(3.9)).AsInt()
	assert.Equal(t, int64(3), i)

	i, _ = call(t, ctx, "toInteger", value.Bool(true)).AsInt()
	assert.Equal(t, int64(1), i)

	i, _ = call(t, ctx, "toInteger", value.String("42")).AsInt()
	assert.Equal(t, int64(42), i)

	assert.True(t, call(t, ctx, "toInteger", value.String("nope")).IsNull())
	assert.True(t, call(t, ctx, "toInteger", value.Null()).IsNull())
}

func TestToFloatConversions(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	f, _ := call(t, ctx, "toFloat", value.Int(3)).AsFloat()
	assert.Equal(t, 3.0, f)
}

func TestToBooleanConversions(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	b, _ := call(t, ctx, "toBoolean", value.String("TRUE")).AsBool()
	assert.True(t, b)
	assert.True(t, call(t, ctx, "toBoolean", value.String("maybe")).IsNull())
}

func TestStringCaseAndTrim(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	s, _ := call(t, ctx, "toUpper", value.String("abc")).AsString()
	assert.Equal(t, "ABC", s)
	s, _ = call(t, ctx, "lower", value.String("ABC")).AsString()
	assert.Equal(t, "abc", s)
	s, _ = call(t, ctx, "trim", value.String("  hi  ")).AsString()
	assert.Equal(t, "hi", s)
}

func TestLeftRightReverse(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	s, _ := call(t, ctx, "left", value.String("hello"), value.Int(3)).AsString()
	assert.Equal(t, "hel", s)
	s, _ = call(t, ctx, "right", value.String("hello"), value.Int(3)).AsString()
	assert.Equal(t, "llo", s)
	s, _ = call(t, ctx, "reverse", value.String("abc")).AsString()
	assert.Equal(t, "cba", s)

	list, _ := call(t, ctx, "reverse", value.List([]value.Typed{value.Int(1), value.Int(2)})).AsList()
	require.Len(t, list, 2)
	assert.Equal(t, value.Int(2), list[0])
}

func TestSplitAndSubstring(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	list, _ := call(t, ctx, "split", value.String("a,b,c"), value.String(",")).AsList()
	require.Len(t, list, 3)

	s, _ := call(t, ctx, "substring", value.String("hello"), value.Int(1), value.Int(3)).AsString()
	assert.Equal(t, "ell", s)
}

func TestSize(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	i, _ := call(t, ctx, "size", value.String("hello")).AsInt()
	assert.Equal(t, int64(5), i)
	i, _ = call(t, ctx, "size", value.List([]value.Typed{value.Int(1), value.Int(2)})).AsInt()
	assert.Equal(t, int64(2), i)
}

func TestNumericFunctions(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	i, _ := call(t, ctx, "abs", value.Int(-5)).AsInt()
	assert.Equal(t, int64(5), i)

	f, _ := call(t, ctx, "ceil", value.Float(1.1)).AsFloat()
	assert.Equal(t, 2.0, f)

	f, _ = call(t, ctx, "floor", value.Float(1.9)).AsFloat()
	assert.Equal(t, 1.0, f)

	f, _ = call(t, ctx, "sqrt", value.Int(9)).AsFloat()
	assert.Equal(t, 3.0, f)

	i, _ = call(t, ctx, "sign", value.Int(-3)).AsInt()
	assert.Equal(t, int64(-1), i)
}

func TestCoalesceReturnsFirstNonNull(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	got := call(t, ctx, "coalesce", value.Null(), value.Null(), value.Int(5))
	i, _ := got.AsInt()
	assert.Equal(t, int64(5), i)
}

func TestIDLabelsTypeKeysProperties(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	person := acc.Label("Person")
	require.NoError(t, acc.AddVertexLabels(v, []storage.LabelID{person}))
	require.NoError(t, acc.SetVertexProperty(v, "name", value.String("alice")))
	et := acc.EdgeType("KNOWS")
	v2 := acc.InsertVertex()
	e, err := acc.InsertEdge(v, v2, et)
	require.NoError(t, err)
	acc.AdvanceCommand()

	vOld := v.WithView(value.Old)
	eOld := e.WithView(value.Old)
	ctx := newCtx(acc, symbol.New(0), value.Old)

	idVal := call(t, ctx, "id", value.Vertex(vOld))
	s, _ := idVal.AsString()
	assert.Equal(t, vOld.ID, s)

	labelsVal := call(t, ctx, "labels", value.Vertex(vOld))
	labels, _ := labelsVal.AsList()
	require.Len(t, labels, 1)
	ls, _ := labels[0].AsString()
	assert.Equal(t, "Person", ls)

	typeVal := call(t, ctx, "type", value.Edge(eOld))
	ts, _ := typeVal.AsString()
	assert.Equal(t, "KNOWS", ts)

	keysVal := call(t, ctx, "keys", value.Map(map[string]value.Typed{"a": value.Int(1), "b": value.Int(2)}))
	keys, _ := keysVal.AsList()
	require.Len(t, keys, 2)

	propsVal := call(t, ctx, "properties", value.Vertex(vOld))
	props, _ := propsVal.AsMap()
	require.Contains(t, props, "name")
	ns, _ := props["name"].AsString()
	assert.Equal(t, "alice", ns)
}

func TestValueType(t *testing.T) {
	ctx := newCtx(nil, symbol.New(0), value.Old)
	s, _ := call(t, ctx, "valuetype", value.Int(1)).AsString()
	assert.Equal(t, "INTEGER", s)
	s, _ = call(t, ctx, "valuetype", value.Null()).AsString()
	assert.Equal(t, "NULL", s)
}
