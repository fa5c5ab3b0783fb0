package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konr4dp/memgraph/pkg/expr"
	"github.com/konr4dp/memgraph/pkg/plan"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

func TestNodeFilterMatchesLabelsAndProperties(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	person := acc.Label("Person")
	nameProp := acc.Property("name")

	alice := acc.InsertVertex()
	require.NoError(t, acc.AddVertexLabels(alice, []storage.LabelID{person}))
	require.NoError(t, acc.SetVertexProperty(alice, "name", value.String("alice")))

	bob := acc.InsertVertex()
	require.NoError(t, acc.AddVertexLabels(bob, []storage.LabelID{person}))
	require.NoError(t, acc.SetVertexProperty(bob, "name", value.String("bob")))
	acc.AdvanceCommand()

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())

	nf := &plan.NodeFilter{
		Input:  &plan.ScanAll{Symbol: n, View: value.Old},
		Symbol: n,
		Labels: []storage.LabelID{person},
		Props:  []plan.PropertyPredicate{{Prop: nameProp, Expr: expr.Literal{Value: value.String("alice")}}},
	}
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}
	got := drain(t, acc, nf, frame)
	assert.Equal(t, 1, got)
	_ = ctx
}

func TestEdgeFilterMatchesType(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	a := acc.InsertVertex()
	b := acc.InsertVertex()
	knows := acc.EdgeType("KNOWS")
	likes := acc.EdgeType("LIKES")
	_, err := acc.InsertEdge(a, b, knows)
	require.NoError(t, err)
	_, err = acc.InsertEdge(a, b, likes)
	require.NoError(t, err)
	acc.AdvanceCommand()

	table := symbol.NewTable()
	from := table.CreateSymbol("a", true, symbol.TypeVertex)
	edgeSym := table.CreateSymbol("e", true, symbol.TypeEdge)
	toSym := table.CreateSymbol("b", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(from, value.Vertex(a.WithView(value.Old)))

	expand := &plan.Expand{Input: &plan.Once{}, From: from, EdgeSym: edgeSym, ToSym: toSym, Dir: storage.DirOut}
	ef := &plan.EdgeFilter{Input: expand, Symbol: edgeSym, EdgeType: &knows}
	got := drain(t, acc, ef, frame)
	assert.Equal(t, 1, got)
}

func TestNodeFilterComparesPropertyUnderOldViewEvenWhenBoundUnderNew(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	person := acc.Label("Person")
	nameProp := acc.Property("name")

	alice := acc.InsertVertex()
	require.NoError(t, acc.AddVertexLabels(alice, []storage.LabelID{person}))
	require.NoError(t, acc.SetVertexProperty(alice, "name", value.String("alice")))
	acc.AdvanceCommand()
	require.NoError(t, acc.SetVertexProperty(alice, "name", value.String("alicia")))

	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(n, value.Vertex(alice.WithView(value.New)))

	nf := &plan.NodeFilter{
		Input:  &plan.Once{},
		Symbol: n,
		Props:  []plan.PropertyPredicate{{Prop: nameProp, Expr: expr.Literal{Value: value.String("alice")}}},
	}
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}
	ok, err := nf.Pull(frame, ctx)
	require.NoError(t, err)
	assert.True(t, ok, "property comparison should read the OLD value even though the vertex is bound under NEW")
}

func TestFilterTreatsNonBooleanAsFalse(t *testing.T) {
	table := symbol.NewTable()
	x := table.CreateSymbol("x", true, symbol.TypeAny)
	frame := symbol.New(table.Size())
	ctx := &plan.Context{Ctx: context.Background()}

	values := []value.Typed{value.Null(), value.Int(1), value.Bool(true), value.Bool(false)}
	src := &fixedValues{sym: x, values: values}
	f := &plan.Filter{Input: src, Expr: expr.Identifier{Symbol: x}}

	var passed []bool
	for {
		ok, err := f.Pull(frame, ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		b, _ := frame.Get(x).AsBool()
		passed = append(passed, b)
	}
	assert.Equal(t, []bool{true}, passed)
}
