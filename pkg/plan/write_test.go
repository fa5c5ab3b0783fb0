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

func TestCreateExpandInsertsEdgeWithProperties(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	a := acc.InsertVertex()
	b := acc.InsertVertex()
	knows := acc.EdgeType("KNOWS")

	table := symbol.NewTable()
	from := table.CreateSymbol("a", true, symbol.TypeVertex)
	to := table.CreateSymbol("b", true, symbol.TypeVertex)
	edgeSym := table.CreateSymbol("e", true, symbol.TypeEdge)
	frame := symbol.New(table.Size())
	frame.Set(from, value.Vertex(a))
	frame.Set(to, value.Vertex(b))

	ce := &plan.CreateExpand{
		Input: &plan.Once{}, From: from, To: to, EdgeSym: edgeSym, Type: knows,
		Props: []plan.PropertySet{{Name: "since", Expr: expr.Literal{Value: value.Int(2020)}}},
	}
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}
	ok, err := ce.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	e, _ := frame.Get(edgeSym).AsEdge()
	got, found, err := acc.EdgeProperty(e, "since")
	require.NoError(t, err)
	require.True(t, found)
	i, _ := got.AsInt()
	assert.Equal(t, int64(2020), i)
}

func TestSetAndRemovePropertyOnVertex(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()

	table := symbol.NewTable()
	target := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(target, value.Vertex(v))
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}

	set := &plan.SetProperty{Input: &plan.Once{}, Target: target, Name: "age", Expr: expr.Literal{Value: value.Int(30)}}
	ok, err := set.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	got, found, err := acc.VertexProperty(v, "age")
	require.NoError(t, err)
	require.True(t, found)
	i, _ := got.AsInt()
	assert.Equal(t, int64(30), i)

	remove := &plan.RemoveProperty{Input: &plan.Once{}, Target: target, Name: "age"}
	ok, err = remove.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, found, err = acc.VertexProperty(v, "age")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetAndRemoveLabels(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	person := acc.Label("Person")

	table := symbol.NewTable()
	target := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(target, value.Vertex(v))
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}

	setLabels := &plan.SetLabels{Input: &plan.Once{}, Target: target, Labels: []storage.LabelID{person}}
	ok, err := setLabels.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	labels, err := acc.VertexLabels(v)
	require.NoError(t, err)
	assert.Contains(t, labels, person)

	removeLabels := &plan.RemoveLabels{Input: &plan.Once{}, Target: target, Labels: []storage.LabelID{person}}
	ok, err = removeLabels.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	labels, err = acc.VertexLabels(v)
	require.NoError(t, err)
	assert.NotContains(t, labels, person)
}

func TestDeleteVertexWithoutDetachFailsWhenEdgesExist(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	a := acc.InsertVertex()
	b := acc.InsertVertex()
	knows := acc.EdgeType("KNOWS")
	_, err := acc.InsertEdge(a, b, knows)
	require.NoError(t, err)

	table := symbol.NewTable()
	target := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	frame.Set(target, value.Vertex(a))
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}

	del := &plan.Delete{Input: &plan.Once{}, Targets: []symbol.Symbol{target}, Detach: false}
	_, err = del.Pull(frame, ctx)
	require.Error(t, err)

	del2 := &plan.Delete{Input: &plan.Once{}, Targets: []symbol.Symbol{target}, Detach: true}
	ok, err := del2.Pull(frame, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMergeRunsCreateBranchOnlyWhenMatchBranchEmpty(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	person := acc.Label("Person")

	table := symbol.NewTable()
	created := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}

	matchBranch := &plan.ScanAllByLabel{Symbol: created, Label: person, View: value.New}
	createBranch := &plan.CreateNode{Input: &plan.Once{}, Symbol: created, Labels: []storage.LabelID{person}}
	merge := &plan.Merge{Input: &plan.Once{}, MatchBranch: matchBranch, CreateBranch: createBranch}

	ok, err := merge.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, drain(t, acc, &plan.ScanAllByLabel{Symbol: table.CreateSymbol("m", true, symbol.TypeVertex), Label: person, View: value.New}, symbol.New(table.Size())))

	ok, err = merge.Pull(frame, ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergeUsesMatchBranchWhenRowsExist(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	person := acc.Label("Person")
	existing := acc.InsertVertex()
	require.NoError(t, acc.AddVertexLabels(existing, []storage.LabelID{person}))
	acc.AdvanceCommand()

	table := symbol.NewTable()
	matched := table.CreateSymbol("n", true, symbol.TypeVertex)
	frame := symbol.New(table.Size())
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}

	matchBranch := &plan.ScanAllByLabel{Symbol: matched, Label: person, View: value.Old}
	createBranch := &plan.CreateNode{Input: &plan.Once{}, Symbol: matched, Labels: []storage.LabelID{person}}
	merge := &plan.Merge{Input: &plan.Once{}, MatchBranch: matchBranch, CreateBranch: createBranch}

	n := 0
	for {
		ok, err := merge.Pull(frame, ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 1, n)
}

func TestCreateIndexBuildsIndexOverLabelProperty(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	person := acc.Label("Person")
	nameProp := acc.Property("name")

	ci := &plan.CreateIndex{Input: &plan.Once{}, Label: person, Props: []storage.PropertyID{nameProp}}
	ctx := &plan.Context{Accessor: acc, Ctx: context.Background()}
	frame := symbol.New(0)
	ok, err := ci.Pull(frame, ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, acc.LabelPropertyIndexExists(person, nameProp))
}
