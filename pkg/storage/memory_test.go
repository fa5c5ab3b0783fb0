package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/value"
)

func drainVertices(t *testing.T, it storage.VertexIterator) []value.VertexHandle {
	t.Helper()
	var out []value.VertexHandle
	for {
		h, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, h)
	}
}

func TestInsertVertexVisibleUnderNewNotOld(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	acc.InsertVertex()

	assert.Empty(t, drainVertices(t, acc.Vertices(value.Old)))
	assert.Len(t, drainVertices(t, acc.Vertices(value.New)), 1)
}

func TestAdvanceCommandPromotesNewToOld(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	acc.InsertVertex()
	acc.AdvanceCommand()

	assert.Len(t, drainVertices(t, acc.Vertices(value.Old)), 1)
}

func TestCommitMakesWritesVisibleToOtherAccessors(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	acc.InsertVertex()
	require.NoError(t, acc.Commit())

	other := g.Begin()
	assert.Len(t, drainVertices(t, other.Vertices(value.Old)), 1)
}

func TestAbortDiscardsUncommittedWrites(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	acc.InsertVertex()
	require.NoError(t, acc.Abort())

	other := g.Begin()
	assert.Empty(t, drainVertices(t, other.Vertices(value.Old)))
}

func TestCommitTwiceErrors(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	require.NoError(t, acc.Commit())
	require.ErrorIs(t, acc.Commit(), storage.ErrTransactionClosed)
}

func TestInsertEdgeRejectsMissingEndpoint(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	ghost := value.VertexHandle{ID: "does-not-exist", View: value.New}
	et := acc.EdgeType("KNOWS")

	_, err := acc.InsertEdge(v, ghost, et)
	require.ErrorIs(t, err, storage.ErrInvalidEdge)
}

func TestDeleteVertexWithEdgesRequiresDetach(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v1 := acc.InsertVertex()
	v2 := acc.InsertVertex()
	et := acc.EdgeType("KNOWS")
	_, err := acc.InsertEdge(v1, v2, et)
	require.NoError(t, err)
	acc.AdvanceCommand()

	err = acc.DeleteVertex(v1, false)
	require.ErrorIs(t, err, storage.ErrHasEdges)

	require.NoError(t, acc.DeleteVertex(v1, true))
	assert.False(t, acc.VertexExists(v1.WithView(value.New)))
}

func TestVertexPropertyRoundTrip(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	require.NoError(t, acc.SetVertexProperty(v, "name", value.String("alice")))

	got, ok, err := acc.VertexProperty(v, "name")
	require.NoError(t, err)
	require.True(t, ok)
	s, _ := got.AsString()
	assert.Equal(t, "alice", s)

	require.NoError(t, acc.RemoveVertexProperty(v, "name"))
	_, ok, err = acc.VertexProperty(v, "name")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVertexLabelsAddAndRemove(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	person := acc.Label("Person")
	require.NoError(t, acc.AddVertexLabels(v, []storage.LabelID{person}))

	labels, err := acc.VertexLabels(v)
	require.NoError(t, err)
	assert.Equal(t, []storage.LabelID{person}, labels)

	require.NoError(t, acc.RemoveVertexLabels(v, []storage.LabelID{person}))
	labels, err = acc.VertexLabels(v)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestEdgesInDirectionSelfLoopEmittedOnce(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v := acc.InsertVertex()
	et := acc.EdgeType("LOOP")
	_, err := acc.InsertEdge(v, v, et)
	require.NoError(t, err)
	acc.AdvanceCommand()

	vOld := v.WithView(value.Old)
	both := acc.BothEdges(vOld, nil)
	refs := drainEdgeRefs(t, both)
	assert.Len(t, refs, 1)
}

func drainEdgeRefs(t *testing.T, it storage.EdgeRefIterator) []storage.EdgeRef {
	t.Helper()
	var out []storage.EdgeRef
	for {
		r, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

func TestVertexEndpoints(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	v1 := acc.InsertVertex()
	v2 := acc.InsertVertex()
	et := acc.EdgeType("KNOWS")
	e, err := acc.InsertEdge(v1, v2, et)
	require.NoError(t, err)

	from, to, etype, err := acc.VertexEndpoints(e)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, from.ID)
	assert.Equal(t, v2.ID, to.ID)
	assert.Equal(t, et, etype)
}

func TestBuildIndexPopulatesFromExistingVertices(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc := g.Begin()
	person := acc.Label("Person")
	nameProp := acc.Property("name")
	v := acc.InsertVertex()
	require.NoError(t, acc.AddVertexLabels(v, []storage.LabelID{person}))
	require.NoError(t, acc.SetVertexProperty(v, "name", value.String("bob")))
	require.NoError(t, acc.Commit())

	acc2 := g.Begin()
	require.NoError(t, acc2.BuildIndex(person, nameProp))
	assert.True(t, acc2.LabelPropertyIndexExists(person, nameProp))
	require.ErrorIs(t, acc2.BuildIndex(person, nameProp), storage.ErrIndexExists)

	it := acc2.VerticesByLabelProperty(person, nameProp, value.String("bob"), value.Old)
	got := drainVertices(t, it)
	require.Len(t, got, 1)
	assert.Equal(t, v.ID, got[0].ID)
}

func TestDictionaryInterningIsStableAcrossAccessors(t *testing.T) {
	g := storage.NewMemoryGraph()
	acc1 := g.Begin()
	id1 := acc1.Label("Person")

	acc2 := g.Begin()
	id2 := acc2.Label("Person")
	assert.Equal(t, id1, id2)
}
