package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

func TestCreateSymbolAssignsDenseIndices(t *testing.T) {
	table := symbol.NewTable()
	a := table.CreateSymbol("a", true, symbol.TypeVertex)
	b := table.CreateSymbol("b", true, symbol.TypeEdge)
	c := table.CreateSymbol("", false, symbol.TypeAny)

	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)
	assert.Equal(t, 2, c.Position)
	assert.Equal(t, 3, table.Size())
}

func TestLookupByName(t *testing.T) {
	table := symbol.NewTable()
	want := table.CreateSymbol("n", true, symbol.TypeVertex)

	got, ok := table.Lookup("n")
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)
}

func TestAnonymousSymbolsDoNotRegisterByName(t *testing.T) {
	table := symbol.NewTable()
	table.CreateSymbol("", false, symbol.TypeAny)

	_, ok := table.Lookup("")
	assert.False(t, ok)
}

func TestAllReturnsCreationOrder(t *testing.T) {
	table := symbol.NewTable()
	table.CreateSymbol("a", true, symbol.TypeAny)
	table.CreateSymbol("b", true, symbol.TypeAny)

	all := table.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "b", all[1].Name)
}

func TestFrameGetSetAndAlias(t *testing.T) {
	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)
	m := table.CreateSymbol("m", true, symbol.TypeVertex)

	frame := symbol.New(table.Size())
	assert.Equal(t, 2, frame.Size())

	v := value.Vertex(value.VertexHandle{ID: "v1"})
	frame.Set(n, v)
	assert.Equal(t, v, frame.Get(n))
	assert.True(t, frame.Get(m).IsNull())
}

func TestFrameCloneIsIndependent(t *testing.T) {
	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)

	frame := symbol.New(table.Size())
	frame.Set(n, value.Int(1))

	clone := frame.Clone()
	clone.Set(n, value.Int(2))

	assert.Equal(t, value.Int(1), frame.Get(n))
	assert.Equal(t, value.Int(2), clone.Get(n))
}

func TestFrameCopyFromOverwritesSlots(t *testing.T) {
	table := symbol.NewTable()
	n := table.CreateSymbol("n", true, symbol.TypeVertex)

	src := symbol.New(table.Size())
	src.Set(n, value.Int(7))

	dst := symbol.New(table.Size())
	dst.CopyFrom(src)

	assert.Equal(t, value.Int(7), dst.Get(n))
}
