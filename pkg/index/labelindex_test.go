package index_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/konr4dp/memgraph/pkg/index"
	"github.com/konr4dp/memgraph/pkg/value"
)

func TestLabelPropertyIndexInsertAndLookup(t *testing.T) {
	idx := index.NewLabelPropertyIndex()
	idx.Insert(value.Int(1), "v1")
	idx.Insert(value.Int(1), "v2")
	idx.Insert(value.Int(2), "v3")

	got := idx.Lookup(value.Int(1))
	assert.ElementsMatch(t, []string{"v1", "v2"}, got)
	assert.ElementsMatch(t, []string{"v3"}, idx.Lookup(value.Int(2)))
	assert.Empty(t, idx.Lookup(value.Int(3)))
}

func TestLabelPropertyIndexCrossNumericTypeLookup(t *testing.T) {
	idx := index.NewLabelPropertyIndex()
	idx.Insert(value.Int(1), "v1")

	assert.ElementsMatch(t, []string{"v1"}, idx.Lookup(value.Float(1.0)))
}

func TestLabelPropertyIndexRemoveDropsEmptyBucket(t *testing.T) {
	idx := index.NewLabelPropertyIndex()
	idx.Insert(value.String("x"), "v1")
	idx.Remove(value.String("x"), "v1")

	assert.Empty(t, idx.Lookup(value.String("x")))
	assert.Equal(t, 0, idx.Len())
}

func TestLabelPropertyIndexRemoveMissingIsNoop(t *testing.T) {
	idx := index.NewLabelPropertyIndex()
	idx.Remove(value.String("x"), "v1")
	assert.Equal(t, 0, idx.Len())
}

func TestLabelPropertyIndexLen(t *testing.T) {
	idx := index.NewLabelPropertyIndex()
	idx.Insert(value.Int(1), "v1")
	idx.Insert(value.Int(1), "v2")
	idx.Insert(value.Int(2), "v3")
	assert.Equal(t, 3, idx.Len())
}

func TestLabelPropertyIndexConcurrentAccess(t *testing.T) {
	idx := index.NewLabelPropertyIndex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.Insert(value.Int(int64(i%5)), "v")
			idx.Lookup(value.Int(int64(i % 5)))
		}(i)
	}
	wg.Wait()
}
