package storage_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/konr4dp/memgraph/pkg/storage"
)

func TestDictionaryInternsOnceAndReturnsSameID(t *testing.T) {
	d := storage.NewDictionary()
	a := d.Label("Person")
	b := d.Label("Person")
	assert.Equal(t, a, b)

	c := d.Label("Company")
	assert.NotEqual(t, a, c)
}

func TestDictionaryNamesAssignedContiguouslyFromZero(t *testing.T) {
	d := storage.NewDictionary()
	a := d.Property("x")
	b := d.Property("y")
	assert.Equal(t, storage.PropertyID(0), a)
	assert.Equal(t, storage.PropertyID(1), b)
}

func TestDictionaryNameReverseLookup(t *testing.T) {
	d := storage.NewDictionary()
	id := d.EdgeType("KNOWS")

	name, ok := d.EdgeTypeName(id)
	assert.True(t, ok)
	assert.Equal(t, "KNOWS", name)

	_, ok = d.EdgeTypeName(id + 1)
	assert.False(t, ok)
}

func TestDictionaryConcurrentInterningAgreesOnID(t *testing.T) {
	d := storage.NewDictionary()
	var wg sync.WaitGroup
	ids := make([]storage.LabelID, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = d.Label("Person")
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
