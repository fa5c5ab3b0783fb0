package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konr4dp/memgraph/pkg/engine"
	"github.com/konr4dp/memgraph/pkg/plan"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// failingCursor fails its first Pull with cause, and never produces a row.
type failingCursor struct {
	cause error
}

func (c *failingCursor) Pull(frame *symbol.Frame, ctx *plan.Context) (bool, error) {
	return false, c.cause
}

func (c *failingCursor) Reset() {}

func TestExecuteClassifiesValueTypeErrorAsTypeError(t *testing.T) {
	table := symbol.NewTable()
	g := storage.NewMemoryGraph()
	acc := g.Begin()

	req := engine.Request{
		Root:     &failingCursor{cause: &value.TypeError{Op: "add", Kind: value.KindBool}},
		Symbols:  table,
		Accessor: acc,
		Ctx:      context.Background(),
	}
	_, err := engine.Execute(req)
	require.Error(t, err)
	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, engine.TypeError, engErr.Kind)
}

func TestExecuteClassifiesHasEdgesAsConstraintError(t *testing.T) {
	table := symbol.NewTable()
	g := storage.NewMemoryGraph()
	acc := g.Begin()

	req := engine.Request{
		Root:     &failingCursor{cause: storage.ErrHasEdges},
		Symbols:  table,
		Accessor: acc,
		Ctx:      context.Background(),
	}
	_, err := engine.Execute(req)
	require.Error(t, err)
	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, engine.ConstraintError, engErr.Kind)
}

func TestExecuteClassifiesUnrecognizedErrorAsQueryError(t *testing.T) {
	table := symbol.NewTable()
	g := storage.NewMemoryGraph()
	acc := g.Begin()

	req := engine.Request{
		Root:     &failingCursor{cause: context.Canceled},
		Symbols:  table,
		Accessor: acc,
		Ctx:      context.Background(),
	}
	_, err := engine.Execute(req)
	require.Error(t, err)
	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, engine.QueryError, engErr.Kind)
}

func TestPlanCacheCompilesOnceUnderConcurrentCallers(t *testing.T) {
	table := symbol.NewTable()
	var builds int64
	var once plan.Cursor = &plan.Once{}

	cache := engine.NewPlanCache(func(queryText string) (plan.Cursor, *symbol.Table, error) {
		atomic.AddInt64(&builds, 1)
		return once, table, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := cache.Compile("MATCH (n) RETURN n")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&builds))
}

func TestPlanCacheCompilesDistinctQueriesSeparately(t *testing.T) {
	table := symbol.NewTable()
	seen := map[string]bool{}
	var mu sync.Mutex

	cache := engine.NewPlanCache(func(queryText string) (plan.Cursor, *symbol.Table, error) {
		mu.Lock()
		seen[queryText] = true
		mu.Unlock()
		return &plan.Once{}, table, nil
	})

	_, _, err := cache.Compile("A")
	require.NoError(t, err)
	_, _, err = cache.Compile("B")
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}
