package index

import (
	"sync"

	"github.com/konr4dp/memgraph/pkg/value"
)

// LabelPropertyIndex is an equality index over one (label, property) pair: a map keyed
// by property value, each bucket holding the set of vertex ids with that value under
// the indexed label. The value key is a value.Typed hashed through value.HashKey so
// that cross-numeric-type equality (1 == 1.0) holds for index lookups exactly as it
// does for the `=` operator.
type LabelPropertyIndex struct {
	mu      sync.RWMutex
	buckets map[any]map[string]struct{}
}

// NewLabelPropertyIndex creates an empty index.
func NewLabelPropertyIndex() *LabelPropertyIndex {
	return &LabelPropertyIndex{buckets: make(map[any]map[string]struct{})}
}

// Insert adds id to the bucket for val.
func (idx *LabelPropertyIndex) Insert(val value.Typed, id string) {
	key := value.HashKey(val)
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bucket, ok := idx.buckets[key]
	if !ok {
		bucket = make(map[string]struct{})
		idx.buckets[key] = bucket
	}
	bucket[id] = struct{}{}
}

// Remove removes id from the bucket for val, dropping the bucket if it becomes empty.
func (idx *LabelPropertyIndex) Remove(val value.Typed, id string) {
	key := value.HashKey(val)
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bucket, ok := idx.buckets[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(idx.buckets, key)
	}
}

// Lookup returns every id indexed under val. The returned slice is a fresh copy safe
// for the caller to range over without holding the index lock.
func (idx *LabelPropertyIndex) Lookup(val value.Typed) []string {
	key := value.HashKey(val)
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	bucket, ok := idx.buckets[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(bucket))
	for id := range bucket {
		out = append(out, id)
	}
	return out
}

// Len reports how many (value, id) entries the index holds.
func (idx *LabelPropertyIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, bucket := range idx.buckets {
		n += len(bucket)
	}
	return n
}
