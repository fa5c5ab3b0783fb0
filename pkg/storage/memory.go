package storage

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/konr4dp/memgraph/pkg/index"
	"github.com/konr4dp/memgraph/pkg/value"
)

// MemoryGraph is the committed, durable-for-process-lifetime graph shared by every
// MemoryAccessor opened against it: a map-based store guarded by one RWMutex. Nothing
// here is touched by a transaction until Commit — isolation
// between concurrent transactions comes from accessors never writing through to the
// graph until then, not from the mutex (the mutex only protects concurrent readers from
// a concurrent committer).
type MemoryGraph struct {
	mu       sync.RWMutex
	dict     *Dictionary
	vertices map[NodeID]*vertexRecord
	edges    map[EdgeID]*edgeRecord
	labelIdx map[LabelID]map[NodeID]struct{}
	propIdx  map[labelPropKey]*index.LabelPropertyIndex
	nextTxID int64
}

type labelPropKey struct {
	label LabelID
	prop  PropertyID
}

// NewMemoryGraph creates an empty in-memory graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		dict:     NewDictionary(),
		vertices: make(map[NodeID]*vertexRecord),
		edges:    make(map[EdgeID]*edgeRecord),
		labelIdx: make(map[LabelID]map[NodeID]struct{}),
		propIdx:  make(map[labelPropKey]*index.LabelPropertyIndex),
	}
}

// Begin opens a new transaction over the graph.
func (g *MemoryGraph) Begin() *MemoryAccessor {
	g.mu.Lock()
	g.nextTxID++
	txID := g.nextTxID
	g.mu.Unlock()
	return &MemoryAccessor{
		graph: g,
		txID:  txID,
		oldV:  make(map[NodeID]*vertexRecord),
		newV:  make(map[NodeID]*vertexRecord),
		oldE:  make(map[EdgeID]*edgeRecord),
		newE:  make(map[EdgeID]*edgeRecord),
	}
}

// MemoryAccessor is a transaction's view over a MemoryGraph: a committed base layer,
// an old-overlay layer (writes promoted by AdvanceCommand but not yet committed), and a
// new-overlay layer (writes issued in the current command, not yet promoted). A tier map
// entry with a nil record is a tombstone — "deleted at this tier" — distinct from no
// entry at all, which means "not touched at this tier, defer to the next one down."
type MemoryAccessor struct {
	graph *MemoryGraph
	txID  int64

	oldV map[NodeID]*vertexRecord
	newV map[NodeID]*vertexRecord
	oldE map[EdgeID]*edgeRecord
	newE map[EdgeID]*edgeRecord

	done bool
}

var _ Accessor = (*MemoryAccessor)(nil)

func (a *MemoryAccessor) lookupVertex(id NodeID, view value.View) (*vertexRecord, bool) {
	if view == value.New {
		if rec, ok := a.newV[id]; ok {
			return rec, rec != nil
		}
	}
	if rec, ok := a.oldV[id]; ok {
		return rec, rec != nil
	}
	a.graph.mu.RLock()
	rec, ok := a.graph.vertices[id]
	a.graph.mu.RUnlock()
	return rec, ok
}

func (a *MemoryAccessor) lookupEdge(id EdgeID, view value.View) (*edgeRecord, bool) {
	if view == value.New {
		if rec, ok := a.newE[id]; ok {
			return rec, rec != nil
		}
	}
	if rec, ok := a.oldE[id]; ok {
		return rec, rec != nil
	}
	a.graph.mu.RLock()
	rec, ok := a.graph.edges[id]
	a.graph.mu.RUnlock()
	return rec, ok
}

func (a *MemoryAccessor) collectVertices(view value.View) map[NodeID]*vertexRecord {
	out := make(map[NodeID]*vertexRecord)
	a.graph.mu.RLock()
	for id, rec := range a.graph.vertices {
		out[id] = rec
	}
	a.graph.mu.RUnlock()
	for id, rec := range a.oldV {
		if rec == nil {
			delete(out, id)
		} else {
			out[id] = rec
		}
	}
	if view == value.New {
		for id, rec := range a.newV {
			if rec == nil {
				delete(out, id)
			} else {
				out[id] = rec
			}
		}
	}
	return out
}

func (a *MemoryAccessor) collectEdges(view value.View) map[EdgeID]*edgeRecord {
	out := make(map[EdgeID]*edgeRecord)
	a.graph.mu.RLock()
	for id, rec := range a.graph.edges {
		out[id] = rec
	}
	a.graph.mu.RUnlock()
	for id, rec := range a.oldE {
		if rec == nil {
			delete(out, id)
		} else {
			out[id] = rec
		}
	}
	if view == value.New {
		for id, rec := range a.newE {
			if rec == nil {
				delete(out, id)
			} else {
				out[id] = rec
			}
		}
	}
	return out
}

func (a *MemoryAccessor) Label(name string) LabelID             { return a.graph.dict.Label(name) }
func (a *MemoryAccessor) LabelName(id LabelID) (string, bool)   { return a.graph.dict.LabelName(id) }
func (a *MemoryAccessor) EdgeType(name string) EdgeTypeID       { return a.graph.dict.EdgeType(name) }
func (a *MemoryAccessor) EdgeTypeName(id EdgeTypeID) (string, bool) {
	return a.graph.dict.EdgeTypeName(id)
}
func (a *MemoryAccessor) Property(name string) PropertyID           { return a.graph.dict.Property(name) }
func (a *MemoryAccessor) PropertyName(id PropertyID) (string, bool) { return a.graph.dict.PropertyName(id) }

func (a *MemoryAccessor) Vertices(view value.View) VertexIterator {
	m := a.collectVertices(view)
	ids := make([]NodeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &sliceVertexIterator{ids: ids, view: view}
}

func (a *MemoryAccessor) VerticesByLabel(label LabelID, view value.View) VertexIterator {
	m := a.collectVertices(view)
	var ids []NodeID
	for id, rec := range m {
		if rec.hasLabel(label) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &sliceVertexIterator{ids: ids, view: view}
}

func (a *MemoryAccessor) VerticesByLabelProperty(label LabelID, prop PropertyID, val value.Typed, view value.View) VertexIterator {
	if len(a.oldV) == 0 && len(a.newV) == 0 {
		a.graph.mu.RLock()
		idx, ok := a.graph.propIdx[labelPropKey{label, prop}]
		a.graph.mu.RUnlock()
		if ok {
			hits := idx.Lookup(val)
			ids := make([]NodeID, len(hits))
			for i, s := range hits {
				ids[i] = NodeID(s)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			return &sliceVertexIterator{ids: ids, view: view}
		}
	}
	m := a.collectVertices(view)
	var ids []NodeID
	for id, rec := range m {
		if !rec.hasLabel(label) {
			continue
		}
		v, ok := rec.props[prop]
		if !ok {
			continue
		}
		eq := value.Equal(v, val)
		if b, ok := eq.AsBool(); ok && b {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &sliceVertexIterator{ids: ids, view: view}
}

func (a *MemoryAccessor) Edges(view value.View) EdgeIterator {
	m := a.collectEdges(view)
	ids := make([]EdgeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &sliceEdgeIterator{ids: ids, view: view}
}

func toTypeSet(types []EdgeTypeID) map[EdgeTypeID]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[EdgeTypeID]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// edgesInDirection implements Expand's direction semantics: OUT emits edges where
// from == v; IN emits edges where to == v; BOTH emits both, and for a self-loop emits
// the edge exactly once rather than twice.
func (a *MemoryAccessor) edgesInDirection(v value.VertexHandle, types []EdgeTypeID, dir Direction) EdgeRefIterator {
	id := NodeID(v.ID)
	edges := a.collectEdges(v.View)
	ids := make([]EdgeID, 0, len(edges))
	for eid := range edges {
		ids = append(ids, eid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	typeSet := toTypeSet(types)

	var refs []EdgeRef
	for _, eid := range ids {
		e := edges[eid]
		if typeSet != nil && !typeSet[e.etype] {
			continue
		}
		isOut := e.from == id
		isIn := e.to == id
		switch dir {
		case DirOut:
			if isOut {
				refs = append(refs, EdgeRef{ID: e.id, Type: e.etype, Neighbor: e.to})
			}
		case DirIn:
			if isIn {
				refs = append(refs, EdgeRef{ID: e.id, Type: e.etype, Neighbor: e.from})
			}
		case DirBoth:
			switch {
			case isOut && isIn:
				refs = append(refs, EdgeRef{ID: e.id, Type: e.etype, Neighbor: id})
			case isOut:
				refs = append(refs, EdgeRef{ID: e.id, Type: e.etype, Neighbor: e.to})
			case isIn:
				refs = append(refs, EdgeRef{ID: e.id, Type: e.etype, Neighbor: e.from})
			}
		}
	}
	return &sliceEdgeRefIterator{refs: refs}
}

func (a *MemoryAccessor) OutEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator {
	return a.edgesInDirection(v, types, DirOut)
}
func (a *MemoryAccessor) InEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator {
	return a.edgesInDirection(v, types, DirIn)
}
func (a *MemoryAccessor) BothEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator {
	return a.edgesInDirection(v, types, DirBoth)
}

func (a *MemoryAccessor) VertexExists(v value.VertexHandle) bool {
	_, ok := a.lookupVertex(NodeID(v.ID), v.View)
	return ok
}

func (a *MemoryAccessor) EdgeExists(e value.EdgeHandle) bool {
	_, ok := a.lookupEdge(EdgeID(e.ID), e.View)
	return ok
}

func (a *MemoryAccessor) VertexLabels(v value.VertexHandle) ([]LabelID, error) {
	rec, ok := a.lookupVertex(NodeID(v.ID), v.View)
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]LabelID, 0, len(rec.labels))
	for l := range rec.labels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (a *MemoryAccessor) VertexProperty(v value.VertexHandle, name string) (value.Typed, bool, error) {
	rec, ok := a.lookupVertex(NodeID(v.ID), v.View)
	if !ok {
		return value.Null(), false, ErrNotFound
	}
	val, ok := rec.props[a.graph.dict.Property(name)]
	if !ok {
		return value.Null(), false, nil
	}
	return val, true, nil
}

func (a *MemoryAccessor) EdgeProperty(e value.EdgeHandle, name string) (value.Typed, bool, error) {
	rec, ok := a.lookupEdge(EdgeID(e.ID), e.View)
	if !ok {
		return value.Null(), false, ErrNotFound
	}
	val, ok := rec.props[a.graph.dict.Property(name)]
	if !ok {
		return value.Null(), false, nil
	}
	return val, true, nil
}

func (a *MemoryAccessor) VertexEndpoints(e value.EdgeHandle) (from, to value.VertexHandle, etype EdgeTypeID, err error) {
	rec, ok := a.lookupEdge(EdgeID(e.ID), e.View)
	if !ok {
		return value.VertexHandle{}, value.VertexHandle{}, 0, ErrNotFound
	}
	from = value.VertexHandle{ID: string(rec.from), View: e.View}
	to = value.VertexHandle{ID: string(rec.to), View: e.View}
	return from, to, rec.etype, nil
}

func (a *MemoryAccessor) InsertVertex() value.VertexHandle {
	id := NodeID(uuid.New().String())
	a.newV[id] = &vertexRecord{
		id:     id,
		labels: make(map[LabelID]struct{}),
		props:  make(map[PropertyID]value.Typed),
	}
	return value.VertexHandle{ID: string(id), View: value.New}
}

func (a *MemoryAccessor) InsertEdge(from, to value.VertexHandle, edgeType EdgeTypeID) (value.EdgeHandle, error) {
	if !a.VertexExists(from) || !a.VertexExists(to) {
		return value.EdgeHandle{}, ErrInvalidEdge
	}
	id := EdgeID(uuid.New().String())
	a.newE[id] = &edgeRecord{
		id:    id,
		from:  NodeID(from.ID),
		to:    NodeID(to.ID),
		etype: edgeType,
		props: make(map[PropertyID]value.Typed),
	}
	return value.EdgeHandle{ID: string(id), View: value.New}, nil
}

func (a *MemoryAccessor) mutateVertex(id NodeID, fn func(*vertexRecord)) error {
	rec, ok := a.lookupVertex(id, value.New)
	if !ok {
		return ErrNotFound
	}
	next := rec.clone()
	fn(next)
	a.newV[id] = next
	return nil
}

func (a *MemoryAccessor) mutateEdge(id EdgeID, fn func(*edgeRecord)) error {
	rec, ok := a.lookupEdge(id, value.New)
	if !ok {
		return ErrNotFound
	}
	next := rec.clone()
	fn(next)
	a.newE[id] = next
	return nil
}

func (a *MemoryAccessor) SetVertexProperty(v value.VertexHandle, name string, val value.Typed) error {
	propID := a.graph.dict.Property(name)
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) { r.props[propID] = val })
}

func (a *MemoryAccessor) RemoveVertexProperty(v value.VertexHandle, name string) error {
	propID := a.graph.dict.Property(name)
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) { delete(r.props, propID) })
}

func (a *MemoryAccessor) SetEdgeProperty(e value.EdgeHandle, name string, val value.Typed) error {
	propID := a.graph.dict.Property(name)
	return a.mutateEdge(EdgeID(e.ID), func(r *edgeRecord) { r.props[propID] = val })
}

func (a *MemoryAccessor) RemoveEdgeProperty(e value.EdgeHandle, name string) error {
	propID := a.graph.dict.Property(name)
	return a.mutateEdge(EdgeID(e.ID), func(r *edgeRecord) { delete(r.props, propID) })
}

func (a *MemoryAccessor) AddVertexLabels(v value.VertexHandle, labels []LabelID) error {
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) {
		for _, l := range labels {
			r.labels[l] = struct{}{}
		}
	})
}

func (a *MemoryAccessor) RemoveVertexLabels(v value.VertexHandle, labels []LabelID) error {
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) {
		for _, l := range labels {
			delete(r.labels, l)
		}
	})
}

func (a *MemoryAccessor) DeleteVertex(v value.VertexHandle, detach bool) error {
	id := NodeID(v.ID)
	if _, ok := a.lookupVertex(id, value.New); !ok {
		return ErrNotFound
	}
	edges := a.collectEdges(value.New)
	var incident []EdgeID
	for eid, e := range edges {
		if e.from == id || e.to == id {
			incident = append(incident, eid)
		}
	}
	if len(incident) > 0 {
		if !detach {
			return ErrHasEdges
		}
		for _, eid := range incident {
			a.newE[eid] = nil
		}
	}
	a.newV[id] = nil
	return nil
}

func (a *MemoryAccessor) DeleteEdge(e value.EdgeHandle) error {
	id := EdgeID(e.ID)
	if _, ok := a.lookupEdge(id, value.New); !ok {
		return ErrNotFound
	}
	a.newE[id] = nil
	return nil
}

// AdvanceCommand promotes every NEW-tier write into the OLD tier, making it visible
// under OLD for the rest of this transaction.
func (a *MemoryAccessor) AdvanceCommand() {
	for id, rec := range a.newV {
		a.oldV[id] = rec
	}
	for id, rec := range a.newE {
		a.oldE[id] = rec
	}
	a.newV = make(map[NodeID]*vertexRecord)
	a.newE = make(map[EdgeID]*edgeRecord)
}

func (a *MemoryAccessor) applyPutVertexLocked(rec *vertexRecord) {
	if old, existed := a.graph.vertices[rec.id]; existed {
		for key, idx := range a.graph.propIdx {
			if oldVal, ok := old.props[key.prop]; ok && old.hasLabel(key.label) {
				idx.Remove(oldVal, string(rec.id))
			}
		}
		for l := range old.labels {
			delete(a.graph.labelIdx[l], rec.id)
		}
	}
	for l := range rec.labels {
		if a.graph.labelIdx[l] == nil {
			a.graph.labelIdx[l] = make(map[NodeID]struct{})
		}
		a.graph.labelIdx[l][rec.id] = struct{}{}
	}
	for key, idx := range a.graph.propIdx {
		if !rec.hasLabel(key.label) {
			continue
		}
		if val, ok := rec.props[key.prop]; ok {
			idx.Insert(val, string(rec.id))
		}
	}
	a.graph.vertices[rec.id] = rec
}

func (a *MemoryAccessor) applyDeleteVertexLocked(id NodeID) {
	old, existed := a.graph.vertices[id]
	if !existed {
		return
	}
	for key, idx := range a.graph.propIdx {
		if oldVal, ok := old.props[key.prop]; ok && old.hasLabel(key.label) {
			idx.Remove(oldVal, string(id))
		}
	}
	for l := range old.labels {
		delete(a.graph.labelIdx[l], id)
	}
	delete(a.graph.vertices, id)
}

// Commit promotes every buffered write (old- and new-tier) into the shared graph
// atomically under the graph's write lock, so concurrent readers never observe a
// partially-applied transaction.
func (a *MemoryAccessor) Commit() error {
	if a.done {
		return ErrTransactionClosed
	}
	a.AdvanceCommand()
	a.graph.mu.Lock()
	defer a.graph.mu.Unlock()
	for id, rec := range a.oldV {
		if rec == nil {
			a.applyDeleteVertexLocked(id)
		} else {
			a.applyPutVertexLocked(rec)
		}
	}
	for id, rec := range a.oldE {
		if rec == nil {
			delete(a.graph.edges, id)
		} else {
			a.graph.edges[id] = rec
		}
	}
	a.done = true
	return nil
}

// Abort discards every buffered write; nothing in it was ever visible outside this
// transaction, so there is nothing to undo in the shared graph.
func (a *MemoryAccessor) Abort() error {
	if a.done {
		return ErrTransactionClosed
	}
	a.oldV, a.newV, a.oldE, a.newE = nil, nil, nil, nil
	a.done = true
	return nil
}

func (a *MemoryAccessor) Reconstruct(v value.VertexHandle) (value.VertexHandle, error) {
	if _, ok := a.lookupVertex(NodeID(v.ID), v.View); !ok {
		return value.VertexHandle{}, ErrNotFound
	}
	return v, nil
}

func (a *MemoryAccessor) ReconstructEdge(e value.EdgeHandle) (value.EdgeHandle, error) {
	if _, ok := a.lookupEdge(EdgeID(e.ID), e.View); !ok {
		return value.EdgeHandle{}, ErrNotFound
	}
	return e, nil
}

func (a *MemoryAccessor) TransactionID() int64 { return a.txID }

func (a *MemoryAccessor) BuildIndex(label LabelID, prop PropertyID) error {
	a.graph.mu.Lock()
	defer a.graph.mu.Unlock()
	key := labelPropKey{label, prop}
	if _, exists := a.graph.propIdx[key]; exists {
		return ErrIndexExists
	}
	idx := index.NewLabelPropertyIndex()
	for id, rec := range a.graph.vertices {
		if !rec.hasLabel(label) {
			continue
		}
		if val, ok := rec.props[prop]; ok {
			idx.Insert(val, string(id))
		}
	}
	a.graph.propIdx[key] = idx
	return nil
}

func (a *MemoryAccessor) LabelPropertyIndexExists(label LabelID, prop PropertyID) bool {
	a.graph.mu.RLock()
	defer a.graph.mu.RUnlock()
	_, ok := a.graph.propIdx[labelPropKey{label, prop}]
	return ok
}
