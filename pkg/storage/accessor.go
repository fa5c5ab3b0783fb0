package storage

import "github.com/konr4dp/memgraph/pkg/value"

// vertexRecord is the mutable internal representation of a vertex. Records are
// never shared between tiers: every write copies the record it modifies (copy-on-write)
// so that an overlay entry can never alias engine-owned state.
type vertexRecord struct {
	id     NodeID
	labels map[LabelID]struct{}
	props  map[PropertyID]value.Typed
}

func (v *vertexRecord) clone() *vertexRecord {
	labels := make(map[LabelID]struct{}, len(v.labels))
	for l := range v.labels {
		labels[l] = struct{}{}
	}
	props := make(map[PropertyID]value.Typed, len(v.props))
	for p, val := range v.props {
		props[p] = val
	}
	return &vertexRecord{id: v.id, labels: labels, props: props}
}

func (v *vertexRecord) hasLabel(l LabelID) bool {
	_, ok := v.labels[l]
	return ok
}

// edgeRecord is the mutable internal representation of an edge.
type edgeRecord struct {
	id    EdgeID
	from  NodeID
	to    NodeID
	etype EdgeTypeID
	props map[PropertyID]value.Typed
}

func (e *edgeRecord) clone() *edgeRecord {
	props := make(map[PropertyID]value.Typed, len(e.props))
	for p, val := range e.props {
		props[p] = val
	}
	return &edgeRecord{id: e.id, from: e.from, to: e.to, etype: e.etype, props: props}
}

// VertexIterator yields vertex handles one at a time. Exhausted permanently once Next
// returns false, matching the Cursor.pull contract the logical operators rely on.
type VertexIterator interface {
	Next() (value.VertexHandle, bool)
}

// EdgeIterator yields edge handles one at a time.
type EdgeIterator interface {
	Next() (value.EdgeHandle, bool)
}

// EdgeRefIterator yields EdgeRefs — used by OutEdges/InEdges, where Expand needs the
// neighbor vertex id alongside the edge without a second accessor round-trip.
type EdgeRefIterator interface {
	Next() (EdgeRef, bool)
}

type sliceVertexIterator struct {
	ids  []NodeID
	view value.View
	pos  int
}

func (it *sliceVertexIterator) Next() (value.VertexHandle, bool) {
	if it.pos >= len(it.ids) {
		return value.VertexHandle{}, false
	}
	h := value.VertexHandle{ID: string(it.ids[it.pos]), View: it.view}
	it.pos++
	return h, true
}

type sliceEdgeIterator struct {
	ids  []EdgeID
	view value.View
	pos  int
}

func (it *sliceEdgeIterator) Next() (value.EdgeHandle, bool) {
	if it.pos >= len(it.ids) {
		return value.EdgeHandle{}, false
	}
	h := value.EdgeHandle{ID: string(it.ids[it.pos]), View: it.view}
	it.pos++
	return h, true
}

type sliceEdgeRefIterator struct {
	refs []EdgeRef
	pos  int
}

func (it *sliceEdgeRefIterator) Next() (EdgeRef, bool) {
	if it.pos >= len(it.refs) {
		return EdgeRef{}, false
	}
	r := it.refs[it.pos]
	it.pos++
	return r, true
}

// Accessor is the versioned view of the graph that the logical operators in pkg/plan
// consume. One Accessor is opened per transaction and owned exclusively by
// that transaction's execution; it is never shared across goroutines concurrently.
type Accessor interface {
	// Dictionary: intern strings to dense ids, database-wide.
	Label(name string) LabelID
	LabelName(id LabelID) (string, bool)
	EdgeType(name string) EdgeTypeID
	EdgeTypeName(id EdgeTypeID) (string, bool)
	Property(name string) PropertyID
	PropertyName(id PropertyID) (string, bool)

	// Iteration, honoring the requested view.
	Vertices(view value.View) VertexIterator
	VerticesByLabel(label LabelID, view value.View) VertexIterator
	VerticesByLabelProperty(label LabelID, prop PropertyID, val value.Typed, view value.View) VertexIterator
	Edges(view value.View) EdgeIterator
	OutEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator
	InEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator
	BothEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator

	// Property and label access, by name (the dictionary is consulted internally).
	VertexExists(v value.VertexHandle) bool
	EdgeExists(e value.EdgeHandle) bool
	VertexLabels(v value.VertexHandle) ([]LabelID, error)
	VertexProperty(v value.VertexHandle, name string) (value.Typed, bool, error)
	EdgeProperty(e value.EdgeHandle, name string) (value.Typed, bool, error)
	VertexEndpoints(e value.EdgeHandle) (from, to value.VertexHandle, etype EdgeTypeID, err error)

	// Mutation — visible under NEW immediately, under OLD only after AdvanceCommand.
	InsertVertex() value.VertexHandle
	InsertEdge(from, to value.VertexHandle, edgeType EdgeTypeID) (value.EdgeHandle, error)
	SetVertexProperty(v value.VertexHandle, name string, val value.Typed) error
	RemoveVertexProperty(v value.VertexHandle, name string) error
	SetEdgeProperty(e value.EdgeHandle, name string, val value.Typed) error
	RemoveEdgeProperty(e value.EdgeHandle, name string) error
	AddVertexLabels(v value.VertexHandle, labels []LabelID) error
	RemoveVertexLabels(v value.VertexHandle, labels []LabelID) error
	DeleteVertex(v value.VertexHandle, detach bool) error
	DeleteEdge(e value.EdgeHandle) error

	// Command / transaction lifecycle.
	AdvanceCommand()
	Commit() error
	Abort() error
	Reconstruct(v value.VertexHandle) (value.VertexHandle, error)
	ReconstructEdge(e value.EdgeHandle) (value.EdgeHandle, error)
	TransactionID() int64

	// Schema.
	BuildIndex(label LabelID, prop PropertyID) error
	LabelPropertyIndexExists(label LabelID, prop PropertyID) bool
}
