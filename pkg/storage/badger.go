package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/konr4dp/memgraph/pkg/index"
	"github.com/konr4dp/memgraph/pkg/value"
)

// Key prefixes. The label index key carries a dense LabelID rather than a lowercased
// label string, since labels are interned by the shared Dictionary before any key is
// built.
const (
	prefixNode          = byte(0x01) // node: nodeID -> JSON(badgerVertex)
	prefixEdge          = byte(0x02) // edge: edgeID -> JSON(badgerEdge)
	prefixLabelIndex    = byte(0x03) // label: labelID + 0x00 + nodeID -> empty
	prefixOutgoingIndex = byte(0x04) // outgoing: nodeID + 0x00 + edgeID -> empty
	prefixIncomingIndex = byte(0x05) // incoming: nodeID + 0x00 + edgeID -> empty
)

func nodeKey(id NodeID) []byte { return append([]byte{prefixNode}, []byte(id)...) }
func edgeKey(id EdgeID) []byte { return append([]byte{prefixEdge}, []byte(id)...) }

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func labelIndexKey(label LabelID, nodeID NodeID) []byte {
	key := make([]byte, 0, 1+4+1+len(nodeID))
	key = append(key, prefixLabelIndex)
	key = appendUint32(key, uint32(label))
	key = append(key, 0x00)
	key = append(key, []byte(nodeID)...)
	return key
}

func labelIndexPrefix(label LabelID) []byte {
	key := make([]byte, 0, 1+4+1)
	key = append(key, prefixLabelIndex)
	key = appendUint32(key, uint32(label))
	key = append(key, 0x00)
	return key
}

func outgoingIndexKey(nodeID NodeID, edgeID EdgeID) []byte {
	key := make([]byte, 0, 1+len(nodeID)+1+len(edgeID))
	key = append(key, prefixOutgoingIndex)
	key = append(key, []byte(nodeID)...)
	key = append(key, 0x00)
	key = append(key, []byte(edgeID)...)
	return key
}

func outgoingIndexPrefix(nodeID NodeID) []byte {
	key := make([]byte, 0, 1+len(nodeID)+1)
	key = append(key, prefixOutgoingIndex)
	key = append(key, []byte(nodeID)...)
	key = append(key, 0x00)
	return key
}

func incomingIndexKey(nodeID NodeID, edgeID EdgeID) []byte {
	key := make([]byte, 0, 1+len(nodeID)+1+len(edgeID))
	key = append(key, prefixIncomingIndex)
	key = append(key, []byte(nodeID)...)
	key = append(key, 0x00)
	key = append(key, []byte(edgeID)...)
	return key
}

func incomingIndexPrefix(nodeID NodeID) []byte {
	key := make([]byte, 0, 1+len(nodeID)+1)
	key = append(key, prefixIncomingIndex)
	key = append(key, []byte(nodeID)...)
	key = append(key, 0x00)
	return key
}

// jsonTyped is the JSON-serializable form of value.Typed. Vertex/edge handles and paths
// are never legal property values (the property value domain is
// null/bool/int/float/string/list/map), so encodeTyped maps any of those kinds to null
// rather than trying to round-trip a handle through disk.
type jsonTyped struct {
	K string               `json:"k"`
	B bool                 `json:"b,omitempty"`
	I int64                `json:"i,omitempty"`
	F float64              `json:"f,omitempty"`
	S string               `json:"s,omitempty"`
	L []jsonTyped          `json:"l,omitempty"`
	M map[string]jsonTyped `json:"m,omitempty"`
}

func encodeTyped(t value.Typed) jsonTyped {
	switch t.Kind() {
	case value.KindBool:
		b, _ := t.AsBool()
		return jsonTyped{K: "bool", B: b}
	case value.KindInt:
		i, _ := t.AsInt()
		return jsonTyped{K: "int", I: i}
	case value.KindFloat:
		f, _ := t.AsFloat()
		return jsonTyped{K: "float", F: f}
	case value.KindString:
		s, _ := t.AsString()
		return jsonTyped{K: "string", S: s}
	case value.KindList:
		items, _ := t.AsList()
		out := make([]jsonTyped, len(items))
		for i, it := range items {
			out[i] = encodeTyped(it)
		}
		return jsonTyped{K: "list", L: out}
	case value.KindMap:
		m, _ := t.AsMap()
		out := make(map[string]jsonTyped, len(m))
		for k, v := range m {
			out[k] = encodeTyped(v)
		}
		return jsonTyped{K: "map", M: out}
	default:
		return jsonTyped{K: "null"}
	}
}

func decodeTyped(j jsonTyped) value.Typed {
	switch j.K {
	case "bool":
		return value.Bool(j.B)
	case "int":
		return value.Int(j.I)
	case "float":
		return value.Float(j.F)
	case "string":
		return value.String(j.S)
	case "list":
		items := make([]value.Typed, len(j.L))
		for i, it := range j.L {
			items[i] = decodeTyped(it)
		}
		return value.List(items)
	case "map":
		m := make(map[string]value.Typed, len(j.M))
		for k, v := range j.M {
			m[k] = decodeTyped(v)
		}
		return value.Map(m)
	default:
		return value.Null()
	}
}

type badgerVertex struct {
	ID     string               `json:"id"`
	Labels []uint32             `json:"labels"`
	Props  map[uint32]jsonTyped `json:"props"`
}

func toBadgerVertex(r *vertexRecord) badgerVertex {
	labels := make([]uint32, 0, len(r.labels))
	for l := range r.labels {
		labels = append(labels, uint32(l))
	}
	props := make(map[uint32]jsonTyped, len(r.props))
	for p, v := range r.props {
		props[uint32(p)] = encodeTyped(v)
	}
	return badgerVertex{ID: string(r.id), Labels: labels, Props: props}
}

func fromBadgerVertex(bv badgerVertex) *vertexRecord {
	labels := make(map[LabelID]struct{}, len(bv.Labels))
	for _, l := range bv.Labels {
		labels[LabelID(l)] = struct{}{}
	}
	props := make(map[PropertyID]value.Typed, len(bv.Props))
	for p, v := range bv.Props {
		props[PropertyID(p)] = decodeTyped(v)
	}
	return &vertexRecord{id: NodeID(bv.ID), labels: labels, props: props}
}

type badgerEdge struct {
	ID    string               `json:"id"`
	From  string               `json:"from"`
	To    string               `json:"to"`
	Type  uint32               `json:"type"`
	Props map[uint32]jsonTyped `json:"props"`
}

func toBadgerEdge(r *edgeRecord) badgerEdge {
	props := make(map[uint32]jsonTyped, len(r.props))
	for p, v := range r.props {
		props[uint32(p)] = encodeTyped(v)
	}
	return badgerEdge{ID: string(r.id), From: string(r.from), To: string(r.to), Type: uint32(r.etype), Props: props}
}

func fromBadgerEdge(be badgerEdge) *edgeRecord {
	props := make(map[PropertyID]value.Typed, len(be.Props))
	for p, v := range be.Props {
		props[PropertyID(p)] = decodeTyped(v)
	}
	return &edgeRecord{id: EdgeID(be.ID), from: NodeID(be.From), to: NodeID(be.To), etype: EdgeTypeID(be.Type), props: props}
}

func readVertexTxn(txn *badger.Txn, id NodeID) (*vertexRecord, bool) {
	item, err := txn.Get(nodeKey(id))
	if err != nil {
		return nil, false
	}
	var bv badgerVertex
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &bv) }); err != nil {
		return nil, false
	}
	return fromBadgerVertex(bv), true
}

func readEdgeTxn(txn *badger.Txn, id EdgeID) (*edgeRecord, bool) {
	item, err := txn.Get(edgeKey(id))
	if err != nil {
		return nil, false
	}
	var be badgerEdge
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &be) }); err != nil {
		return nil, false
	}
	return fromBadgerEdge(be), true
}

// BadgerGraph is the persistent counterpart of MemoryGraph: one BadgerDB handle,
// shared dictionary, and the set of built
// label-property indexes. The indexes themselves are process-lifetime only — BuildIndex
// builds them in memory and they are not persisted to disk.
type BadgerGraph struct {
	db   *badger.DB
	dict *Dictionary

	propIdxMu sync.RWMutex
	propIdx   map[labelPropKey]*index.LabelPropertyIndex

	txIDMu   sync.Mutex
	nextTxID int64
}

// BadgerOptions configures a BadgerGraph.
type BadgerOptions struct {
	DataDir    string
	InMemory   bool
	SyncWrites bool
	Logger     badger.Logger
}

// NewBadgerGraph opens a persistent graph at dataDir with default settings.
func NewBadgerGraph(dataDir string) (*BadgerGraph, error) {
	return NewBadgerGraphWithOptions(BadgerOptions{DataDir: dataDir})
}

// NewBadgerGraphInMemory opens a BadgerDB-backed graph that keeps all data in RAM,
// useful for tests that want BadgerAccessor's exact code path without touching disk.
func NewBadgerGraphInMemory() (*BadgerGraph, error) {
	return NewBadgerGraphWithOptions(BadgerOptions{InMemory: true})
}

// NewBadgerGraphWithOptions opens a graph with full control over BadgerDB's behavior.
func NewBadgerGraphWithOptions(opts BadgerOptions) (*BadgerGraph, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open badger: %w", err)
	}
	return &BadgerGraph{
		db:      db,
		dict:    NewDictionary(),
		propIdx: make(map[labelPropKey]*index.LabelPropertyIndex),
	}, nil
}

// Close releases the underlying BadgerDB handle.
func (g *BadgerGraph) Close() error { return g.db.Close() }

// Begin opens a new transaction, capturing a consistent read snapshot of the committed
// graph for the lifetime of the transaction: this is the OLD view as of transaction
// start.
func (g *BadgerGraph) Begin() *BadgerAccessor {
	g.txIDMu.Lock()
	g.nextTxID++
	txID := g.nextTxID
	g.txIDMu.Unlock()
	return &BadgerAccessor{
		graph: g,
		txID:  txID,
		snap:  g.db.NewTransaction(false),
		oldV:  make(map[NodeID]*vertexRecord),
		newV:  make(map[NodeID]*vertexRecord),
		oldE:  make(map[EdgeID]*edgeRecord),
		newE:  make(map[EdgeID]*edgeRecord),
	}
}

func (g *BadgerGraph) addToPropIndexes(rec *vertexRecord) {
	g.propIdxMu.RLock()
	defer g.propIdxMu.RUnlock()
	for key, idx := range g.propIdx {
		if !rec.hasLabel(key.label) {
			continue
		}
		if v, ok := rec.props[key.prop]; ok {
			idx.Insert(v, string(rec.id))
		}
	}
}

func (g *BadgerGraph) removeFromPropIndexes(rec *vertexRecord) {
	g.propIdxMu.RLock()
	defer g.propIdxMu.RUnlock()
	for key, idx := range g.propIdx {
		if !rec.hasLabel(key.label) {
			continue
		}
		if v, ok := rec.props[key.prop]; ok {
			idx.Remove(v, string(rec.id))
		}
	}
}

// BadgerAccessor is a transaction over a BadgerGraph, mirroring MemoryAccessor's
// three-tier overlay shape but reading the base layer through a held-open read-only
// badger.Txn instead of an in-process map.
type BadgerAccessor struct {
	graph *BadgerGraph
	txID  int64
	snap  *badger.Txn

	oldV map[NodeID]*vertexRecord
	newV map[NodeID]*vertexRecord
	oldE map[EdgeID]*edgeRecord
	newE map[EdgeID]*edgeRecord

	done bool
}

var _ Accessor = (*BadgerAccessor)(nil)

func (a *BadgerAccessor) lookupVertex(id NodeID, view value.View) (*vertexRecord, bool) {
	if view == value.New {
		if rec, ok := a.newV[id]; ok {
			return rec, rec != nil
		}
	}
	if rec, ok := a.oldV[id]; ok {
		return rec, rec != nil
	}
	return readVertexTxn(a.snap, id)
}

func (a *BadgerAccessor) lookupEdge(id EdgeID, view value.View) (*edgeRecord, bool) {
	if view == value.New {
		if rec, ok := a.newE[id]; ok {
			return rec, rec != nil
		}
	}
	if rec, ok := a.oldE[id]; ok {
		return rec, rec != nil
	}
	return readEdgeTxn(a.snap, id)
}

func (a *BadgerAccessor) collectVertices(view value.View) map[NodeID]*vertexRecord {
	out := make(map[NodeID]*vertexRecord)
	it := a.snap.NewIterator(badger.DefaultIteratorOptions)
	prefix := []byte{prefixNode}
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var bv badgerVertex
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &bv) }); err == nil {
			out[NodeID(bv.ID)] = fromBadgerVertex(bv)
		}
	}
	it.Close()
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

func (a *BadgerAccessor) collectEdges(view value.View) map[EdgeID]*edgeRecord {
	out := make(map[EdgeID]*edgeRecord)
	it := a.snap.NewIterator(badger.DefaultIteratorOptions)
	prefix := []byte{prefixEdge}
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var be badgerEdge
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &be) }); err == nil {
			out[EdgeID(be.ID)] = fromBadgerEdge(be)
		}
	}
	it.Close()
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

func (a *BadgerAccessor) Label(name string) LabelID           { return a.graph.dict.Label(name) }
func (a *BadgerAccessor) LabelName(id LabelID) (string, bool) { return a.graph.dict.LabelName(id) }
func (a *BadgerAccessor) EdgeType(name string) EdgeTypeID     { return a.graph.dict.EdgeType(name) }
func (a *BadgerAccessor) EdgeTypeName(id EdgeTypeID) (string, bool) {
	return a.graph.dict.EdgeTypeName(id)
}
func (a *BadgerAccessor) Property(name string) PropertyID { return a.graph.dict.Property(name) }
func (a *BadgerAccessor) PropertyName(id PropertyID) (string, bool) {
	return a.graph.dict.PropertyName(id)
}

func (a *BadgerAccessor) Vertices(view value.View) VertexIterator {
	m := a.collectVertices(view)
	ids := make([]NodeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &sliceVertexIterator{ids: ids, view: view}
}

func (a *BadgerAccessor) VerticesByLabel(label LabelID, view value.View) VertexIterator {
	if len(a.oldV) == 0 && len(a.newV) == 0 {
		var ids []NodeID
		prefix := labelIndexPrefix(label)
		it := a.snap.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ids = append(ids, NodeID(key[len(prefix):]))
		}
		it.Close()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return &sliceVertexIterator{ids: ids, view: view}
	}
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

func (a *BadgerAccessor) VerticesByLabelProperty(label LabelID, prop PropertyID, val value.Typed, view value.View) VertexIterator {
	if len(a.oldV) == 0 && len(a.newV) == 0 {
		a.graph.propIdxMu.RLock()
		idx, ok := a.graph.propIdx[labelPropKey{label, prop}]
		a.graph.propIdxMu.RUnlock()
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

func (a *BadgerAccessor) Edges(view value.View) EdgeIterator {
	m := a.collectEdges(view)
	ids := make([]EdgeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &sliceEdgeIterator{ids: ids, view: view}
}

func (a *BadgerAccessor) edgesInDirection(v value.VertexHandle, types []EdgeTypeID, dir Direction) EdgeRefIterator {
	id := NodeID(v.ID)
	typeSet := toTypeSet(types)
	noOverlay := len(a.oldE) == 0 && len(a.newE) == 0

	if noOverlay && dir != DirBoth {
		var prefix []byte
		if dir == DirOut {
			prefix = outgoingIndexPrefix(id)
		} else {
			prefix = incomingIndexPrefix(id)
		}
		var refs []EdgeRef
		it := a.snap.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			eid := EdgeID(key[len(prefix):])
			rec, ok := readEdgeTxn(a.snap, eid)
			if !ok {
				continue
			}
			if typeSet != nil && !typeSet[rec.etype] {
				continue
			}
			if dir == DirOut {
				refs = append(refs, EdgeRef{ID: rec.id, Type: rec.etype, Neighbor: rec.to})
			} else {
				refs = append(refs, EdgeRef{ID: rec.id, Type: rec.etype, Neighbor: rec.from})
			}
		}
		it.Close()
		sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
		return &sliceEdgeRefIterator{refs: refs}
	}

	edges := a.collectEdges(v.View)
	ids := make([]EdgeID, 0, len(edges))
	for eid := range edges {
		ids = append(ids, eid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

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

func (a *BadgerAccessor) OutEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator {
	return a.edgesInDirection(v, types, DirOut)
}
func (a *BadgerAccessor) InEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator {
	return a.edgesInDirection(v, types, DirIn)
}
func (a *BadgerAccessor) BothEdges(v value.VertexHandle, types []EdgeTypeID) EdgeRefIterator {
	return a.edgesInDirection(v, types, DirBoth)
}

func (a *BadgerAccessor) VertexExists(v value.VertexHandle) bool {
	_, ok := a.lookupVertex(NodeID(v.ID), v.View)
	return ok
}

func (a *BadgerAccessor) EdgeExists(e value.EdgeHandle) bool {
	_, ok := a.lookupEdge(EdgeID(e.ID), e.View)
	return ok
}

func (a *BadgerAccessor) VertexLabels(v value.VertexHandle) ([]LabelID, error) {
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

func (a *BadgerAccessor) VertexProperty(v value.VertexHandle, name string) (value.Typed, bool, error) {
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

func (a *BadgerAccessor) EdgeProperty(e value.EdgeHandle, name string) (value.Typed, bool, error) {
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

func (a *BadgerAccessor) VertexEndpoints(e value.EdgeHandle) (from, to value.VertexHandle, etype EdgeTypeID, err error) {
	rec, ok := a.lookupEdge(EdgeID(e.ID), e.View)
	if !ok {
		return value.VertexHandle{}, value.VertexHandle{}, 0, ErrNotFound
	}
	from = value.VertexHandle{ID: string(rec.from), View: e.View}
	to = value.VertexHandle{ID: string(rec.to), View: e.View}
	return from, to, rec.etype, nil
}

func (a *BadgerAccessor) InsertVertex() value.VertexHandle {
	id := NodeID(uuid.New().String())
	a.newV[id] = &vertexRecord{
		id:     id,
		labels: make(map[LabelID]struct{}),
		props:  make(map[PropertyID]value.Typed),
	}
	return value.VertexHandle{ID: string(id), View: value.New}
}

func (a *BadgerAccessor) InsertEdge(from, to value.VertexHandle, edgeType EdgeTypeID) (value.EdgeHandle, error) {
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

func (a *BadgerAccessor) mutateVertex(id NodeID, fn func(*vertexRecord)) error {
	rec, ok := a.lookupVertex(id, value.New)
	if !ok {
		return ErrNotFound
	}
	next := rec.clone()
	fn(next)
	a.newV[id] = next
	return nil
}

func (a *BadgerAccessor) mutateEdge(id EdgeID, fn func(*edgeRecord)) error {
	rec, ok := a.lookupEdge(id, value.New)
	if !ok {
		return ErrNotFound
	}
	next := rec.clone()
	fn(next)
	a.newE[id] = next
	return nil
}

func (a *BadgerAccessor) SetVertexProperty(v value.VertexHandle, name string, val value.Typed) error {
	propID := a.graph.dict.Property(name)
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) { r.props[propID] = val })
}

func (a *BadgerAccessor) RemoveVertexProperty(v value.VertexHandle, name string) error {
	propID := a.graph.dict.Property(name)
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) { delete(r.props, propID) })
}

func (a *BadgerAccessor) SetEdgeProperty(e value.EdgeHandle, name string, val value.Typed) error {
	propID := a.graph.dict.Property(name)
	return a.mutateEdge(EdgeID(e.ID), func(r *edgeRecord) { r.props[propID] = val })
}

func (a *BadgerAccessor) RemoveEdgeProperty(e value.EdgeHandle, name string) error {
	propID := a.graph.dict.Property(name)
	return a.mutateEdge(EdgeID(e.ID), func(r *edgeRecord) { delete(r.props, propID) })
}

func (a *BadgerAccessor) AddVertexLabels(v value.VertexHandle, labels []LabelID) error {
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) {
		for _, l := range labels {
			r.labels[l] = struct{}{}
		}
	})
}

func (a *BadgerAccessor) RemoveVertexLabels(v value.VertexHandle, labels []LabelID) error {
	return a.mutateVertex(NodeID(v.ID), func(r *vertexRecord) {
		for _, l := range labels {
			delete(r.labels, l)
		}
	})
}

func (a *BadgerAccessor) DeleteVertex(v value.VertexHandle, detach bool) error {
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

func (a *BadgerAccessor) DeleteEdge(e value.EdgeHandle) error {
	id := EdgeID(e.ID)
	if _, ok := a.lookupEdge(id, value.New); !ok {
		return ErrNotFound
	}
	a.newE[id] = nil
	return nil
}

func (a *BadgerAccessor) AdvanceCommand() {
	for id, rec := range a.newV {
		a.oldV[id] = rec
	}
	for id, rec := range a.newE {
		a.oldE[id] = rec
	}
	a.newV = make(map[NodeID]*vertexRecord)
	a.newE = make(map[EdgeID]*edgeRecord)
}

// Commit writes every buffered change into BadgerDB inside a single write transaction,
// keeping the node/edge records and their label and adjacency index entries consistent.
func (a *BadgerAccessor) Commit() error {
	if a.done {
		return ErrTransactionClosed
	}
	a.AdvanceCommand()
	a.snap.Discard()

	wtxn := a.graph.db.NewTransaction(true)
	defer wtxn.Discard()

	for id, rec := range a.oldV {
		old, hadOld := readVertexTxn(wtxn, id)
		if hadOld {
			for l := range old.labels {
				_ = wtxn.Delete(labelIndexKey(l, id))
			}
			a.graph.removeFromPropIndexes(old)
		}
		if rec == nil {
			if hadOld {
				if err := wtxn.Delete(nodeKey(id)); err != nil {
					return err
				}
			}
			continue
		}
		data, err := json.Marshal(toBadgerVertex(rec))
		if err != nil {
			return err
		}
		if err := wtxn.Set(nodeKey(id), data); err != nil {
			return err
		}
		for l := range rec.labels {
			if err := wtxn.Set(labelIndexKey(l, id), []byte{}); err != nil {
				return err
			}
		}
		a.graph.addToPropIndexes(rec)
	}

	for id, rec := range a.oldE {
		old, hadOld := readEdgeTxn(wtxn, id)
		if hadOld {
			_ = wtxn.Delete(outgoingIndexKey(old.from, id))
			_ = wtxn.Delete(incomingIndexKey(old.to, id))
		}
		if rec == nil {
			if hadOld {
				if err := wtxn.Delete(edgeKey(id)); err != nil {
					return err
				}
			}
			continue
		}
		data, err := json.Marshal(toBadgerEdge(rec))
		if err != nil {
			return err
		}
		if err := wtxn.Set(edgeKey(id), data); err != nil {
			return err
		}
		if err := wtxn.Set(outgoingIndexKey(rec.from, id), []byte{}); err != nil {
			return err
		}
		if err := wtxn.Set(incomingIndexKey(rec.to, id), []byte{}); err != nil {
			return err
		}
	}

	if err := wtxn.Commit(); err != nil {
		return err
	}
	a.done = true
	return nil
}

// Abort discards the buffered writes and the read snapshot; nothing was ever written
// to BadgerDB, so there is nothing to roll back there.
func (a *BadgerAccessor) Abort() error {
	if a.done {
		return ErrTransactionClosed
	}
	a.snap.Discard()
	a.oldV, a.newV, a.oldE, a.newE = nil, nil, nil, nil
	a.done = true
	return nil
}

func (a *BadgerAccessor) Reconstruct(v value.VertexHandle) (value.VertexHandle, error) {
	if _, ok := a.lookupVertex(NodeID(v.ID), v.View); !ok {
		return value.VertexHandle{}, ErrNotFound
	}
	return v, nil
}

func (a *BadgerAccessor) ReconstructEdge(e value.EdgeHandle) (value.EdgeHandle, error) {
	if _, ok := a.lookupEdge(EdgeID(e.ID), e.View); !ok {
		return value.EdgeHandle{}, ErrNotFound
	}
	return e, nil
}

func (a *BadgerAccessor) TransactionID() int64 { return a.txID }

func (a *BadgerAccessor) BuildIndex(label LabelID, prop PropertyID) error {
	a.graph.propIdxMu.Lock()
	defer a.graph.propIdxMu.Unlock()
	key := labelPropKey{label, prop}
	if _, exists := a.graph.propIdx[key]; exists {
		return ErrIndexExists
	}
	idx := index.NewLabelPropertyIndex()
	txn := a.graph.db.NewTransaction(false)
	defer txn.Discard()
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := []byte{prefixNode}
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var bv badgerVertex
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &bv) }); err != nil {
			continue
		}
		rec := fromBadgerVertex(bv)
		if !rec.hasLabel(label) {
			continue
		}
		if v, ok := rec.props[prop]; ok {
			idx.Insert(v, string(rec.id))
		}
	}
	a.graph.propIdx[key] = idx
	return nil
}

func (a *BadgerAccessor) LabelPropertyIndexExists(label LabelID, prop PropertyID) bool {
	a.graph.propIdxMu.RLock()
	defer a.graph.propIdxMu.RUnlock()
	_, ok := a.graph.propIdx[labelPropKey{label, prop}]
	return ok
}
