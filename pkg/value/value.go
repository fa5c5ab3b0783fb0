// Package value implements the tagged-union value domain that flows through every
// Frame slot, every expression evaluation, and every property on a vertex or edge.
//
// A Typed is one of: Null, Bool, Int, Float, String, List, Map, Vertex, Edge or Path.
// Vertex, Edge and Path are opaque handles into the graph accessor rather than inline
// data — see VertexHandle/EdgeHandle/Path. Arithmetic, comparison, logical and coercion
// semantics are defined on Typed so that pkg/expr never has to switch on Go's own type
// system; it only ever switches on Kind.
//
// Three-valued logic is load-bearing here: And/Or/Not follow Kleene logic rather than
// short-circuiting on a zero value, and every comparison that touches Null returns Null
// instead of panicking or defaulting to false.
package value

import (
	"fmt"
	"sort"
)

// Kind tags which variant of Typed is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindVertex
	KindEdge
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindVertex:
		return "Vertex"
	case KindEdge:
		return "Edge"
	case KindPath:
		return "Path"
	default:
		return "Unknown"
	}
}

// View is the MVCC-style visibility selector carried by every Vertex/Edge handle.
type View uint8

const (
	// AsIs means inherit the view already present on a bound handle.
	AsIs View = iota
	// Old means committed prior to the current command.
	Old
	// New means inclusive of uncommitted changes made in the current command.
	New
)

func (v View) String() string {
	switch v {
	case Old:
		return "OLD"
	case New:
		return "NEW"
	default:
		return "AS_IS"
	}
}

// VertexHandle is an opaque reference to a vertex plus the view under which it should
// be read. Switching the view (see WithView) mutates only the tag, never identity.
type VertexHandle struct {
	ID   string
	View View
}

// WithView returns a copy of h tagged with the given view. Identity (ID) is unchanged.
func (h VertexHandle) WithView(v View) VertexHandle {
	h.View = v
	return h
}

// EdgeHandle is the edge counterpart of VertexHandle.
type EdgeHandle struct {
	ID   string
	View View
}

// WithView returns a copy of h tagged with the given view.
func (h EdgeHandle) WithView(v View) EdgeHandle {
	h.View = v
	return h
}

// Path is an alternating sequence of vertex and edge handles, starting and ending with
// a vertex. len(Edges) == len(Vertices)-1 for any non-empty path; a single-vertex path
// (length zero) has no edges.
type Path struct {
	Vertices []VertexHandle
	Edges    []EdgeHandle
}

// Len returns the path length measured in edges.
func (p Path) Len() int { return len(p.Edges) }

// Typed is the tagged-union value. The zero value is Null.
type Typed struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Typed
	m    map[string]Typed
	vtx  VertexHandle
	edge EdgeHandle
	path Path
}

// Null is the Null value. It is also the zero value of Typed.
func Null() Typed { return Typed{kind: KindNull} }

// Bool constructs a Bool value.
func Bool(b bool) Typed { return Typed{kind: KindBool, b: b} }

// Int constructs an Int value.
func Int(i int64) Typed { return Typed{kind: KindInt, i: i} }

// Float constructs a Float value.
func Float(f float64) Typed { return Typed{kind: KindFloat, f: f} }

// String constructs a String value.
func String(s string) Typed { return Typed{kind: KindString, s: s} }

// List constructs a List value. The slice is not copied; callers should not mutate it
// after handing it to List.
func List(items []Typed) Typed { return Typed{kind: KindList, list: items} }

// Map constructs a Map value. The map is not copied.
func Map(m map[string]Typed) Typed { return Typed{kind: KindMap, m: m} }

// Vertex constructs a Vertex value from a handle.
func Vertex(h VertexHandle) Typed { return Typed{kind: KindVertex, vtx: h} }

// Edge constructs an Edge value from a handle.
func Edge(h EdgeHandle) Typed { return Typed{kind: KindEdge, edge: h} }

// PathValue constructs a Path value.
func PathValue(p Path) Typed { return Typed{kind: KindPath, path: p} }

// Kind reports which variant is populated.
func (t Typed) Kind() Kind { return t.kind }

// IsNull reports whether t is Null.
func (t Typed) IsNull() bool { return t.kind == KindNull }

// AsBool returns the boolean payload and whether t is actually a Bool.
func (t Typed) AsBool() (bool, bool) { return t.b, t.kind == KindBool }

// AsInt returns the int64 payload and whether t is actually an Int.
func (t Typed) AsInt() (int64, bool) { return t.i, t.kind == KindInt }

// AsFloat returns the float64 payload and whether t is actually a Float.
func (t Typed) AsFloat() (float64, bool) { return t.f, t.kind == KindFloat }

// AsString returns the string payload and whether t is actually a String.
func (t Typed) AsString() (string, bool) { return t.s, t.kind == KindString }

// AsList returns the list payload and whether t is actually a List.
func (t Typed) AsList() ([]Typed, bool) { return t.list, t.kind == KindList }

// AsMap returns the map payload and whether t is actually a Map.
func (t Typed) AsMap() (map[string]Typed, bool) { return t.m, t.kind == KindMap }

// AsVertex returns the vertex handle and whether t is actually a Vertex.
func (t Typed) AsVertex() (VertexHandle, bool) { return t.vtx, t.kind == KindVertex }

// AsEdge returns the edge handle and whether t is actually an Edge.
func (t Typed) AsEdge() (EdgeHandle, bool) { return t.edge, t.kind == KindEdge }

// AsPath returns the path payload and whether t is actually a Path.
func (t Typed) AsPath() (Path, bool) { return t.path, t.kind == KindPath }

// IsNumeric reports whether t is Int or Float.
func (t Typed) IsNumeric() bool { return t.kind == KindInt || t.kind == KindFloat }

func (t Typed) float() float64 {
	if t.kind == KindInt {
		return float64(t.i)
	}
	return t.f
}

// TypeError reports an operation applied to a value of the wrong Kind.
type TypeError struct {
	Op   string
	Kind Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: operation %q not defined for %s", e.Op, e.Kind)
}

// EvaluationError reports a value-level failure that is not a type mismatch, such as
// integer division by zero or a mandatory-Boolean context receiving Null.
type EvaluationError struct {
	Msg string
}

func (e *EvaluationError) Error() string { return e.Msg }

// Add implements `+`: numeric addition with Int/Float promotion, string concatenation,
// and list append (a list plus anything appends the right side as one more element,
// unless the right side is itself a list, in which case the lists concatenate).
func Add(a, b Typed) (Typed, error) {
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	switch {
	case a.kind == KindList:
		out := make([]Typed, 0, len(a.list)+1)
		out = append(out, a.list...)
		if b.kind == KindList {
			out = append(out, b.list...)
		} else {
			out = append(out, b)
		}
		return List(out), nil
	case b.kind == KindList:
		out := make([]Typed, 0, len(b.list)+1)
		out = append(out, a)
		out = append(out, b.list...)
		return List(out), nil
	case a.kind == KindString || b.kind == KindString:
		return String(stringify(a) + stringify(b)), nil
	case a.kind == KindInt && b.kind == KindInt:
		return Int(a.i + b.i), nil
	case a.IsNumeric() && b.IsNumeric():
		return Float(a.float() + b.float()), nil
	}
	return Typed{}, &TypeError{Op: "+", Kind: a.kind}
}

func stringify(t Typed) string {
	switch t.kind {
	case KindString:
		return t.s
	case KindInt:
		return fmt.Sprintf("%d", t.i)
	case KindFloat:
		return fmt.Sprintf("%g", t.f)
	case KindBool:
		return fmt.Sprintf("%t", t.b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func arith(op string, a, b Typed, intOp func(int64, int64) (int64, error), floatOp func(float64, float64) float64) (Typed, error) {
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return Typed{}, &TypeError{Op: op, Kind: a.kind}
	}
	if a.kind == KindInt && b.kind == KindInt {
		r, err := intOp(a.i, b.i)
		if err != nil {
			return Typed{}, err
		}
		return Int(r), nil
	}
	return Float(floatOp(a.float(), b.float())), nil
}

// Sub implements binary `-`.
func Sub(a, b Typed) (Typed, error) {
	return arith("-", a, b,
		func(x, y int64) (int64, error) { return x - y, nil },
		func(x, y float64) float64 { return x - y })
}

// Mul implements `*`.
func Mul(a, b Typed) (Typed, error) {
	return arith("*", a, b,
		func(x, y int64) (int64, error) { return x * y, nil },
		func(x, y float64) float64 { return x * y })
}

// Div implements `/`. Integer division by zero fails; float division follows IEEE-754
// (producing +Inf/-Inf/NaN rather than erroring).
func Div(a, b Typed) (Typed, error) {
	return arith("/", a, b,
		func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, &EvaluationError{Msg: "division by zero"}
			}
			return x / y, nil
		},
		func(x, y float64) float64 { return x / y })
}

// Mod implements `%`.
func Mod(a, b Typed) (Typed, error) {
	return arith("%", a, b,
		func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, &EvaluationError{Msg: "division by zero"}
			}
			return x % y, nil
		},
		func(x, y float64) float64 {
			// math.Mod avoided to keep this package free of extra imports; this
			// matches its behavior for the finite-operand case relevant here.
			q := int64(x / y)
			return x - float64(q)*y
		})
}

// Neg implements unary `-`.
func Neg(a Typed) (Typed, error) {
	if a.IsNull() {
		return Null(), nil
	}
	switch a.kind {
	case KindInt:
		return Int(-a.i), nil
	case KindFloat:
		return Float(-a.f), nil
	default:
		return Typed{}, &TypeError{Op: "unary-", Kind: a.kind}
	}
}

// And implements three-valued AND: null AND false == false; null AND true == null.
func And(a, b Typed) (Typed, error) {
	ab, aIsBool := a.AsBool()
	bb, bIsBool := b.AsBool()
	if aIsBool && !ab {
		return Bool(false), nil
	}
	if bIsBool && !bb {
		return Bool(false), nil
	}
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	if !aIsBool || !bIsBool {
		return Typed{}, &TypeError{Op: "AND", Kind: a.kind}
	}
	return Bool(ab && bb), nil
}

// Or implements three-valued OR: null OR true == true; null OR false == null.
func Or(a, b Typed) (Typed, error) {
	ab, aIsBool := a.AsBool()
	bb, bIsBool := b.AsBool()
	if aIsBool && ab {
		return Bool(true), nil
	}
	if bIsBool && bb {
		return Bool(true), nil
	}
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	if !aIsBool || !bIsBool {
		return Typed{}, &TypeError{Op: "OR", Kind: a.kind}
	}
	return Bool(ab || bb), nil
}

// Xor implements XOR; unlike AND/OR it has no short-circuiting identity element, so any
// Null operand yields Null.
func Xor(a, b Typed) (Typed, error) {
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	ab, aIsBool := a.AsBool()
	bb, bIsBool := b.AsBool()
	if !aIsBool || !bIsBool {
		return Typed{}, &TypeError{Op: "XOR", Kind: a.kind}
	}
	return Bool(ab != bb), nil
}

// Not implements unary NOT. NOT Null is Null.
func Not(a Typed) (Typed, error) {
	if a.IsNull() {
		return Null(), nil
	}
	ab, ok := a.AsBool()
	if !ok {
		return Typed{}, &TypeError{Op: "NOT", Kind: a.kind}
	}
	return Bool(!ab), nil
}

// sameCategory reports whether a and b belong to a category that order comparisons are
// defined over: both numeric, both string, or both bool.
func sameCategory(a, b Typed) bool {
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a.kind == b.kind && (a.kind == KindString || a.kind == KindBool)
}

// Equal implements `=`. Numeric types compare by value across Int/Float. Disjoint
// categories yield False. Either side Null yields Null.
func Equal(a, b Typed) Typed {
	if a.IsNull() || b.IsNull() {
		return Null()
	}
	if a.IsNumeric() && b.IsNumeric() {
		return Bool(a.float() == b.float())
	}
	if a.kind != b.kind {
		return Bool(false)
	}
	switch a.kind {
	case KindBool:
		return Bool(a.b == b.b)
	case KindString:
		return Bool(a.s == b.s)
	case KindVertex:
		return Bool(a.vtx.ID == b.vtx.ID)
	case KindEdge:
		return Bool(a.edge.ID == b.edge.ID)
	case KindList:
		if len(a.list) != len(b.list) {
			return Bool(false)
		}
		for i := range a.list {
			eq := Equal(a.list[i], b.list[i])
			if v, ok := eq.AsBool(); !ok || !v {
				return Bool(false)
			}
		}
		return Bool(true)
	case KindMap:
		if len(a.m) != len(b.m) {
			return Bool(false)
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok {
				return Bool(false)
			}
			eq := Equal(av, bv)
			if v, ok := eq.AsBool(); !ok || !v {
				return Bool(false)
			}
		}
		return Bool(true)
	default:
		return Bool(false)
	}
}

// NotEqual implements `<>` as NOT(Equal(a, b)), preserving three-valued propagation.
func NotEqual(a, b Typed) Typed {
	eq := Equal(a, b)
	if eq.IsNull() {
		return Null()
	}
	v, _ := eq.AsBool()
	return Bool(!v)
}

// Less implements `<`. Order comparisons require a common comparable category;
// otherwise this fails with TypeError. Either side Null yields Null (not an error).
func Less(a, b Typed) (Typed, error) {
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	if !sameCategory(a, b) {
		return Typed{}, &TypeError{Op: "<", Kind: a.kind}
	}
	switch {
	case a.IsNumeric():
		return Bool(a.float() < b.float()), nil
	case a.kind == KindString:
		return Bool(a.s < b.s), nil
	default:
		return Typed{}, &TypeError{Op: "<", Kind: a.kind}
	}
}

// Greater implements `>` as Less(b, a).
func Greater(a, b Typed) (Typed, error) { return Less(b, a) }

// LessEqual implements `<=`.
func LessEqual(a, b Typed) (Typed, error) {
	lt, err := Less(a, b)
	if err != nil {
		return Typed{}, err
	}
	if lt.IsNull() {
		return Null(), nil
	}
	eq := Equal(a, b)
	ltv, _ := lt.AsBool()
	eqv, _ := eq.AsBool()
	return Bool(ltv || eqv), nil
}

// GreaterEqual implements `>=`.
func GreaterEqual(a, b Typed) (Typed, error) { return LessEqual(b, a) }

// Order is a definite three-way comparator (-1, 0, 1) used by OrderBy, which needs a
// total order including Null rather than the three-valued `<`/`=` operators above. Null
// is never compared against non-Null here; callers sort Null to an end per ASC/DESC
// before invoking Order on the remaining values.
func Order(a, b Typed) (int, error) {
	if a.IsNull() || b.IsNull() {
		return 0, &EvaluationError{Msg: "Order: operands must not be Null"}
	}
	if !sameCategory(a, b) {
		return 0, &TypeError{Op: "ORDER BY", Kind: a.kind}
	}
	switch {
	case a.IsNumeric():
		af, bf := a.float(), b.float()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	case a.kind == KindString:
		switch {
		case a.s < b.s:
			return -1, nil
		case a.s > b.s:
			return 1, nil
		default:
			return 0, nil
		}
	case a.kind == KindBool:
		if a.b == b.b {
			return 0, nil
		}
		if !a.b {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, &TypeError{Op: "ORDER BY", Kind: a.kind}
	}
}

// HashKey returns a comparable Go value suitable for use as a Go map key, used by
// Aggregate and Distinct to group/dedupe by Typed-value equality. Null maps to a
// dedicated sentinel so that Null forms its own group on its own, without colliding
// with the empty string or zero.
func HashKey(t Typed) any {
	switch t.kind {
	case KindNull:
		return nullKey{}
	case KindBool:
		return t.b
	case KindInt:
		return t.i
	case KindFloat:
		// Integral floats hash equal to the corresponding Int, matching Equal's
		// cross-numeric-type comparison.
		if t.f == float64(int64(t.f)) {
			return int64(t.f)
		}
		return t.f
	case KindString:
		return t.s
	case KindVertex:
		return vertexKey{t.vtx.ID}
	case KindEdge:
		return edgeKey{t.edge.ID}
	case KindList:
		keys := make([]any, len(t.list))
		for i, v := range t.list {
			keys[i] = HashKey(v)
		}
		return fmt.Sprint(keys)
	case KindMap:
		names := make([]string, 0, len(t.m))
		for k := range t.m {
			names = append(names, k)
		}
		sort.Strings(names)
		parts := make([]any, 0, len(names)*2)
		for _, n := range names {
			parts = append(parts, n, HashKey(t.m[n]))
		}
		return fmt.Sprint(parts)
	default:
		return fmt.Sprint(t)
	}
}

type nullKey struct{}
type vertexKey struct{ id string }
type edgeKey struct{ id string }

// String renders t for diagnostics and CLI output; it is not the Cypher literal form.
func (t Typed) String() string {
	switch t.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", t.b)
	case KindInt:
		return fmt.Sprintf("%d", t.i)
	case KindFloat:
		return fmt.Sprintf("%g", t.f)
	case KindString:
		return t.s
	case KindList:
		return fmt.Sprintf("%v", t.list)
	case KindMap:
		return fmt.Sprintf("%v", t.m)
	case KindVertex:
		return fmt.Sprintf("Vertex(%s,%s)", t.vtx.ID, t.vtx.View)
	case KindEdge:
		return fmt.Sprintf("Edge(%s,%s)", t.edge.ID, t.edge.View)
	case KindPath:
		return fmt.Sprintf("Path(len=%d)", t.path.Len())
	default:
		return "?"
	}
}
