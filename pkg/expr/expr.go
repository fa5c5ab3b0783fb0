// Package expr implements the expression AST and its post-order evaluator.
//
// The evaluator walks the AST post-order: Go has no visitor double-dispatch idiom, so
// each node's Eval recurses into its children and combines their results directly — a
// plain recursive Eval returning (value.Typed, error) takes the place of an explicit
// evaluation stack.
package expr

import (
	"fmt"

	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// Node is any expression AST node.
type Node interface {
	Eval(ctx *Context) (value.Typed, error)
}

// Context carries everything evaluation needs beyond the expression tree itself: the
// current Frame, the graph accessor (for property lookups and id()/labels()/type()),
// the view a PropertyLookup or function should read under, and the query parameters.
//
// View is mutable during evaluation because sub-evaluation against a different view
// (evaluating the AFTER-state of a just-created pattern, or the BEFORE-state inside a
// WHERE clause attached to an already-advanced MERGE) temporarily overrides it; callers
// restore the prior value themselves by saving and restoring ctx.View around the
// sub-evaluation.
type Context struct {
	Frame      *symbol.Frame
	Accessor   storage.Accessor
	View       value.View
	Parameters map[string]value.Typed
}

// Identifier reads the Frame slot bound to sym.
type Identifier struct {
	Symbol symbol.Symbol
}

func (n Identifier) Eval(ctx *Context) (value.Typed, error) {
	return switchView(ctx.Frame.Get(n.Symbol), ctx.View), nil
}

// switchView rewrites every Vertex/Edge handle reachable from v to ctx.View, so a
// symbol bound under one view earlier in the plan still reads under the view the
// current evaluation context wants. List and Map recurse into their elements; every
// other kind (including Path, which a planner never rebinds mid-expression) is
// returned unchanged.
func switchView(v value.Typed, view value.View) value.Typed {
	if view == value.AsIs {
		return v
	}
	switch v.Kind() {
	case value.KindVertex:
		h, _ := v.AsVertex()
		return value.Vertex(h.WithView(view))
	case value.KindEdge:
		h, _ := v.AsEdge()
		return value.Edge(h.WithView(view))
	case value.KindList:
		list, _ := v.AsList()
		out := make([]value.Typed, len(list))
		for i, e := range list {
			out[i] = switchView(e, view)
		}
		return value.List(out)
	case value.KindMap:
		m, _ := v.AsMap()
		out := make(map[string]value.Typed, len(m))
		for k, e := range m {
			out[k] = switchView(e, view)
		}
		return value.Map(out)
	}
	return v
}

// Literal is a constant value baked into the plan at build time.
type Literal struct {
	Value value.Typed
}

func (n Literal) Eval(ctx *Context) (value.Typed, error) { return n.Value, nil }

// Parameter reads a query parameter by name ($name in Cypher surface syntax).
type Parameter struct {
	Name string
}

func (n Parameter) Eval(ctx *Context) (value.Typed, error) {
	v, ok := ctx.Parameters[n.Name]
	if !ok {
		return value.Null(), &value.EvaluationError{Msg: fmt.Sprintf("unbound parameter $%s", n.Name)}
	}
	return v, nil
}

// PropertyLookup evaluates Target then reads property Key from it under ctx.View.
// Target may be a Vertex, Edge, or Map; any other kind is a TypeError. A missing
// property on an existing Vertex/Edge is Null, not an error (Cypher semantics).
type PropertyLookup struct {
	Target Node
	Key    string
}

func (n PropertyLookup) Eval(ctx *Context) (value.Typed, error) {
	t, err := n.Target.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	if t.IsNull() {
		return value.Null(), nil
	}
	switch t.Kind() {
	case value.KindVertex:
		h, _ := t.AsVertex()
		v, _, err := ctx.Accessor.VertexProperty(h.WithView(ctx.View), n.Key)
		if err != nil {
			return value.Null(), err
		}
		return v, nil
	case value.KindEdge:
		h, _ := t.AsEdge()
		v, _, err := ctx.Accessor.EdgeProperty(h.WithView(ctx.View), n.Key)
		if err != nil {
			return value.Null(), err
		}
		return v, nil
	case value.KindMap:
		m, _ := t.AsMap()
		v, ok := m[n.Key]
		if !ok {
			return value.Null(), nil
		}
		return v, nil
	default:
		return value.Null(), &value.TypeError{Op: "property lookup", Kind: t.Kind()}
	}
}

// ListLiteral evaluates each element in order and collects them into a List value.
type ListLiteral struct {
	Elements []Node
}

func (n ListLiteral) Eval(ctx *Context) (value.Typed, error) {
	out := make([]value.Typed, len(n.Elements))
	for i, e := range n.Elements {
		v, err := e.Eval(ctx)
		if err != nil {
			return value.Null(), err
		}
		out[i] = v
	}
	return value.List(out), nil
}

// MapLiteral evaluates each value expression in declaration order and collects them
// into a Map value keyed by the literal field names.
type MapLiteral struct {
	Keys   []string
	Values []Node
}

func (n MapLiteral) Eval(ctx *Context) (value.Typed, error) {
	m := make(map[string]value.Typed, len(n.Keys))
	for i, k := range n.Keys {
		v, err := n.Values[i].Eval(ctx)
		if err != nil {
			return value.Null(), err
		}
		m[k] = v
	}
	return value.Map(m), nil
}

// ListIndex evaluates List[Index]. A Null list or Null index yields Null. An
// out-of-range integer index yields Null (Cypher semantics), not an error.
type ListIndex struct {
	List  Node
	Index Node
}

func (n ListIndex) Eval(ctx *Context) (value.Typed, error) {
	lv, err := n.List.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	iv, err := n.Index.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	if lv.IsNull() || iv.IsNull() {
		return value.Null(), nil
	}
	list, ok := lv.AsList()
	if !ok {
		return value.Null(), &value.TypeError{Op: "list index", Kind: lv.Kind()}
	}
	i64, ok := iv.AsInt()
	if !ok {
		return value.Null(), &value.TypeError{Op: "list index", Kind: iv.Kind()}
	}
	idx := int(i64)
	if idx < 0 {
		idx += len(list)
	}
	if idx < 0 || idx >= len(list) {
		return value.Null(), nil
	}
	return list[idx], nil
}

// ListSlice evaluates List[From..To], with either bound optional (nil means open).
// Out-of-range bounds clamp rather than error, matching Cypher's forgiving slicing.
type ListSlice struct {
	List Node
	From Node // nil means 0
	To   Node // nil means len(list)
}

func (n ListSlice) Eval(ctx *Context) (value.Typed, error) {
	lv, err := n.List.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	if lv.IsNull() {
		return value.Null(), nil
	}
	list, ok := lv.AsList()
	if !ok {
		return value.Null(), &value.TypeError{Op: "list slice", Kind: lv.Kind()}
	}
	from, to := 0, len(list)
	if n.From != nil {
		fv, err := n.From.Eval(ctx)
		if err != nil {
			return value.Null(), err
		}
		if fv.IsNull() {
			return value.Null(), nil
		}
		i64, _ := fv.AsInt()
		from = clampIndex(int(i64), len(list))
	}
	if n.To != nil {
		tv, err := n.To.Eval(ctx)
		if err != nil {
			return value.Null(), err
		}
		if tv.IsNull() {
			return value.Null(), nil
		}
		i64, _ := tv.AsInt()
		to = clampIndex(int(i64), len(list))
	}
	if from > to {
		from = to
	}
	out := make([]value.Typed, to-from)
	copy(out, list[from:to])
	return value.List(out), nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// UnaryOp is NOT, unary minus, or unary plus.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Node
}

type UnaryOperator uint8

const (
	OpNot UnaryOperator = iota
	OpNeg
	OpPlus
)

func (n UnaryOp) Eval(ctx *Context) (value.Typed, error) {
	v, err := n.Operand.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	switch n.Op {
	case OpNot:
		return value.Not(v)
	case OpNeg:
		return value.Neg(v)
	case OpPlus:
		if !v.IsNull() && !v.IsNumeric() {
			return value.Null(), &value.TypeError{Op: "unary +", Kind: v.Kind()}
		}
		return v, nil
	default:
		return value.Null(), fmt.Errorf("expr: unknown unary operator %d", n.Op)
	}
}

// BinaryOperator enumerates every non-comparison, non-logical infix operator plus the
// logical connectives; comparisons have their own node (see Comparison) since they
// chain (a < b < c) under Cypher grammar while arithmetic and logical operators don't.
type BinaryOperator uint8

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
)

// BinaryOp evaluates Left then Right then combines them. AND/OR short-circuit per
// Kleene three-valued logic (value.And/value.Or already encode the short-circuit
// results for a Null operand; both operands are still evaluated here since Cypher does
// not specify left-to-right short-circuit evaluation of side effects, and expressions in
// this engine are side-effect-free).
type BinaryOp struct {
	Op    BinaryOperator
	Left  Node
	Right Node
}

func (n BinaryOp) Eval(ctx *Context) (value.Typed, error) {
	l, err := n.Left.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	r, err := n.Right.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	switch n.Op {
	case OpAdd:
		return value.Add(l, r)
	case OpSub:
		return value.Sub(l, r)
	case OpMul:
		return value.Mul(l, r)
	case OpDiv:
		return value.Div(l, r)
	case OpMod:
		return value.Mod(l, r)
	case OpAnd:
		return value.And(l, r)
	case OpOr:
		return value.Or(l, r)
	case OpXor:
		return value.Xor(l, r)
	default:
		return value.Null(), fmt.Errorf("expr: unknown binary operator %d", n.Op)
	}
}

// CompareOperator enumerates the six comparison operators.
type CompareOperator uint8

const (
	CmpEq CompareOperator = iota
	CmpNeq
	CmpLt
	CmpLte
	CmpGt
	CmpGte
)

// Comparison evaluates Left OP Right, propagating Null per Cypher's comparison rules
// (any Null operand makes the whole comparison Null, including for != ).
type Comparison struct {
	Op    CompareOperator
	Left  Node
	Right Node
}

func (n Comparison) Eval(ctx *Context) (value.Typed, error) {
	l, err := n.Left.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	r, err := n.Right.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	switch n.Op {
	case CmpEq:
		return value.Equal(l, r), nil
	case CmpNeq:
		return value.NotEqual(l, r), nil
	case CmpLt:
		return value.Less(l, r)
	case CmpLte:
		return value.LessEqual(l, r)
	case CmpGt:
		return value.Greater(l, r)
	case CmpGte:
		return value.GreaterEqual(l, r)
	default:
		return value.Null(), fmt.Errorf("expr: unknown comparison operator %d", n.Op)
	}
}

// IsNullCheck evaluates `Operand IS NULL` or `Operand IS NOT NULL`. Unlike every other
// comparison, this never itself returns Null: the answer is always a definite Bool.
type IsNullCheck struct {
	Operand Node
	Negate  bool // true => IS NOT NULL
}

func (n IsNullCheck) Eval(ctx *Context) (value.Typed, error) {
	v, err := n.Operand.Eval(ctx)
	if err != nil {
		return value.Null(), err
	}
	isNull := v.IsNull()
	if n.Negate {
		isNull = !isNull
	}
	return value.Bool(isNull), nil
}

// CaseBranch is one WHEN/THEN pair of a CaseExpression.
type CaseBranch struct {
	When Node
	Then Node
}

// CaseExpression implements Cypher's generic and simple CASE forms. If Test is non-nil
// this is a simple CASE: each branch's When is compared against Test for equality
// instead of being evaluated as a standalone boolean condition. The first branch whose
// condition is definitely true (not Null, not False) wins; if none match, Else is
// evaluated, or Null if there is no Else.
type CaseExpression struct {
	Test     Node // nil for the generic CASE WHEN <bool> form
	Branches []CaseBranch
	Else     Node // nil means ELSE NULL
}

func (n CaseExpression) Eval(ctx *Context) (value.Typed, error) {
	var testVal value.Typed
	var err error
	if n.Test != nil {
		testVal, err = n.Test.Eval(ctx)
		if err != nil {
			return value.Null(), err
		}
	}
	for _, b := range n.Branches {
		cond, err := b.When.Eval(ctx)
		if err != nil {
			return value.Null(), err
		}
		if n.Test != nil {
			cond = value.Equal(testVal, cond)
		}
		if bv, ok := cond.AsBool(); ok && bv {
			return b.Then.Eval(ctx)
		}
	}
	if n.Else == nil {
		return value.Null(), nil
	}
	return n.Else.Eval(ctx)
}

// AggregationRef reads the result of a completed aggregation out of the Frame, exactly
// like Identifier. It exists as a distinct node kind purely so the planner can tell
// apart "a variable the user named" from "the slot an Aggregate operator fills in" when
// validating that aggregations only appear where Cypher allows them; evaluation is
// identical to Identifier.
type AggregationRef struct {
	Symbol symbol.Symbol
}

func (n AggregationRef) Eval(ctx *Context) (value.Typed, error) {
	return switchView(ctx.Frame.Get(n.Symbol), ctx.View), nil
}
