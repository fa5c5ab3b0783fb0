package expr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/value"
)

// FunctionCall evaluates Args under ctx and dispatches to the named builtin scalar
// function. The function catalog (names and conversion rules) follows the scalar and
// list/utility function set any property-graph query language's expression layer
// carries — toInteger/toFloat/toBoolean/toString, string case/trim/substring, numeric
// abs/ceil/floor/round/sqrt/sign, coalesce, and the entity introspection functions
// id/labels/type/keys/properties — rebuilt here as typed dispatch over value.Typed
// rather than string-pattern matching over raw expression text.
type FunctionCall struct {
	Name string
	Args []Node
}

func (n FunctionCall) Eval(ctx *Context) (value.Typed, error) {
	fn, ok := functionTable[strings.ToLower(n.Name)]
	if !ok {
		return value.Null(), &value.EvaluationError{Msg: fmt.Sprintf("unknown function %s", n.Name)}
	}
	args := make([]value.Typed, len(n.Args))
	for i, a := range n.Args {
		v, err := a.Eval(ctx)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}
	return fn(ctx, args)
}

type builtinFunc func(ctx *Context, args []value.Typed) (value.Typed, error)

var functionTable map[string]builtinFunc

func init() {
	functionTable = map[string]builtinFunc{
		"tointeger": fnToInteger,
		"tofloat":   fnToFloat,
		"toboolean": fnToBoolean,
		"tostring":  fnToString,
		"tolower":   fnToLower,
		"lower":     fnToLower,
		"toupper":   fnToUpper,
		"upper":     fnToUpper,
		"trim":      fnTrim,
		"ltrim":     fnLTrim,
		"rtrim":     fnRTrim,
		"left":      fnLeft,
		"right":     fnRight,
		"reverse":   fnReverse,
		"replace":   fnReplace,
		"split":     fnSplit,
		"substring": fnSubstring,
		"size":      fnSize,
		"abs":       fnAbs,
		"ceil":      fnCeil,
		"floor":     fnFloor,
		"round":     fnRound,
		"sqrt":      fnSqrt,
		"sign":      fnSign,
		"coalesce":  fnCoalesce,
		"id":        fnID,
		"type":      fnType,
		"labels":     fnLabels,
		"keys":       fnKeys,
		"properties": fnProperties,
		"valuetype":  fnValueType,
	}
}

func arityError(name string, want, got int) error {
	return &value.EvaluationError{Msg: fmt.Sprintf("%s() expects %d argument(s), got %d", name, want, got)}
}

func fnToInteger(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("toInteger", 1, len(args))
	}
	a := args[0]
	switch {
	case a.IsNull():
		return value.Null(), nil
	case a.Kind() == value.KindInt:
		return a, nil
	case a.Kind() == value.KindFloat:
		f, _ := a.AsFloat()
		return value.Int(int64(f)), nil
	case a.Kind() == value.KindBool:
		b, _ := a.AsBool()
		if b {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case a.Kind() == value.KindString:
		s, _ := a.AsString()
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value.Null(), nil
		}
		return value.Int(n), nil
	default:
		return value.Null(), &value.TypeError{Op: "toInteger", Kind: a.Kind()}
	}
}

func fnToFloat(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("toFloat", 1, len(args))
	}
	a := args[0]
	switch {
	case a.IsNull():
		return value.Null(), nil
	case a.Kind() == value.KindFloat:
		return a, nil
	case a.Kind() == value.KindInt:
		i, _ := a.AsInt()
		return value.Float(float64(i)), nil
	case a.Kind() == value.KindString:
		s, _ := a.AsString()
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return value.Null(), nil
		}
		return value.Float(f), nil
	default:
		return value.Null(), &value.TypeError{Op: "toFloat", Kind: a.Kind()}
	}
}

func fnToBoolean(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("toBoolean", 1, len(args))
	}
	a := args[0]
	switch {
	case a.IsNull():
		return value.Null(), nil
	case a.Kind() == value.KindBool:
		return a, nil
	case a.Kind() == value.KindString:
		s, _ := a.AsString()
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		default:
			return value.Null(), nil
		}
	default:
		return value.Null(), &value.TypeError{Op: "toBoolean", Kind: a.Kind()}
	}
}

func fnToString(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("toString", 1, len(args))
	}
	a := args[0]
	if a.IsNull() {
		return value.Null(), nil
	}
	return value.String(a.String()), nil
}

func asString(name string, a value.Typed) (string, bool, error) {
	if a.IsNull() {
		return "", false, nil
	}
	s, ok := a.AsString()
	if !ok {
		return "", false, &value.TypeError{Op: name, Kind: a.Kind()}
	}
	return s, true, nil
}

func fnToLower(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("toLower", 1, len(args))
	}
	s, ok, err := asString("toLower", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.String(strings.ToLower(s)), nil
}

func fnToUpper(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("toUpper", 1, len(args))
	}
	s, ok, err := asString("toUpper", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.String(strings.ToUpper(s)), nil
}

func fnTrim(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("trim", 1, len(args))
	}
	s, ok, err := asString("trim", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.String(strings.TrimSpace(s)), nil
}

func fnLTrim(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("lTrim", 1, len(args))
	}
	s, ok, err := asString("lTrim", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.String(strings.TrimLeft(s, " \t\n\r")), nil
}

func fnRTrim(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("rTrim", 1, len(args))
	}
	s, ok, err := asString("rTrim", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.String(strings.TrimRight(s, " \t\n\r")), nil
}

func fnLeft(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 2 {
		return value.Null(), arityError("left", 2, len(args))
	}
	s, ok, err := asString("left", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	n, ok := args[1].AsInt()
	if !ok {
		return value.Null(), &value.TypeError{Op: "left", Kind: args[1].Kind()}
	}
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if int(n) > len(r) {
		n = int64(len(r))
	}
	return value.String(string(r[:n])), nil
}

func fnRight(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 2 {
		return value.Null(), arityError("right", 2, len(args))
	}
	s, ok, err := asString("right", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	n, ok := args[1].AsInt()
	if !ok {
		return value.Null(), &value.TypeError{Op: "right", Kind: args[1].Kind()}
	}
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if int(n) > len(r) {
		n = int64(len(r))
	}
	return value.String(string(r[len(r)-int(n):])), nil
}

func fnReverse(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("reverse", 1, len(args))
	}
	a := args[0]
	if a.IsNull() {
		return value.Null(), nil
	}
	if s, ok := a.AsString(); ok {
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return value.String(string(r)), nil
	}
	if list, ok := a.AsList(); ok {
		out := make([]value.Typed, len(list))
		for i, v := range list {
			out[len(list)-1-i] = v
		}
		return value.List(out), nil
	}
	return value.Null(), &value.TypeError{Op: "reverse", Kind: a.Kind()}
}

func fnReplace(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 3 {
		return value.Null(), arityError("replace", 3, len(args))
	}
	s, ok, err := asString("replace", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	search, ok := args[1].AsString()
	if !ok {
		return value.Null(), &value.TypeError{Op: "replace", Kind: args[1].Kind()}
	}
	replacement, ok := args[2].AsString()
	if !ok {
		return value.Null(), &value.TypeError{Op: "replace", Kind: args[2].Kind()}
	}
	return value.String(strings.ReplaceAll(s, search, replacement)), nil
}

func fnSplit(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 2 {
		return value.Null(), arityError("split", 2, len(args))
	}
	s, ok, err := asString("split", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	sep, ok := args[1].AsString()
	if !ok {
		return value.Null(), &value.TypeError{Op: "split", Kind: args[1].Kind()}
	}
	parts := strings.Split(s, sep)
	out := make([]value.Typed, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.List(out), nil
}

func fnSubstring(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 2 && len(args) != 3 {
		return value.Null(), &value.EvaluationError{Msg: "substring() expects 2 or 3 arguments"}
	}
	s, ok, err := asString("substring", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	start, ok := args[1].AsInt()
	if !ok {
		return value.Null(), &value.TypeError{Op: "substring", Kind: args[1].Kind()}
	}
	r := []rune(s)
	if start < 0 {
		start = 0
	}
	if int(start) > len(r) {
		start = int64(len(r))
	}
	end := int64(len(r))
	if len(args) == 3 {
		length, ok := args[2].AsInt()
		if !ok {
			return value.Null(), &value.TypeError{Op: "substring", Kind: args[2].Kind()}
		}
		if start+length < end {
			end = start + length
		}
		if end < start {
			end = start
		}
	}
	return value.String(string(r[start:end])), nil
}

func fnSize(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("size", 1, len(args))
	}
	a := args[0]
	if a.IsNull() {
		return value.Null(), nil
	}
	if s, ok := a.AsString(); ok {
		return value.Int(int64(len([]rune(s)))), nil
	}
	if list, ok := a.AsList(); ok {
		return value.Int(int64(len(list))), nil
	}
	return value.Null(), &value.TypeError{Op: "size", Kind: a.Kind()}
}

func numArg(name string, a value.Typed) (float64, bool, error) {
	if a.IsNull() {
		return 0, false, nil
	}
	if !a.IsNumeric() {
		return 0, false, &value.TypeError{Op: name, Kind: a.Kind()}
	}
	if i, ok := a.AsInt(); ok {
		return float64(i), true, nil
	}
	f, _ := a.AsFloat()
	return f, true, nil
}

func fnAbs(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("abs", 1, len(args))
	}
	if i, ok := args[0].AsInt(); ok {
		if i < 0 {
			i = -i
		}
		return value.Int(i), nil
	}
	f, ok, err := numArg("abs", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.Float(math.Abs(f)), nil
}

func fnCeil(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("ceil", 1, len(args))
	}
	f, ok, err := numArg("ceil", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.Float(math.Ceil(f)), nil
}

func fnFloor(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("floor", 1, len(args))
	}
	f, ok, err := numArg("floor", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.Float(math.Floor(f)), nil
}

func fnRound(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("round", 1, len(args))
	}
	f, ok, err := numArg("round", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.Float(math.Round(f)), nil
}

func fnSqrt(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("sqrt", 1, len(args))
	}
	f, ok, err := numArg("sqrt", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	return value.Float(math.Sqrt(f)), nil
}

func fnSign(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("sign", 1, len(args))
	}
	f, ok, err := numArg("sign", args[0])
	if err != nil || !ok {
		return value.Null(), err
	}
	switch {
	case f > 0:
		return value.Int(1), nil
	case f < 0:
		return value.Int(-1), nil
	default:
		return value.Int(0), nil
	}
}

func fnCoalesce(_ *Context, args []value.Typed) (value.Typed, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	return value.Null(), nil
}

func fnID(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("id", 1, len(args))
	}
	if v, ok := args[0].AsVertex(); ok {
		return value.String(v.ID), nil
	}
	if e, ok := args[0].AsEdge(); ok {
		return value.String(e.ID), nil
	}
	return value.Null(), &value.TypeError{Op: "id", Kind: args[0].Kind()}
}

func fnType(ctx *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("type", 1, len(args))
	}
	e, ok := args[0].AsEdge()
	if !ok {
		return value.Null(), &value.TypeError{Op: "type", Kind: args[0].Kind()}
	}
	_, _, etype, err := ctx.Accessor.VertexEndpoints(e)
	if err != nil {
		return value.Null(), err
	}
	name, _ := ctx.Accessor.EdgeTypeName(etype)
	return value.String(name), nil
}

func fnLabels(ctx *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("labels", 1, len(args))
	}
	v, ok := args[0].AsVertex()
	if !ok {
		return value.Null(), &value.TypeError{Op: "labels", Kind: args[0].Kind()}
	}
	ids, err := ctx.Accessor.VertexLabels(v)
	if err != nil {
		return value.Null(), err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := ctx.Accessor.LabelName(id); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]value.Typed, len(names))
	for i, name := range names {
		out[i] = value.String(name)
	}
	return value.List(out), nil
}

func fnKeys(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("keys", 1, len(args))
	}
	m, ok := args[0].AsMap()
	if !ok {
		return value.Null(), &value.TypeError{Op: "keys", Kind: args[0].Kind()}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]value.Typed, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return value.List(out), nil
}

// fnProperties reads every interned property name off Accessor's dictionary that has a
// value set on the given vertex, returning them as a map. There is no "list of set
// property names" call on Accessor, so this walks the full dictionary and probes each
// name — acceptable here since property dictionaries are small and this runs once per
// properties() call, not once per vertex scanned.
func fnProperties(ctx *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("properties", 1, len(args))
	}
	v, ok := args[0].AsVertex()
	if !ok {
		return value.Null(), &value.TypeError{Op: "properties", Kind: args[0].Kind()}
	}
	out := make(map[string]value.Typed)
	for id := storage.PropertyID(0); ; id++ {
		name, ok := ctx.Accessor.PropertyName(id)
		if !ok {
			break
		}
		val, has, err := ctx.Accessor.VertexProperty(v, name)
		if err != nil {
			return value.Null(), err
		}
		if has {
			out[name] = val
		}
	}
	return value.Map(out), nil
}

func fnValueType(_ *Context, args []value.Typed) (value.Typed, error) {
	if len(args) != 1 {
		return value.Null(), arityError("valueType", 1, len(args))
	}
	switch args[0].Kind() {
	case value.KindNull:
		return value.String("NULL"), nil
	case value.KindBool:
		return value.String("BOOLEAN"), nil
	case value.KindInt:
		return value.String("INTEGER"), nil
	case value.KindFloat:
		return value.String("FLOAT"), nil
	case value.KindString:
		return value.String("STRING"), nil
	case value.KindList:
		return value.String("LIST"), nil
	case value.KindMap:
		return value.String("MAP"), nil
	case value.KindVertex:
		return value.String("NODE"), nil
	case value.KindEdge:
		return value.String("RELATIONSHIP"), nil
	case value.KindPath:
		return value.String("PATH"), nil
	default:
		return value.String("ANY"), nil
	}
}
