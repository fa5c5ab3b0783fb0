// Package engine ties a storage.Accessor, a symbol table and a compiled plan.Cursor
// tree together into one Execute call, matching the corpus's "one Execute entry point
// owns a transaction's whole lifecycle" idiom (aabr2612-KiteDB/graphdb.Executor.Execute
// drives an AST the same way Execute here drives a plan.Cursor tree).
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/konr4dp/memgraph/pkg/plan"
	"github.com/konr4dp/memgraph/pkg/result"
	"github.com/konr4dp/memgraph/pkg/storage"
	"github.com/konr4dp/memgraph/pkg/symbol"
	"github.com/konr4dp/memgraph/pkg/value"
)

// ErrorKind classifies an Error for callers that need to branch on failure category
// (e.g. a driver deciding whether a failure is retryable) without string-matching
// error text.
type ErrorKind int

const (
	// InternalError marks a planner/programmer bug: an unbound symbol, a cursor
	// invariant violated. Never expected to surface in correct code.
	InternalError ErrorKind = iota
	TypeError
	EvaluationError
	ConstraintError
	SchemaError
	QueryError
)

func (k ErrorKind) String() string {
	switch k {
	case TypeError:
		return "TypeError"
	case EvaluationError:
		return "EvaluationError"
	case ConstraintError:
		return "ConstraintError"
	case SchemaError:
		return "SchemaError"
	case QueryError:
		return "QueryError"
	default:
		return "InternalError"
	}
}

// Error is the single error type Execute ever returns, wrapping the cursor-tree
// failure that caused it with a classification a caller can switch on.
type Error struct {
	Kind  ErrorKind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// classify maps a cursor-tree failure to an ErrorKind by inspecting its concrete type.
// Storage-layer sentinel errors are treated as ConstraintError/SchemaError per their
// own meaning; everything from pkg/value keeps its own kind; anything unrecognized —
// including context.Canceled/DeadlineExceeded — is QueryError, since cancellation is
// an execution-level outcome, not a bug in the query itself.
func classify(err error) ErrorKind {
	switch {
	case err == nil:
		return InternalError
	case isValueTypeError(err):
		return TypeError
	case isValueEvaluationError(err):
		return EvaluationError
	case err == storage.ErrHasEdges:
		return ConstraintError
	case err == storage.ErrIndexExists, err == storage.ErrIndexMissing:
		return SchemaError
	default:
		return QueryError
	}
}

func isValueTypeError(err error) bool {
	_, ok := err.(*value.TypeError)
	return ok
}

func isValueEvaluationError(err error) bool {
	_, ok := err.(*value.EvaluationError)
	return ok
}

// wrap builds an Error from a cursor-tree failure, classifying it automatically.
func wrap(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: classify(err), cause: err}
}

// Request is everything Execute needs to run one compiled plan to completion.
type Request struct {
	Root       plan.Cursor
	Symbols    *symbol.Table
	Accessor   storage.Accessor
	Parameters map[string]value.Typed
	Ctx        context.Context
}

// Execute drains Root to completion, row by row, logging a summary on completion or
// failure. The caller is responsible for having wired Root's leaves to write into a
// result.Stream (normally via a plan.Produce at the top of the tree) — Execute itself
// only drives the pull loop and reports the outcome, it does not touch the Stream
// directly.
func Execute(req Request) (result.Summary, error) {
	log := logrus.WithField("txn_id", req.Accessor.TransactionID())

	frame := symbol.New(req.Symbols.Size())
	ctx := &plan.Context{Accessor: req.Accessor, Parameters: req.Parameters, Ctx: req.Ctx}

	rows := 0
	for {
		ok, err := req.Root.Pull(frame, ctx)
		if err != nil {
			wrapped := wrap(err)
			log.WithFields(logrus.Fields{
				"rows":  rows,
				"error": wrapped.Error(),
			}).Warn("query execution failed")
			return result.Summary{RowsProduced: rows, Err: wrapped}, wrapped
		}
		if !ok {
			break
		}
		rows++
	}

	log.WithField("rows", rows).Info("query execution completed")
	return result.Summary{RowsProduced: rows}, nil
}

// PlanBuilder compiles query text into a runnable plan.Cursor tree plus the symbol
// table it was planned against. Kept as an interface here rather than a concrete
// planner/parser, since query compilation is out of this module's scope — callers
// supply their own (e.g. a future Cypher front end, or tests building cursor trees by
// hand).
type PlanBuilder func(queryText string) (plan.Cursor, *symbol.Table, error)

// PlanCache deduplicates concurrent compilations of the same query text via
// singleflight, so that N goroutines issuing the same query at once compile it once,
// not N times — this is the plan-cache behavior the query_plan_cache config flag controls.
type PlanCache struct {
	build PlanBuilder
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedPlan
}

type cachedPlan struct {
	root    plan.Cursor
	symbols *symbol.Table
}

// NewPlanCache wraps build with singleflight-deduplicated, memoized compilation.
func NewPlanCache(build PlanBuilder) *PlanCache {
	return &PlanCache{build: build, cache: make(map[string]cachedPlan)}
}

// Compile returns the cached plan for queryText, compiling it at most once even under
// concurrent callers requesting the same text simultaneously. The returned Cursor is
// shared statically but never pulled directly — Compile's caller must still be the only
// goroutine driving the returned Cursor's Pull, since Cursor state is not safe for
// concurrent use; callers needing per-invocation state rebuild the cursor instance from
// the cached *logical* plan in a full query-planning layer, which is out of scope here.
func (pc *PlanCache) Compile(queryText string) (plan.Cursor, *symbol.Table, error) {
	pc.mu.RLock()
	cp, ok := pc.cache[queryText]
	pc.mu.RUnlock()
	if ok {
		return cp.root, cp.symbols, nil
	}
	v, err, _ := pc.group.Do(queryText, func() (any, error) {
		root, symbols, err := pc.build(queryText)
		if err != nil {
			return nil, err
		}
		return cachedPlan{root: root, symbols: symbols}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	cp = v.(cachedPlan)
	pc.mu.Lock()
	pc.cache[queryText] = cp
	pc.mu.Unlock()
	return cp.root, cp.symbols, nil
}
