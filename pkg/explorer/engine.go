package explorer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/query"
	"github.com/dd0wney/cluso-explorer/pkg/validation"
)

// Engine evaluates parsed queries against a remote gateway. Each
// returned variable resolves, compiles and executes independently on
// its own session; write operations are rejected before any network
// call.
type Engine struct {
	client   *Client
	executor *Executor
	logger   logging.Logger
	metrics  *metrics.Registry
}

// NewEngine validates the config and builds an engine. A nil logger
// falls back to the default JSON logger, a nil registry to the process
// default.
func NewEngine(cfg *Config, logger logging.Logger, reg *metrics.Registry) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}

	client := NewClient(cfg, logger, reg)
	return &Engine{
		client:   client,
		executor: NewExecutor(client, logger, reg),
		logger:   logger.With(logging.Component("engine")),
		metrics:  reg,
	}, nil
}

// Result is one returned variable's evaluated, normalized value.
type Result struct {
	Variable string
	Value    any
}

// Evaluate runs a parsed query and returns one result per returned
// variable. Returned variables are evaluated sequentially in randomized
// order, each on its own fresh session, so callers never come to depend
// on a particular evaluation order. Queries without a return clause
// fall back to their bare expression statements (evaluated in order, as
// unnamed results) and then to the final assignment. A failure aborts
// the failing variable and everything after it; results evaluated
// before the failure are returned alongside the error.
func (e *Engine) Evaluate(ctx context.Context, q *query.Query, params map[string]any) ([]Result, error) {
	start := time.Now()
	log := e.logger.With(
		logging.RunID(uuid.New().String()),
		logging.QueryName(q.Name))

	if err := validation.ValidateParams(params); err != nil {
		log.Warn("parameter map failed validation", logging.Error(err))
	}

	if op, found := query.ContainsWrite(q); found {
		e.metrics.RecordWriteRejection()
		e.metrics.RecordQuery("pipeline", "rejected", time.Since(start), 0)
		return nil, &query.CompileError{
			Reason: fmt.Sprintf("%s cannot run in read-only evaluation", op),
			Err:    query.ErrWriteOperation,
		}
	}

	// Saved queries with declared parameters have a compiled endpoint on
	// the gateway. Try it first; any failure falls back to the tool
	// pipeline.
	if q.Name != "" && len(q.Parameters) > 0 {
		result, err := e.client.RunNamedQuery(ctx, q.Name, params)
		if err == nil {
			e.metrics.RecordQuery("fast_path", "ok", time.Since(start), 1)
			log.Info("compiled query endpoint served", logging.Latency(time.Since(start)))
			return []Result{{Variable: q.Name, Value: Normalize(result)}}, nil
		}
		log.Debug("compiled query endpoint unavailable, using tool pipeline",
			logging.Error(err))
	}

	exprs := make(map[string]query.Expression)
	traversals := make(map[string]*query.Traversal)
	effParams := make(map[string]any, len(params))
	for k, v := range params {
		effParams[k] = v
	}

	var implicit []query.Expression
	var lastAssigned string
	for _, stmt := range q.Statements {
		switch s := stmt.(type) {
		case query.Assignment:
			exprs[s.Variable] = s.Value
			lastAssigned = s.Variable
			if tr, ok := s.Value.(query.TraversalExpr); ok {
				traversals[s.Variable] = tr.Traversal
				continue
			}
			// A literal assignment doubles as a parameter binding, so
			// later expressions can reference it by name. Values the
			// caller supplied win over in-query literals.
			if lit, ok := literalValue(s.Value); ok {
				if _, exists := effParams[s.Variable]; !exists {
					effParams[s.Variable] = lit
				}
			}
		case query.ExprStatement:
			implicit = append(implicit, s.Expr)
		}
	}

	results := make([]Result, 0, len(q.Returns))

	names := query.UsedIdentifiers(q.Returns)
	switch {
	case len(names) > 0:
		shuffled := make([]string, len(names))
		copy(shuffled, names)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, name := range shuffled {
			expr, ok := exprs[name]
			if !ok {
				log.Warn("returned variable is not assigned", logging.Variable(name))
				continue
			}

			value, err := e.evaluateExpression(ctx, expr, traversals, effParams)
			if err != nil {
				e.metrics.RecordQuery("pipeline", "error", time.Since(start), len(results))
				return results, fmt.Errorf("evaluate %s: %w", name, err)
			}
			results = append(results, Result{Variable: name, Value: Normalize(value)})
		}

	case len(implicit) > 0:
		// Bare expression statements evaluate in order, as unnamed
		// results.
		for _, expr := range implicit {
			value, err := e.evaluateExpression(ctx, expr, traversals, effParams)
			if err != nil {
				e.metrics.RecordQuery("pipeline", "error", time.Since(start), len(results))
				return results, fmt.Errorf("evaluate expression: %w", err)
			}
			results = append(results, Result{Value: Normalize(value)})
		}

	case lastAssigned != "":
		// No returns and no bare expressions: the final assignment is
		// the query's result.
		value, err := e.evaluateExpression(ctx, exprs[lastAssigned], traversals, effParams)
		if err != nil {
			e.metrics.RecordQuery("pipeline", "error", time.Since(start), 0)
			return nil, fmt.Errorf("evaluate %s: %w", lastAssigned, err)
		}
		results = append(results, Result{Variable: lastAssigned, Value: Normalize(value)})

	default:
		e.metrics.RecordQuery("pipeline", "rejected", time.Since(start), 0)
		return nil, &query.CompileError{
			Reason: "no executable traversal or return statement found",
		}
	}

	e.metrics.RecordQuery("pipeline", "ok", time.Since(start), len(results))
	log.Info("query evaluated",
		logging.Count(len(results)),
		logging.Latency(time.Since(start)))
	return results, nil
}

func (e *Engine) evaluateExpression(ctx context.Context, expr query.Expression, traversals map[string]*query.Traversal, params map[string]any) (any, error) {
	switch v := expr.(type) {
	case query.TraversalExpr:
		resolved, err := query.Resolve(v.Traversal, traversals)
		if err != nil {
			return nil, err
		}
		compiled, err := query.Compile(resolved, params)
		if err != nil {
			return nil, err
		}
		return e.executor.Execute(ctx, compiled)

	case query.SearchVectorExpr:
		tool, err := query.CompileSearchVector(v.Search, params)
		if err != nil {
			return nil, err
		}
		return e.executor.ExecuteSearch(ctx, tool)

	case query.SearchKeywordExpr:
		tool, err := query.CompileKeywordSearch(v.Search, params)
		if err != nil {
			return nil, err
		}
		return e.executor.ExecuteSearch(ctx, tool)

	case query.IdentifierExpr:
		// An identifier alias evaluates as a zero-step traversal rooted
		// at the aliased variable; resolution splices in the target.
		alias := &query.Traversal{Start: query.IdentifierStart{Name: v.Name}}
		return e.evaluateExpression(ctx, query.TraversalExpr{Traversal: alias}, traversals, params)

	case query.StringLit:
		return v.Value, nil
	case query.IntLit:
		return v.Value, nil
	case query.FloatLit:
		return v.Value, nil
	case query.BoolLit:
		return v.Value, nil

	case query.ArrayLit:
		items := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			val, err := e.evaluateExpression(ctx, item, traversals, params)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return items, nil

	default:
		return nil, &query.CompileError{
			Reason: fmt.Sprintf("unsupported expression for a returned variable: %T", expr),
		}
	}
}

// literalValue reads an expression as a plain Go value, when it is one.
func literalValue(expr query.Expression) (any, bool) {
	switch v := expr.(type) {
	case query.StringLit:
		return v.Value, true
	case query.IntLit:
		return v.Value, true
	case query.FloatLit:
		return v.Value, true
	case query.BoolLit:
		return v.Value, true
	case query.ArrayLit:
		items := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			val, ok := literalValue(item)
			if !ok {
				return nil, false
			}
			items = append(items, val)
		}
		return items, true
	}
	return nil, false
}
