package explorer

import (
	"context"
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/query"
	"github.com/dd0wney/cluso-explorer/pkg/wire"
)

// Executor runs compiled traversals against fresh gateway sessions and
// returns their raw, unnormalized results.
type Executor struct {
	client  *Client
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewExecutor builds an executor on top of a gateway client.
func NewExecutor(client *Client, logger logging.Logger, reg *metrics.Registry) *Executor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Executor{
		client:  client,
		logger:  logger.With(logging.Component("executor")),
		metrics: reg,
	}
}

// Execute runs one compiled traversal. Identifier filters cannot run on
// the gateway (item identity is not a filterable property), so they are
// applied client-side: directly on the collected result when the scan is
// the whole pipeline, or through the two-pass strategy when further
// steps follow.
func (e *Executor) Execute(ctx context.Context, compiled *query.Compiled) (any, error) {
	if len(compiled.RawIDs) > 0 && len(compiled.Tools) > 1 {
		return e.executeTwoPass(ctx, compiled)
	}
	return e.executeSinglePass(ctx, compiled)
}

// ExecuteSearch runs a single search tool and collects its results.
func (e *Executor) ExecuteSearch(ctx context.Context, tool wire.Tool) (any, error) {
	return e.Execute(ctx, &query.Compiled{
		Tools: wire.ToolList{tool},
		Final: wire.Collect{},
	})
}

func (e *Executor) executeSinglePass(ctx context.Context, compiled *query.Compiled) (any, error) {
	session, err := e.client.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("running tool sequence",
		logging.SessionID(session.ID()),
		logging.Count(len(compiled.Tools)))

	for _, tool := range compiled.Tools {
		if err := session.Apply(ctx, tool); err != nil {
			return nil, err
		}
	}

	result, err := drain(ctx, session, compiled.Final)
	if err != nil {
		return nil, err
	}

	if len(compiled.RawIDs) > 0 {
		if items, ok := result.([]any); ok {
			result = filterByIDs(items, compiled.RawIDs)
		}
	}
	return result, nil
}

// executeTwoPass handles identifier filters followed by further steps.
// Pass one runs only the start tool and filters the collected items by
// id client-side. Pass two replays the start tool on a fresh session,
// narrows it with a property filter rebuilt from the first surviving
// item, then runs the remaining tools and the final action.
func (e *Executor) executeTwoPass(ctx context.Context, compiled *query.Compiled) (any, error) {
	e.metrics.RecordTwoPass()
	startTool := compiled.Tools[0]

	first, err := e.client.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := first.Apply(ctx, startTool); err != nil {
		return nil, err
	}
	candidates, err := first.Collect(ctx, nil)
	if err != nil {
		return nil, err
	}

	survivors := filterByIDs(candidates, compiled.RawIDs)
	e.logger.Debug("identifier filter applied",
		logging.SessionID(first.ID()),
		logging.Count(len(survivors)))
	if len(survivors) == 0 {
		return []any{}, nil
	}
	synthetic, selective := syntheticFilter(survivors[0])

	second, err := e.client.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := second.Apply(ctx, startTool); err != nil {
		return nil, err
	}
	if selective {
		if err := second.Apply(ctx, synthetic); err != nil {
			return nil, err
		}
	}
	for _, tool := range compiled.Tools[1:] {
		if err := second.Apply(ctx, tool); err != nil {
			return nil, err
		}
	}
	return drain(ctx, second, compiled.Final)
}

func drain(ctx context.Context, s *Session, final wire.FinalAction) (any, error) {
	switch a := final.(type) {
	case wire.Collect:
		items, err := s.Collect(ctx, a.Range)
		if err != nil {
			return nil, err
		}
		return items, nil
	case wire.Count:
		return s.Count(ctx)
	case wire.Aggregate:
		return s.Aggregate(ctx, a.Properties)
	case wire.GroupBy:
		return s.Group(ctx, a.Properties)
	}
	return nil, fmt.Errorf("unsupported final action: %T", final)
}

// filterByIDs keeps items whose "id" field matches one of ids.
func filterByIDs(items []any, ids []string) []any {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	kept := make([]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := obj["id"].(string)
		if !ok {
			continue
		}
		if _, match := want[id]; match {
			kept = append(kept, item)
		}
	}
	return kept
}

// syntheticFilter rebuilds the selectivity of an identifier filter as a
// property-equality filter the gateway can evaluate: one equality
// condition per scalar user-visible field of the item, with identity
// and bookkeeping fields excluded. When other items share all of those
// property values the filter over-matches relative to true identifier
// semantics; that approximation is deliberate, inherited behavior. An
// item with no scalar fields yields no filter at all, reported by the
// second return.
func syntheticFilter(item any) (wire.FilterItems, bool) {
	clause := []wire.Condition{}
	if obj, ok := Normalize(item).(map[string]any); ok {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if k == "id" || k == "label" || k == "version" {
				continue
			}
			switch obj[k].(type) {
			case map[string]any, []any:
				continue
			}
			clause = append(clause, wire.Condition{
				Key:      k,
				Value:    obj[k],
				Operator: wire.OpEQ,
			})
		}
	}
	if len(clause) == 0 {
		return wire.FilterItems{}, false
	}
	return wire.FilterItems{Filter: wire.PropertyFilter(wire.DNF{clause})}, true
}
