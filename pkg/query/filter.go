package query

import (
	"github.com/dd0wney/cluso-explorer/pkg/wire"
)

// compileFilter turns a WHERE expression into a wire filter spec: a DNF
// property filter for comparisons and their AND/OR combinations, or a
// nested sub-traversal filter for bare walk shapes. One spec never holds
// both kinds; combining a sub-traversal branch under AND/OR is a compile
// error rather than a silent drop.
func compileFilter(expr Expression, params map[string]any) (wire.FilterSpec, error) {
	switch e := expr.(type) {
	case AndExpr:
		// Distribute AND over nested ORs: cross-multiply the clause
		// lists, seeding with a single empty clause.
		combined := wire.DNF{{}}
		for _, sub := range e.Exprs {
			sf, err := compileFilter(sub, params)
			if err != nil {
				return wire.FilterSpec{}, err
			}
			if sf.Properties == nil {
				return wire.FilterSpec{}, compileErrorf("sub-traversal filters cannot be combined under AND/OR")
			}
			next := make(wire.DNF, 0, len(combined)*len(sf.Properties))
			for _, have := range combined {
				for _, add := range sf.Properties {
					clause := make([]wire.Condition, 0, len(have)+len(add))
					clause = append(clause, have...)
					clause = append(clause, add...)
					next = append(next, clause)
				}
			}
			combined = next
		}
		return wire.PropertyFilter(combined), nil

	case OrExpr:
		combined := wire.DNF{}
		for _, sub := range e.Exprs {
			sf, err := compileFilter(sub, params)
			if err != nil {
				return wire.FilterSpec{}, err
			}
			if sf.Properties == nil {
				return wire.FilterSpec{}, compileErrorf("sub-traversal filters cannot be combined under AND/OR")
			}
			combined = append(combined, sf.Properties...)
		}
		return wire.PropertyFilter(combined), nil

	case TraversalExpr:
		return compileWhereTraversal(e.Traversal, params)

	default:
		return wire.FilterSpec{}, compileErrorf("unsupported expression in WHERE: %T", expr)
	}
}

// compileWhereTraversal compiles the `_::...` form of a WHERE clause:
// a direct property comparison when it matches `_::{prop}::Op(value)`,
// otherwise a nested existence filter over the walk steps.
func compileWhereTraversal(t *Traversal, params map[string]any) (wire.FilterSpec, error) {
	if _, ok := t.Start.(AnonymousStart); !ok {
		return wire.FilterSpec{}, compileErrorf("WHERE clause traversal must start with the anonymous node _")
	}
	if len(t.Steps) == 0 {
		return wire.FilterSpec{}, compileErrorf("WHERE clause traversal too short")
	}

	if len(t.Steps) >= 2 {
		if obj, ok := t.Steps[0].(Object); ok && len(obj.Fields) == 1 {
			if cmp, ok := t.Steps[1].(Compare); ok {
				val, err := extractValue(cmp.Operand, params)
				if err != nil {
					return wire.FilterSpec{}, err
				}
				return wire.PropertyFilter(wire.DNF{{{
					Key:      obj.Fields[0].Key,
					Value:    val,
					Operator: wireOperator(cmp.Op),
				}}}), nil
			}
		}
	}

	spec, err := compileFilterChain(t.Steps)
	if err != nil {
		return wire.FilterSpec{}, err
	}
	if spec == nil {
		return wire.FilterSpec{}, nil
	}
	return *spec, nil
}

// compileFilterChain builds the nested existence filter for a walk-only
// sub-traversal: one tool per step, each wrapping the remainder of the
// chain as its nested filter.
func compileFilterChain(steps []Step) (*wire.FilterSpec, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	rest, err := compileFilterChain(steps[1:])
	if err != nil {
		return nil, err
	}

	var tool wire.Tool
	switch s := steps[0].(type) {
	case Out:
		tool = wire.OutStep{EdgeLabel: s.Label, EdgeKind: wire.EdgeKindNode, Filter: rest}
	case In:
		tool = wire.InStep{EdgeLabel: s.Label, EdgeKind: wire.EdgeKindNode, Filter: rest}
	case OutE:
		tool = wire.OutEStep{EdgeLabel: s.Label, Filter: rest}
	case InE:
		tool = wire.InEStep{EdgeLabel: s.Label, Filter: rest}
	default:
		return nil, compileErrorf("unsupported step in filter chain: %T", steps[0])
	}

	spec := wire.TraversalFilter(tool)
	return &spec, nil
}

// compileObjectFilter compiles a property object literal into a single
// equality clause, one condition per field.
func compileObjectFilter(obj Object, params map[string]any) (wire.FilterSpec, error) {
	conds := make([]wire.Condition, 0, len(obj.Fields))
	for _, f := range obj.Fields {
		val, err := extractValue(f.Value, params)
		if err != nil {
			return wire.FilterSpec{}, err
		}
		conds = append(conds, wire.Condition{Key: f.Key, Value: val, Operator: wire.OpEQ})
	}
	return wire.PropertyFilter(wire.DNF{conds}), nil
}

// wireOperator converts a comparison operator to its wire form. The
// source form and the wire form coincide.
func wireOperator(op CompareOp) wire.Operator {
	return wire.Operator(op.String())
}
