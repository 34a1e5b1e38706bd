package query

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-explorer/pkg/wire"
)

// Compiled is the executable form of one resolved traversal.
type Compiled struct {
	// Tools is the ordered remote tool sequence.
	Tools wire.ToolList

	// RawIDs narrows the scanned items to these identifiers. The
	// gateway has no native ID filter, so the executor applies this
	// client-side.
	RawIDs []string

	// Final drains the session once the tools have run.
	Final wire.FinalAction
}

// Compile lowers a resolved traversal to its remote tool sequence. The
// default final action collects everything; range, first, count,
// aggregate and group steps replace it, last write winning. Traversals
// still starting with a variable reference are rejected; resolve first.
func Compile(t *Traversal, params map[string]any) (*Compiled, error) {
	c := &Compiled{Final: wire.Collect{}}

	switch s := t.Start.(type) {
	case NodeStart:
		c.Tools = append(c.Tools, wire.NodeScan{Type: s.Type})
		if err := c.applyIDs(s.IDs, params); err != nil {
			return nil, err
		}
	case EdgeStart:
		c.Tools = append(c.Tools, wire.EdgeScan{Type: s.Type})
		if err := c.applyIDs(s.IDs, params); err != nil {
			return nil, err
		}
	case VectorStart:
		// Vectors surface through the node pipeline on the gateway, so
		// a vector scan compiles to a node scan of the same type.
		c.Tools = append(c.Tools, wire.NodeScan{Type: s.Type})
		if err := c.applyIDs(s.IDs, params); err != nil {
			return nil, err
		}
	case SearchVectorStart:
		tool, err := CompileSearchVector(s.Search, params)
		if err != nil {
			return nil, err
		}
		c.Tools = append(c.Tools, tool)
	case IdentifierStart:
		return nil, compileErrorf("unresolved variable %q at traversal start", s.Name)
	case AnonymousStart:
		return nil, compileErrorf("anonymous start is only valid inside WHERE clauses")
	default:
		return nil, compileErrorf("unsupported traversal start: %T", t.Start)
	}

	for i, step := range t.Steps {
		switch s := step.(type) {
		case Out:
			c.Tools = append(c.Tools, wire.OutStep{EdgeLabel: s.Label, EdgeKind: wire.EdgeKindNode})
		case In:
			c.Tools = append(c.Tools, wire.InStep{EdgeLabel: s.Label, EdgeKind: wire.EdgeKindNode})
		case OutE:
			c.Tools = append(c.Tools, wire.OutEStep{EdgeLabel: s.Label})
		case InE:
			c.Tools = append(c.Tools, wire.InEStep{EdgeLabel: s.Label})
		case FromN:
			if err := c.fuseEdgeStep("FromN"); err != nil {
				return nil, err
			}
		case ToN:
			if err := c.fuseEdgeStep("ToN"); err != nil {
				return nil, err
			}
		case Where:
			f, err := compileFilter(s.Cond, params)
			if err != nil {
				return nil, err
			}
			c.Tools = append(c.Tools, wire.FilterItems{Filter: f})
		case OrderBy:
			prop, err := propertySelector(s.Target)
			if err != nil {
				return nil, err
			}
			order := wire.Asc
			if s.Desc {
				order = wire.Desc
			}
			c.Tools = append(c.Tools, wire.OrderBy{Property: prop, Order: order})
		case Range:
			c.Final = wire.Collect{Range: collectRange(s, params)}
		case First:
			one := 1
			c.Final = wire.Collect{Range: &wire.Range{Start: 0, End: &one}}
		case Count:
			c.Final = wire.Count{}
		case Aggregate:
			c.Final = wire.Aggregate{Properties: s.Properties}
		case GroupBy:
			c.Final = wire.GroupBy{Properties: s.Properties}
		case Object:
			f, err := compileObjectFilter(s, params)
			if err != nil {
				return nil, err
			}
			c.Tools = append(c.Tools, wire.FilterItems{Filter: f})
		case SearchVectorStep:
			tool, err := CompileSearchVector(s.Search, params)
			if err != nil {
				return nil, err
			}
			c.Tools = append(c.Tools, tool)
		default:
			return nil, compileErrorf("unsupported step type at index %d: %T", i, step)
		}
	}

	return c, nil
}

// applyIDs folds a start node's ID list into the compiled form: literal
// and parameter-supplied identifiers become client-side raw ID filters,
// indexed lookups become one equality filter tool.
func (c *Compiled) applyIDs(ids []ID, params map[string]any) error {
	var conds []wire.Condition
	for _, id := range ids {
		switch v := id.(type) {
		case LiteralID:
			c.RawIDs = append(c.RawIDs, strings.Trim(v.Value, `"`))
		case ParamID:
			raw, ok := params[v.Name]
			if !ok {
				return &CompileError{
					Reason: fmt.Sprintf("parameter %q not found for ID", v.Name),
					Err:    ErrMissingParameter,
				}
			}
			c.RawIDs = append(c.RawIDs, idStrings(raw)...)
		case IndexedID:
			val, err := extractValue(v.Value, params)
			if err != nil {
				return err
			}
			conds = append(conds, wire.Condition{Key: v.Key, Value: val, Operator: wire.OpEQ})
		}
	}
	if len(conds) > 0 {
		c.Tools = append(c.Tools, wire.FilterItems{Filter: wire.PropertyFilter(wire.DNF{conds})})
	}
	return nil
}

// idStrings renders a parameter value as one or more identifiers:
// strings pass through, arrays contribute each string element, anything
// else stringifies.
func idStrings(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{paramString(raw)}
	}
}

// fuseEdgeStep rewrites the nearest emitted edge-walk tool into its node
// counterpart, hopping over filter tools that apply after it. FromN and
// ToN both land on the adjacent nodes of the edges in the pipeline, so
// both fuse the same way.
func (c *Compiled) fuseEdgeStep(step string) error {
	var trailing []wire.Tool
	fused := false
	for len(c.Tools) > 0 {
		last := c.Tools[len(c.Tools)-1]
		if f, ok := last.(wire.FilterItems); ok {
			trailing = append(trailing, f)
			c.Tools = c.Tools[:len(c.Tools)-1]
			continue
		}
		switch t := last.(type) {
		case wire.OutEStep:
			c.Tools[len(c.Tools)-1] = wire.OutStep{EdgeLabel: t.EdgeLabel, EdgeKind: wire.EdgeKindNode, Filter: t.Filter}
			fused = true
		case wire.InEStep:
			c.Tools[len(c.Tools)-1] = wire.InStep{EdgeLabel: t.EdgeLabel, EdgeKind: wire.EdgeKindNode, Filter: t.Filter}
			fused = true
		}
		break
	}

	// Hopped-over filters still apply after the fused step.
	for i := len(trailing) - 1; i >= 0; i-- {
		c.Tools = append(c.Tools, trailing[i])
	}
	if !fused {
		return compileErrorf("%s must follow an edge traversal step (OutE or InE)", step)
	}
	return nil
}

// propertySelector extracts the property name from an ORDER BY target:
// either a bare identifier naming the property or an anonymous
// one-property selector like _::{name}.
func propertySelector(target Expression) (string, error) {
	switch e := target.(type) {
	case IdentifierExpr:
		return e.Name, nil
	case TraversalExpr:
		t := e.Traversal
		if _, ok := t.Start.(AnonymousStart); ok && len(t.Steps) == 1 {
			if obj, ok := t.Steps[0].(Object); ok && len(obj.Fields) == 1 {
				return obj.Fields[0].Key, nil
			}
		}
	}
	return "", compileErrorf("ORDER BY requires a property selector like _::{name}")
}

// collectRange lowers a range step. Only integer bounds are honored: a
// non-integer start falls back to 0 and a non-integer end leaves the
// range open.
func collectRange(r Range, params map[string]any) *wire.Range {
	out := &wire.Range{}
	if n, ok := intValue(r.Start, params); ok {
		out.Start = int(n)
	}
	if n, ok := intValue(r.End, params); ok {
		end := int(n)
		out.End = &end
	}
	return out
}

func intValue(expr Expression, params map[string]any) (int64, bool) {
	if expr == nil {
		return 0, false
	}
	v, err := extractValue(expr, params)
	if err != nil {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// CompileSearchVector lowers a vector search to its search tool. The
// result count defaults to 10.
func CompileSearchVector(vs *VectorSearch, params map[string]any) (wire.Tool, error) {
	k := countOrDefault(vs.K, 10)
	switch d := vs.Data.(type) {
	case VectorLiteral:
		return wire.SearchVec{Vector: d.Vector, K: k}, nil
	case EmbedText:
		q, err := textValue(d.Text, params)
		if err != nil {
			return nil, err
		}
		return wire.SearchVecText{Query: q, Label: vs.Type, K: k}, nil
	default:
		return nil, compileErrorf("unsupported vector search data: %T", vs.Data)
	}
}

// CompileKeywordSearch lowers a keyword search to its search tool. The
// result limit defaults to 10.
func CompileKeywordSearch(ks *KeywordSearch, params map[string]any) (wire.Tool, error) {
	if ks.Query == nil {
		return nil, compileErrorf("keyword search requires a query string")
	}
	q, err := textValue(ks.Query, params)
	if err != nil {
		return nil, err
	}
	return wire.SearchKeyword{Query: q, Limit: countOrDefault(ks.K, 10), Label: ks.Type}, nil
}
