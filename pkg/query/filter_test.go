package query

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-explorer/pkg/wire"
)

// comparison builds the property fast-path shape _::{key}::Op(operand).
func comparison(key string, op CompareOp, operand Expression) Expression {
	return TraversalExpr{Traversal: &Traversal{
		Start: AnonymousStart{},
		Steps: []Step{
			Object{Fields: []Field{{Key: key}}},
			Compare{Op: op, Operand: operand},
		},
	}}
}

func subTraversal(steps ...Step) Expression {
	return TraversalExpr{Traversal: &Traversal{Start: AnonymousStart{}, Steps: steps}}
}

func TestCompileFilter_PropertyFastPath(t *testing.T) {
	got, err := compileFilter(comparison("age", OpGT, IntLit{Value: 30}), nil)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	want := wire.DNF{{{Key: "age", Value: int64(30), Operator: wire.OpGT}}}
	if !reflect.DeepEqual(got.Properties, want) {
		t.Fatalf("properties = %#v, want %#v", got.Properties, want)
	}
	if got.SubTraversals != nil {
		t.Fatalf("unexpected sub-traversals: %#v", got.SubTraversals)
	}
}

func TestCompileFilter_AndMergesIntoOneClause(t *testing.T) {
	expr := AndExpr{Exprs: []Expression{
		comparison("city", OpEQ, StringLit{Value: "Oslo"}),
		comparison("age", OpGTE, IntLit{Value: 18}),
	}}
	got, err := compileFilter(expr, nil)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	want := wire.DNF{{
		{Key: "city", Value: "Oslo", Operator: wire.OpEQ},
		{Key: "age", Value: int64(18), Operator: wire.OpGTE},
	}}
	if !reflect.DeepEqual(got.Properties, want) {
		t.Fatalf("properties = %#v, want %#v", got.Properties, want)
	}
}

func TestCompileFilter_OrConcatenatesClauses(t *testing.T) {
	expr := OrExpr{Exprs: []Expression{
		comparison("city", OpEQ, StringLit{Value: "Oslo"}),
		comparison("city", OpEQ, StringLit{Value: "Bergen"}),
	}}
	got, err := compileFilter(expr, nil)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	want := wire.DNF{
		{{Key: "city", Value: "Oslo", Operator: wire.OpEQ}},
		{{Key: "city", Value: "Bergen", Operator: wire.OpEQ}},
	}
	if !reflect.DeepEqual(got.Properties, want) {
		t.Fatalf("properties = %#v, want %#v", got.Properties, want)
	}
}

func TestCompileFilter_AndDistributesOverOr(t *testing.T) {
	expr := AndExpr{Exprs: []Expression{
		OrExpr{Exprs: []Expression{
			comparison("a", OpEQ, IntLit{Value: 1}),
			comparison("b", OpEQ, IntLit{Value: 2}),
		}},
		OrExpr{Exprs: []Expression{
			comparison("c", OpEQ, IntLit{Value: 3}),
			comparison("d", OpEQ, IntLit{Value: 4}),
		}},
	}}
	got, err := compileFilter(expr, nil)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}

	cond := func(k string, v int64) wire.Condition {
		return wire.Condition{Key: k, Value: v, Operator: wire.OpEQ}
	}
	want := wire.DNF{
		{cond("a", 1), cond("c", 3)},
		{cond("a", 1), cond("d", 4)},
		{cond("b", 2), cond("c", 3)},
		{cond("b", 2), cond("d", 4)},
	}
	if !reflect.DeepEqual(got.Properties, want) {
		t.Fatalf("properties = %#v, want %#v", got.Properties, want)
	}
}

func TestCompileFilter_SubTraversalChainNests(t *testing.T) {
	got, err := compileFilter(subTraversal(Out{Label: "Follows"}, Out{Label: "Knows"}), nil)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	if got.Properties != nil {
		t.Fatalf("unexpected properties: %#v", got.Properties)
	}
	if len(got.SubTraversals) != 1 {
		t.Fatalf("sub-traversals = %#v, want one head tool", got.SubTraversals)
	}

	head, ok := got.SubTraversals[0].(wire.OutStep)
	if !ok || head.EdgeLabel != "Follows" {
		t.Fatalf("head = %#v, want OutStep Follows", got.SubTraversals[0])
	}
	if head.Filter == nil || len(head.Filter.SubTraversals) != 1 {
		t.Fatalf("head filter = %#v, want one nested tool", head.Filter)
	}
	inner, ok := head.Filter.SubTraversals[0].(wire.OutStep)
	if !ok || inner.EdgeLabel != "Knows" {
		t.Fatalf("inner = %#v, want OutStep Knows", head.Filter.SubTraversals[0])
	}
	if inner.Filter != nil {
		t.Fatalf("inner filter = %#v, want nil at chain end", inner.Filter)
	}
}

func TestCompileFilter_EdgeStepsInChain(t *testing.T) {
	got, err := compileFilter(subTraversal(OutE{Label: "Wrote"}, InE{Label: "Cites"}), nil)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	head, ok := got.SubTraversals[0].(wire.OutEStep)
	if !ok || head.EdgeLabel != "Wrote" {
		t.Fatalf("head = %#v, want OutEStep Wrote", got.SubTraversals[0])
	}
	if _, ok := head.Filter.SubTraversals[0].(wire.InEStep); !ok {
		t.Fatalf("inner = %#v, want InEStep", head.Filter.SubTraversals[0])
	}
}

func TestCompileFilter_MixedKindsRejected(t *testing.T) {
	for name, expr := range map[string]Expression{
		"under AND": AndExpr{Exprs: []Expression{
			comparison("age", OpGT, IntLit{Value: 30}),
			subTraversal(Out{Label: "Follows"}),
		}},
		"under OR": OrExpr{Exprs: []Expression{
			subTraversal(Out{Label: "Follows"}),
			comparison("age", OpGT, IntLit{Value: 30}),
		}},
		"two sub-traversals": AndExpr{Exprs: []Expression{
			subTraversal(Out{Label: "Follows"}),
			subTraversal(In{Label: "Knows"}),
		}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := compileFilter(expr, nil)
			if err == nil || !strings.Contains(err.Error(), "cannot be combined") {
				t.Fatalf("err = %v, want combination rejection", err)
			}
		})
	}
}

func TestCompileFilter_WhereShapeErrors(t *testing.T) {
	cases := map[string]struct {
		expr Expression
		want string
	}{
		"non-anonymous start": {
			expr: TraversalExpr{Traversal: &Traversal{Start: NodeStart{Type: "User"}, Steps: []Step{Out{Label: "Follows"}}}},
			want: "anonymous node",
		},
		"no steps": {
			expr: TraversalExpr{Traversal: &Traversal{Start: AnonymousStart{}}},
			want: "too short",
		},
		"non-walk step in chain": {
			expr: subTraversal(Count{}),
			want: "unsupported step in filter chain",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := compileFilter(tc.expr, nil)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestCompileFilter_ParameterValues(t *testing.T) {
	params := map[string]any{"minAge": float64(21), "pi": 3.14}

	got, err := compileFilter(comparison("age", OpGTE, IdentifierExpr{Name: "minAge"}), params)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	if v := got.Properties[0][0].Value; v != int64(21) {
		t.Fatalf("integral parameter = %#v (%T), want int64(21)", v, v)
	}

	got, err = compileFilter(comparison("score", OpLT, IdentifierExpr{Name: "pi"}), params)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	if v := got.Properties[0][0].Value; v != 3.14 {
		t.Fatalf("fractional parameter = %#v, want 3.14", v)
	}

	got, err = compileFilter(comparison("status", OpEQ, IdentifierExpr{Name: "active"}), params)
	if err != nil {
		t.Fatalf("compileFilter: %v", err)
	}
	if v := got.Properties[0][0].Value; v != "active" {
		t.Fatalf("missing parameter = %#v, want its own name", v)
	}
}

func TestCompileFilter_UnsupportedOperandRejected(t *testing.T) {
	_, err := compileFilter(comparison("tags", OpEQ, ArrayLit{}), nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported value expression") {
		t.Fatalf("err = %v, want unsupported value rejection", err)
	}
}

func TestCompileFilter_ClauseCardinality(t *testing.T) {
	orOf := func(prefix string, n int) Expression {
		exprs := make([]Expression, n)
		for i := range exprs {
			exprs[i] = comparison(fmt.Sprintf("%s%d", prefix, i), OpEQ, IntLit{Value: int64(i)})
		}
		return OrExpr{Exprs: exprs}
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("AND of ORs multiplies clause counts", prop.ForAll(
		func(m, n int) bool {
			f, err := compileFilter(AndExpr{Exprs: []Expression{orOf("l", m), orOf("r", n)}}, nil)
			if err != nil {
				return false
			}
			if len(f.Properties) != m*n {
				return false
			}
			for _, clause := range f.Properties {
				if len(clause) != 2 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.IntRange(1, 6),
	))

	properties.Property("OR of comparisons keeps one condition per clause", prop.ForAll(
		func(n int) bool {
			f, err := compileFilter(orOf("p", n), nil)
			if err != nil {
				return false
			}
			if len(f.Properties) != n {
				return false
			}
			for _, clause := range f.Properties {
				if len(clause) != 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12),
	))

	properties.TestingRun(t)
}
