package wire

// Operator is a comparison operator in a property condition.
type Operator string

const (
	OpEQ  Operator = "=="
	OpNEQ Operator = "!="
	OpGT  Operator = ">"
	OpLT  Operator = "<"
	OpGTE Operator = ">="
	OpLTE Operator = "<="
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// EdgeKind distinguishes node-typed from vector-typed edge targets.
type EdgeKind string

const (
	EdgeKindNode EdgeKind = "node"
	EdgeKindVec  EdgeKind = "vec"
)

// Condition is one property comparison inside a DNF clause.
type Condition struct {
	Key      string   `json:"key"`
	Value    any      `json:"value"`
	Operator Operator `json:"operator,omitempty"`
}

// DNF is an "OR of ANDs" property filter: the outer list is a disjunction
// of clauses, each clause a conjunction of conditions.
type DNF [][]Condition

// FilterSpec is the filter payload carried by FilterItems and by the
// nested filter slot of the edge-walk tools. A spec holds either a DNF
// property filter or a chain of nested sub-traversal tools; the compiler
// never produces both in one spec.
type FilterSpec struct {
	Properties    DNF      `json:"properties"`
	SubTraversals ToolList `json:"filter_traversals"`
}

// PropertyFilter builds a spec holding only a DNF property filter.
func PropertyFilter(dnf DNF) FilterSpec {
	return FilterSpec{Properties: dnf}
}

// TraversalFilter builds a spec holding only nested sub-traversal tools.
func TraversalFilter(tools ...Tool) FilterSpec {
	return FilterSpec{SubTraversals: ToolList(tools)}
}
