// Package wire defines the session-pipeline tool protocol spoken by the
// remote graph gateway. The types here are a client-side mirror of the
// server's tool schema and must be kept in lockstep with it: tool names,
// argument fields, and null-vs-present semantics are all part of the
// contract.
//
// A Tool is one primitive instruction applied to a remote session's
// pipeline state. Tools travel in a tagged envelope:
//
//	{"tool_name": "out_step", "args": {"edge_label": "Follows", ...}}
//
// Optional arguments serialize as explicit null, never as absent fields.
package wire

import "encoding/json"

// Tool is one primitive remote-pipeline instruction.
type Tool interface {
	// ToolName returns the wire identifier used in the tagged envelope.
	ToolName() string

	isTool()
}

// OutStep walks outgoing edges to their target items.
type OutStep struct {
	EdgeLabel string      `json:"edge_label"`
	EdgeKind  EdgeKind    `json:"edge_type"`
	Filter    *FilterSpec `json:"filter"`
}

// OutEStep walks to the outgoing edges themselves.
type OutEStep struct {
	EdgeLabel string      `json:"edge_label"`
	Filter    *FilterSpec `json:"filter"`
}

// InStep walks incoming edges to their source items.
type InStep struct {
	EdgeLabel string      `json:"edge_label"`
	EdgeKind  EdgeKind    `json:"edge_type"`
	Filter    *FilterSpec `json:"filter"`
}

// InEStep walks to the incoming edges themselves.
type InEStep struct {
	EdgeLabel string      `json:"edge_label"`
	Filter    *FilterSpec `json:"filter"`
}

// NodeScan loads every node of a type into the pipeline.
type NodeScan struct {
	Type string `json:"node_type"`
}

// VectorScan loads every vector of a type into the pipeline.
//
// The compiler never emits this tool (vector scans go through NodeScan,
// matching the gateway's behavior); it stays here for schema parity.
type VectorScan struct {
	Type string `json:"vector_type"`
}

// EdgeScan loads every edge of a type into the pipeline.
type EdgeScan struct {
	Type string `json:"edge_type"`
}

// FilterItems keeps only pipeline items matching the filter.
type FilterItems struct {
	Filter FilterSpec `json:"filter"`
}

// OrderBy sorts the pipeline by a single property. The wire field is
// named "properties" even though it carries one property name.
type OrderBy struct {
	Property string `json:"properties"`
	Order    Order  `json:"order"`
}

// SearchKeyword runs a keyword (BM25) search.
type SearchKeyword struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
	Label string `json:"label"`
}

// SearchVecText runs a vector search from text embedded server-side.
type SearchVecText struct {
	Query string `json:"query"`
	Label string `json:"label"`
	K     int    `json:"k"`
}

// SearchVec runs a vector search from a raw query vector.
type SearchVec struct {
	Vector   []float64 `json:"vector"`
	K        int       `json:"k"`
	MinScore *float64  `json:"min_score"`
	Cutoff   *int      `json:"cutoff"`
}

// SearchV is the labeled raw-vector search variant. Unlike the other
// search tools it dispatches through the generic tool-call endpoint.
type SearchV struct {
	Label  string    `json:"label"`
	Vector []float64 `json:"vector"`
	K      int       `json:"k"`
}

func (OutStep) ToolName() string       { return "out_step" }
func (OutEStep) ToolName() string      { return "out_e_step" }
func (InStep) ToolName() string        { return "in_step" }
func (InEStep) ToolName() string       { return "in_e_step" }
func (NodeScan) ToolName() string      { return "n_from_type" }
func (VectorScan) ToolName() string    { return "v_from_type" }
func (EdgeScan) ToolName() string      { return "e_from_type" }
func (FilterItems) ToolName() string   { return "filter_items" }
func (OrderBy) ToolName() string       { return "order_by" }
func (SearchKeyword) ToolName() string { return "search_keyword" }
func (SearchVecText) ToolName() string { return "search_vec_text" }
func (SearchVec) ToolName() string     { return "search_vec" }
func (SearchV) ToolName() string       { return "search_v" }

func (OutStep) isTool()       {}
func (OutEStep) isTool()      {}
func (InStep) isTool()        {}
func (InEStep) isTool()       {}
func (NodeScan) isTool()      {}
func (VectorScan) isTool()    {}
func (EdgeScan) isTool()      {}
func (FilterItems) isTool()   {}
func (OrderBy) isTool()       {}
func (SearchKeyword) isTool() {}
func (SearchVecText) isTool() {}
func (SearchVec) isTool()     {}
func (SearchV) isTool()       {}

// Tagged is the transmission envelope for one tool call.
type Tagged struct {
	ToolName string `json:"tool_name"`
	Args     Tool   `json:"args"`
}

// Tag wraps t in its wire envelope.
func Tag(t Tool) Tagged {
	return Tagged{ToolName: t.ToolName(), Args: t}
}

// ToolList is a tool sequence that marshals each element in its tagged
// envelope, as required for nested filter traversals.
type ToolList []Tool

func (l ToolList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	tagged := make([]Tagged, len(l))
	for i, t := range l {
		tagged[i] = Tag(t)
	}
	return json.Marshal(tagged)
}

// IsSearch reports whether t dispatches to a dedicated search endpoint
// instead of the generic tool-call endpoint.
func IsSearch(t Tool) bool {
	switch t.(type) {
	case SearchKeyword, SearchVec, SearchVecText:
		return true
	}
	return false
}
