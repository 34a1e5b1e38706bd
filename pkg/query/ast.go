// Package query compiles parsed traversal queries into the ordered tool
// sequences the remote session pipeline executes. The parser front end
// produces the AST defined here; compilation resolves variable chains,
// turns WHERE clauses into wire filters, and maps traversal steps onto
// pipeline tools.
package query

// Query is one parsed query: optional name, declared parameters, body
// statements, and returned expressions. An unnamed ad-hoc query arrives
// with an empty Name.
type Query struct {
	Name       string
	Parameters []Parameter
	Statements []Statement
	Returns    []Return
}

// Parameter is a declared query parameter. Type is informational; values
// arrive through the caller-supplied parameter map.
type Parameter struct {
	Name string
	Type string
}

// Statement is one body statement.
type Statement interface {
	isStatement()
}

// Assignment binds a variable to an expression.
type Assignment struct {
	Variable string
	Value    Expression
}

// ExprStatement is a bare expression evaluated for its result.
type ExprStatement struct {
	Expr Expression
}

// DropStatement deletes matched items. Explorer evaluation rejects it.
type DropStatement struct {
	Target Expression
}

// ForEachStatement iterates statements over a collection. Explorer
// evaluation rejects it.
type ForEachStatement struct {
	Variable string
	Source   Expression
	Body     []Statement
}

func (Assignment) isStatement()       {}
func (ExprStatement) isStatement()    {}
func (DropStatement) isStatement()    {}
func (ForEachStatement) isStatement() {}

// Return is one returned value: a single expression or an array of
// returns.
type Return interface {
	isReturn()
}

// ReturnExpr returns one expression, typically an identifier.
type ReturnExpr struct {
	Expr Expression
}

// ReturnArray returns several values as one array.
type ReturnArray struct {
	Items []Return
}

func (ReturnExpr) isReturn()  {}
func (ReturnArray) isReturn() {}

// Expression is one expression node.
type Expression interface {
	isExpression()
}

// AndExpr is a conjunction of sub-expressions.
type AndExpr struct {
	Exprs []Expression
}

// OrExpr is a disjunction of sub-expressions.
type OrExpr struct {
	Exprs []Expression
}

// TraversalExpr wraps a traversal used as an expression.
type TraversalExpr struct {
	Traversal *Traversal
}

// IdentifierExpr references a variable or parameter by name.
type IdentifierExpr struct {
	Name string
}

// StringLit is a string literal.
type StringLit struct {
	Value string
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

// ArrayLit is an array literal.
type ArrayLit struct {
	Items []Expression
}

// AddNodeExpr creates a node. Explorer evaluation rejects it.
type AddNodeExpr struct {
	Type   string
	Fields []Field
}

// AddEdgeExpr creates an edge. Explorer evaluation rejects it.
type AddEdgeExpr struct {
	Type   string
	Fields []Field
}

// AddVectorExpr inserts a vector. Explorer evaluation rejects it.
type AddVectorExpr struct {
	Type   string
	Fields []Field
}

// SearchVectorExpr is a vector search used as a whole-variable value.
type SearchVectorExpr struct {
	Search *VectorSearch
}

// SearchKeywordExpr is a keyword search used as a whole-variable value.
type SearchKeywordExpr struct {
	Search *KeywordSearch
}

func (AndExpr) isExpression()           {}
func (OrExpr) isExpression()            {}
func (TraversalExpr) isExpression()     {}
func (IdentifierExpr) isExpression()    {}
func (StringLit) isExpression()         {}
func (IntLit) isExpression()            {}
func (FloatLit) isExpression()          {}
func (BoolLit) isExpression()           {}
func (ArrayLit) isExpression()          {}
func (AddNodeExpr) isExpression()       {}
func (AddEdgeExpr) isExpression()       {}
func (AddVectorExpr) isExpression()     {}
func (SearchVectorExpr) isExpression()  {}
func (SearchKeywordExpr) isExpression() {}

// Traversal is one traversal: a start node and the ordered steps applied
// to it. Immutable once built; resolution clones before splicing.
type Traversal struct {
	Start StartNode
	Steps []Step
}

// StartNode is where a traversal begins.
type StartNode interface {
	isStartNode()
}

// NodeStart scans nodes of a type, optionally narrowed by ids.
type NodeStart struct {
	Type string
	IDs  []ID
}

// EdgeStart scans edges of a type, optionally narrowed by ids.
type EdgeStart struct {
	Type string
	IDs  []ID
}

// VectorStart scans vectors of a type, optionally narrowed by ids.
type VectorStart struct {
	Type string
	IDs  []ID
}

// SearchVectorStart begins from a vector search instead of a scan.
type SearchVectorStart struct {
	Search *VectorSearch
}

// IdentifierStart continues from another variable's traversal. Resolution
// splices it away before compilation.
type IdentifierStart struct {
	Name string
}

// AnonymousStart is the `_` start used inside WHERE sub-traversals.
type AnonymousStart struct{}

func (NodeStart) isStartNode()         {}
func (EdgeStart) isStartNode()         {}
func (VectorStart) isStartNode()       {}
func (SearchVectorStart) isStartNode() {}
func (IdentifierStart) isStartNode()   {}
func (AnonymousStart) isStartNode()    {}

// ID narrows a typed scan to particular items.
type ID interface {
	isID()
}

// LiteralID is a literal identifier string. Surrounding quotes, if the
// parser kept them, are trimmed during compilation.
type LiteralID struct {
	Value string
}

// ParamID resolves an identifier from the parameter map; a missing
// parameter is a compile error.
type ParamID struct {
	Name string
}

// IndexedID is a secondary-index lookup `{key: value}` that compiles into
// a property filter rather than an identifier filter.
type IndexedID struct {
	Key   string
	Value Expression
}

func (LiteralID) isID() {}
func (ParamID) isID()   {}
func (IndexedID) isID() {}

// Step is one traversal step.
type Step interface {
	isStep()
}

// Out walks outgoing edges of the label to their targets.
type Out struct {
	Label string
}

// In walks incoming edges of the label to their sources.
type In struct {
	Label string
}

// OutE walks to the outgoing edges themselves.
type OutE struct {
	Label string
}

// InE walks to the incoming edges themselves.
type InE struct {
	Label string
}

// FromN steps from edges back to their source nodes. It fuses into the
// nearest preceding edge step at compile time.
type FromN struct{}

// ToN steps from edges forward to their target nodes. It fuses into the
// nearest preceding edge step at compile time.
type ToN struct{}

// Where keeps items satisfying the condition.
type Where struct {
	Cond Expression
}

// OrderBy sorts by a property, named directly or through a one-property
// anonymous traversal.
type OrderBy struct {
	Target Expression
	Desc   bool
}

// Range slices the result set.
type Range struct {
	Start Expression
	End   Expression
}

// First keeps only the first item.
type First struct{}

// Count reduces to the number of items.
type Count struct{}

// Aggregate reduces grouped by the properties.
type Aggregate struct {
	Properties []string
}

// GroupBy groups by the properties.
type GroupBy struct {
	Properties []string
}

// Object is a property object literal; as a step it filters by equality
// on every field.
type Object struct {
	Fields []Field
}

// Compare applies a comparison to the current value. Valid only inside
// WHERE sub-traversals.
type Compare struct {
	Op      CompareOp
	Operand Expression
}

// SearchVectorStep runs a vector search mid-traversal.
type SearchVectorStep struct {
	Search *VectorSearch
}

func (Out) isStep()              {}
func (In) isStep()               {}
func (OutE) isStep()             {}
func (InE) isStep()              {}
func (FromN) isStep()            {}
func (ToN) isStep()              {}
func (Where) isStep()            {}
func (OrderBy) isStep()          {}
func (Range) isStep()            {}
func (First) isStep()            {}
func (Count) isStep()            {}
func (Aggregate) isStep()        {}
func (GroupBy) isStep()          {}
func (Object) isStep()           {}
func (Compare) isStep()          {}
func (SearchVectorStep) isStep() {}

// Field is one key/value pair in an object literal.
type Field struct {
	Key   string
	Value Expression
}

// CompareOp is a comparison operator.
type CompareOp int

const (
	OpEQ CompareOp = iota
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
)

// String returns the operator's source form.
func (op CompareOp) String() string {
	switch op {
	case OpEQ:
		return "=="
	case OpNEQ:
		return "!="
	case OpGT:
		return ">"
	case OpGTE:
		return ">="
	case OpLT:
		return "<"
	case OpLTE:
		return "<="
	default:
		return "unknown"
	}
}

// VectorSearch describes a vector search: the vector label, an
// optional result count (default 10), and the query data.
type VectorSearch struct {
	Type string
	K    Expression
	Data VectorData
}

// VectorData is the query side of a vector search.
type VectorData interface {
	isVectorData()
}

// VectorLiteral searches with a raw vector.
type VectorLiteral struct {
	Vector []float64
}

// EmbedText searches with text the server embeds.
type EmbedText struct {
	Text Expression
}

func (VectorLiteral) isVectorData() {}
func (EmbedText) isVectorData()     {}

// KeywordSearch describes a keyword (BM25) search.
type KeywordSearch struct {
	Type  string
	Query Expression
	K     Expression
}
