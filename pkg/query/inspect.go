package query

// ContainsWrite reports the first write or iteration operation found in
// the query body, by its source keyword. Read-only evaluation refuses to
// run such queries before any network traffic happens.
func ContainsWrite(q *Query) (string, bool) {
	for _, stmt := range q.Statements {
		if op, ok := statementWrite(stmt); ok {
			return op, true
		}
	}
	return "", false
}

func statementWrite(stmt Statement) (string, bool) {
	switch s := stmt.(type) {
	case DropStatement:
		return "DROP", true
	case ForEachStatement:
		return "FOR_EACH", true
	case Assignment:
		return expressionWrite(s.Value)
	case ExprStatement:
		return expressionWrite(s.Expr)
	}
	return "", false
}

func expressionWrite(expr Expression) (string, bool) {
	switch e := expr.(type) {
	case AddNodeExpr:
		return "ADD_NODE", true
	case AddEdgeExpr:
		return "ADD_EDGE", true
	case AddVectorExpr:
		return "ADD_VECTOR", true
	case AndExpr:
		return expressionsWrite(e.Exprs)
	case OrExpr:
		return expressionsWrite(e.Exprs)
	case ArrayLit:
		return expressionsWrite(e.Items)
	}
	return "", false
}

func expressionsWrite(exprs []Expression) (string, bool) {
	for _, sub := range exprs {
		if op, ok := expressionWrite(sub); ok {
			return op, true
		}
	}
	return "", false
}

// UsedIdentifiers lists the distinct variable names referenced by the
// RETURN clause, in first-reference order. Nested return arrays are
// flattened.
func UsedIdentifiers(rets []Return) []string {
	var names []string
	seen := make(map[string]bool)

	var walk func(r Return)
	walk = func(r Return) {
		switch v := r.(type) {
		case ReturnExpr:
			if id, ok := v.Expr.(IdentifierExpr); ok && !seen[id.Name] {
				seen[id.Name] = true
				names = append(names, id.Name)
			}
		case ReturnArray:
			for _, item := range v.Items {
				walk(item)
			}
		}
	}
	for _, r := range rets {
		walk(r)
	}
	return names
}
