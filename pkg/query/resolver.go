package query

// MaxResolveDepth caps how many variable references a traversal may
// chain through before resolution gives up. Cycles never terminate, so
// the bound doubles as cycle detection.
const MaxResolveDepth = 20

// Resolve expands a traversal whose start references a named variable by
// splicing the variable's resolved traversal in front of its own steps.
// Chains resolve transitively up to MaxResolveDepth. Traversals that do
// not start with an identifier are returned unchanged.
func Resolve(t *Traversal, vars map[string]*Traversal) (*Traversal, error) {
	return resolveDepth(t, vars, 0)
}

func resolveDepth(t *Traversal, vars map[string]*Traversal, depth int) (*Traversal, error) {
	start, ok := t.Start.(IdentifierStart)
	if !ok {
		return t, nil
	}
	if depth >= MaxResolveDepth {
		return nil, &ResolutionError{Variable: start.Name, Err: ErrCircularDependency}
	}
	base, ok := vars[start.Name]
	if !ok {
		return nil, &ResolutionError{Variable: start.Name, Err: ErrVariableNotFound}
	}
	resolved, err := resolveDepth(base, vars, depth+1)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(resolved.Steps)+len(t.Steps))
	steps = append(steps, resolved.Steps...)
	steps = append(steps, t.Steps...)
	return &Traversal{Start: resolved.Start, Steps: steps}, nil
}
