package query

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestResolve_NonIdentifierUnchanged(t *testing.T) {
	in := &Traversal{Start: NodeStart{Type: "User"}, Steps: []Step{Count{}}}
	got, err := Resolve(in, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != in {
		t.Fatalf("expected the input traversal back, got %#v", got)
	}
}

func TestResolve_IdentifierChainSplices(t *testing.T) {
	vars := map[string]*Traversal{
		"users":   {Start: NodeStart{Type: "User"}, Steps: []Step{Out{Label: "Follows"}}},
		"friends": {Start: IdentifierStart{Name: "users"}, Steps: []Step{Out{Label: "Knows"}}},
	}

	got, err := Resolve(&Traversal{Start: IdentifierStart{Name: "friends"}, Steps: []Step{Count{}}}, vars)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := got.Start.(NodeStart); !ok {
		t.Fatalf("start = %T, want NodeStart", got.Start)
	}
	want := []Step{Out{Label: "Follows"}, Out{Label: "Knows"}, Count{}}
	if !reflect.DeepEqual(got.Steps, want) {
		t.Fatalf("steps = %#v, want %#v", got.Steps, want)
	}
}

func TestResolve_SplicingLeavesVariablesUntouched(t *testing.T) {
	base := &Traversal{Start: NodeStart{Type: "User"}, Steps: []Step{Out{Label: "Follows"}}}
	vars := map[string]*Traversal{"users": base}

	if _, err := Resolve(&Traversal{Start: IdentifierStart{Name: "users"}, Steps: []Step{Count{}}}, vars); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(base.Steps) != 1 {
		t.Fatalf("variable traversal mutated: %#v", base.Steps)
	}
}

func TestResolve_MissingVariable(t *testing.T) {
	_, err := Resolve(&Traversal{Start: IdentifierStart{Name: "ghost"}}, map[string]*Traversal{})
	if !errors.Is(err, ErrVariableNotFound) {
		t.Fatalf("err = %v, want ErrVariableNotFound", err)
	}
	var rerr *ResolutionError
	if !errors.As(err, &rerr) || rerr.Variable != "ghost" {
		t.Fatalf("err = %#v, want ResolutionError for ghost", err)
	}
}

func TestResolve_Cycle(t *testing.T) {
	vars := map[string]*Traversal{
		"a": {Start: IdentifierStart{Name: "b"}},
		"b": {Start: IdentifierStart{Name: "a"}},
	}
	_, err := Resolve(&Traversal{Start: IdentifierStart{Name: "a"}}, vars)
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("err = %v, want ErrCircularDependency", err)
	}
}

func TestResolve_DepthBound(t *testing.T) {
	vars := map[string]*Traversal{
		"v0": {Start: NodeStart{Type: "User"}},
	}
	for i := 1; i <= MaxResolveDepth; i++ {
		vars[fmt.Sprintf("v%d", i)] = &Traversal{Start: IdentifierStart{Name: fmt.Sprintf("v%d", i-1)}}
	}

	deepest := fmt.Sprintf("v%d", MaxResolveDepth-1)
	if _, err := Resolve(&Traversal{Start: IdentifierStart{Name: deepest}}, vars); err != nil {
		t.Fatalf("chain of %d references should resolve: %v", MaxResolveDepth, err)
	}

	over := fmt.Sprintf("v%d", MaxResolveDepth)
	_, err := Resolve(&Traversal{Start: IdentifierStart{Name: over}}, vars)
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("err = %v, want ErrCircularDependency past the depth bound", err)
	}
}
