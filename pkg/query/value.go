package query

import (
	"encoding/json"
	"fmt"
	"math"
)

// maxExactInt bounds the range in which a float64 still represents every
// integer exactly.
const maxExactInt = 1 << 53

// extractValue resolves a literal or parameter-bound identifier to a
// concrete scalar. Identifiers consult the parameter map; an identifier
// absent from the map reads as a string of its own name, so bare words
// in comparisons act as string literals.
func extractValue(expr Expression, params map[string]any) (any, error) {
	switch e := expr.(type) {
	case StringLit:
		return e.Value, nil
	case IntLit:
		return e.Value, nil
	case FloatLit:
		return e.Value, nil
	case BoolLit:
		return e.Value, nil
	case IdentifierExpr:
		raw, ok := params[e.Name]
		if !ok {
			return e.Name, nil
		}
		return paramValue(raw), nil
	default:
		return nil, compileErrorf("unsupported value expression in comparison: %T", expr)
	}
}

// paramValue narrows a JSON-decoded parameter to the scalar shape the
// wire expects: integral numbers become int64, everything non-scalar
// stringifies.
func paramValue(raw any) any {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		return v
	case float64:
		return numberValue(v)
	case float32:
		return numberValue(float64(v))
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return paramString(raw)
	}
}

// numberValue prefers int64 for integral values, mirroring how the
// gateway probes JSON numbers.
func numberValue(f float64) any {
	if f == math.Trunc(f) && f >= -maxExactInt && f <= maxExactInt {
		return int64(f)
	}
	return f
}

// paramString renders a parameter value as text: strings pass through,
// everything else JSON-encodes.
func paramString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// textValue resolves an expression that must read as text: string
// literals pass through; identifiers consult the parameter map, falling
// back to their own name.
func textValue(expr Expression, params map[string]any) (string, error) {
	switch e := expr.(type) {
	case StringLit:
		return e.Value, nil
	case IdentifierExpr:
		if v, ok := params[e.Name]; ok {
			return paramString(v), nil
		}
		return e.Name, nil
	default:
		return "", compileErrorf("expected text, got %T", expr)
	}
}

// countOrDefault reads an optional result-count expression; anything but
// an integer literal yields the default.
func countOrDefault(expr Expression, def int) int {
	if lit, ok := expr.(IntLit); ok {
		return int(lit.Value)
	}
	return def
}
