package query

import (
	"fmt"
	"regexp"
	"strings"
)

// inlineVectorRe matches a SearchV call whose query vector is written
// inline, capturing the label and the vector literal.
var inlineVectorRe = regexp.MustCompile(`SearchV\s*<\s*(\w+)\s*>\s*\(\s*(\[[^\]]*\])`)

// LiftInlineVectors hoists inline vector literals out of SearchV calls
// into synthetic assignments injected after the query header, leaving a
// variable reference at the call site. The grammar accepts a vector
// argument only as a variable reference, so inline literals must be
// rewritten before parsing.
func LiftInlineVectors(src string) string {
	if !strings.Contains(src, "SearchV") {
		return src
	}

	var assignments []string
	rewritten := inlineVectorRe.ReplaceAllStringFunc(src, func(m string) string {
		sub := inlineVectorRe.FindStringSubmatch(m)
		name := fmt.Sprintf("tmpVec_%d", len(assignments))
		assignments = append(assignments, fmt.Sprintf("%s = %s", name, sub[2]))
		return fmt.Sprintf("SearchV<%s>(%s", sub[1], name)
	})
	if len(assignments) == 0 {
		return src
	}

	// Inject right after the query header when there is one, otherwise
	// at the top.
	lines := strings.Split(rewritten, "\n")
	insert := 0
	for i, line := range lines {
		if strings.Contains(line, "=>") {
			insert = i + 1
			break
		}
	}
	out := make([]string, 0, len(lines)+len(assignments))
	out = append(out, lines[:insert]...)
	out = append(out, assignments...)
	out = append(out, lines[insert:]...)
	return strings.Join(out, "\n")
}
