package wire

import "encoding/json"

// FinalAction is the terminal reducer that drains a session after the
// tool sequence has run. Exactly one applies per compiled traversal.
type FinalAction interface {
	isFinalAction()
}

// Collect returns the accumulated items, optionally sliced by Range.
type Collect struct {
	Range *Range
}

// Count reduces the accumulated items to their count. On the wire it is
// an aggregate call with an empty property list.
type Count struct{}

// Aggregate reduces the accumulated items by the given properties.
type Aggregate struct {
	Properties []string
}

// GroupBy groups the accumulated items by the given properties.
type GroupBy struct {
	Properties []string
}

func (Collect) isFinalAction()   {}
func (Count) isFinalAction()     {}
func (Aggregate) isFinalAction() {}
func (GroupBy) isFinalAction()   {}

// Range is a collect slice. End nil means open-ended from Start.
type Range struct {
	Start int
	End   *int
}

// MarshalJSON emits {"start": s} or {"start": s, "end": e}; the end key
// is absent, not null, when the range is open.
func (r Range) MarshalJSON() ([]byte, error) {
	if r.End != nil {
		return json.Marshal(struct {
			Start int `json:"start"`
			End   int `json:"end"`
		}{r.Start, *r.End})
	}
	return json.Marshal(struct {
		Start int `json:"start"`
	}{r.Start})
}
