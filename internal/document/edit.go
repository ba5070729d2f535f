package document

import (
	"fmt"
	"sort"
	"strings"
)

// #region span
// Span is a half-open byte range [Start, End) in a text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span width.
func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Overlaps reports whether s and o touch the same characters. An empty span
// (an insertion point) overlaps a range only when it falls strictly inside it.
func (s Span) Overlaps(o Span) bool {
	switch {
	case s.Len() == 0 && o.Len() == 0:
		return s.Start == o.Start
	case s.Len() == 0:
		return o.Start < s.Start && s.Start < o.End
	case o.Len() == 0:
		return s.Start < o.Start && o.Start < s.End
	default:
		return s.Start < o.End && o.Start < s.End
	}
}

// #endregion span

// #region edit
// Edit replaces text[Start:End] with Insert. Start == End is a pure insertion.
type Edit struct {
	Start  int
	End    int
	Insert string
}

// Span returns the range the edit consumes in the original text.
func (e Edit) Span() Span { return Span{Start: e.Start, End: e.End} }

// Delta is the length change the edit causes.
func (e Edit) Delta() int { return len(e.Insert) - (e.End - e.Start) }

// #endregion edit

// #region apply
// Applied is the outcome of applying a batch of edits.
type Applied struct {
	Text string
	// Spans are the ranges each edit occupies in Text, in edit order.
	Spans []Span
}

// Apply applies non-overlapping edits to text. Edits may be given in any
// order; they are applied as one batch against the original offsets.
func Apply(text string, edits []Edit) (Applied, error) {
	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return edits[order[a]].Start < edits[order[b]].Start
	})

	var b strings.Builder
	b.Grow(len(text))
	spans := make([]Span, len(edits))
	cursor := 0
	for _, idx := range order {
		e := edits[idx]
		if e.Start < cursor || e.Start > e.End || e.End > len(text) {
			return Applied{}, fmt.Errorf("apply edit %d-%d: out of range or overlapping", e.Start, e.End)
		}
		b.WriteString(text[cursor:e.Start])
		start := b.Len()
		b.WriteString(e.Insert)
		spans[idx] = Span{Start: start, End: b.Len()}
		cursor = e.End
	}
	b.WriteString(text[cursor:])
	return Applied{Text: b.String(), Spans: spans}, nil
}

// Shift maps a span in the original text to its position after edits were
// applied. The span must not overlap any edit.
func Shift(s Span, edits []Edit) Span {
	out := s
	for _, e := range edits {
		d := e.Delta()
		if e.End <= s.Start {
			out.Start += d
		}
		// an insertion exactly at s.End lands after the span
		if e.End < s.End || (e.End == s.End && e.Start < e.End) {
			out.End += d
		}
	}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// #endregion apply
