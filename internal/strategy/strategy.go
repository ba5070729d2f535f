package strategy

import (
	"sort"

	"github.com/danielpatrickdp/correction-synth/internal/document"
	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #region strategy-type

// Type identifies a correction strategy.
type Type string

const (
	TypeSuggestion Type = "suggestion_extraction"
	TypePattern    Type = "pattern_replacement"
	TypeTemplate   Type = "template_insertion"
	TypeStructural Type = "structural_reorganization"
)

// #endregion

// #region result

// Result is the mutation a strategy proposes. Edits are expressed against the
// text the strategy was given; the caller applies them.
type Result struct {
	Edits       []document.Edit
	AppliedText string
	// Location names where the change lands (an insertion point, "replace", "move").
	Location string
	Reason   string
}

// #endregion

// #region interface

// Strategy is one way of resolving a finding.
//
// Apply returns (nil, nil) when the strategy matched but would not change the
// text, and a non-nil error when the correction cannot be resolved (for
// example a template placeholder with no value).
type Strategy interface {
	Type() Type
	Priority() int
	CanApply(f finding.Finding, res taxonomy.Resolution, text string) bool
	Apply(f finding.Finding, res taxonomy.Resolution, text string, ctx map[string]string) (*Result, error)
}

// #endregion

// #region set

// Set is an ordered list of strategies, lowest priority number first.
type Set []Strategy

// NewSet returns the strategies ordered by ascending priority. Ties keep the
// given order.
func NewSet(strategies ...Strategy) Set {
	s := append(Set(nil), strategies...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Priority() < s[j].Priority() })
	return s
}

// Default returns the multi-level set: suggestion → pattern → template → structural.
func Default(reg *taxonomy.Registry) Set {
	return NewSet(
		NewSuggestion(),
		NewPattern(reg),
		NewTemplate(reg),
		NewStructural(reg),
	)
}

// SingleLevel returns the set used when multi-level synthesis is off:
// template insertion only.
func SingleLevel(reg *taxonomy.Registry) Set {
	return NewSet(NewTemplate(reg))
}

// #endregion

// #region select

// Unresolved records a strategy that matched but could not produce a correction.
type Unresolved struct {
	Strategy Type
	Err      error
}

// Selection is the outcome of running a finding through the set.
type Selection struct {
	Strategy   Strategy // nil when nothing applied
	Result     *Result
	Unresolved []Unresolved
}

// Select tries each strategy in order; the first whose CanApply is true and
// whose Apply yields a result wins. Strategy errors are collected and the
// next strategy is tried.
func (s Set) Select(f finding.Finding, res taxonomy.Resolution, text string, ctx map[string]string) Selection {
	var sel Selection
	for _, st := range s {
		if !st.CanApply(f, res, text) {
			continue
		}
		r, err := st.Apply(f, res, text, ctx)
		if err != nil {
			sel.Unresolved = append(sel.Unresolved, Unresolved{Strategy: st.Type(), Err: err})
			continue
		}
		if r == nil || len(r.Edits) == 0 {
			continue
		}
		sel.Strategy = st
		sel.Result = r
		return sel
	}
	return sel
}

// #endregion
