package strategy

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/correction-synth/internal/document"
	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #region suggestion

// Suggestion inserts the validator's own suggested text verbatim.
type Suggestion struct{}

// NewSuggestion creates the suggestion-extraction strategy.
func NewSuggestion() *Suggestion { return &Suggestion{} }

// Type returns TypeSuggestion.
func (*Suggestion) Type() Type { return TypeSuggestion }

// Priority is 20, the first strategy tried.
func (*Suggestion) Priority() int { return 20 }

// CanApply reports whether the finding carries a suggested text.
func (*Suggestion) CanApply(f finding.Finding, _ taxonomy.Resolution, _ string) bool {
	return strings.TrimSpace(f.SuggestedText) != ""
}

// Apply inserts the suggestion at the mapping's insertion point unless the
// text already contains it.
func (*Suggestion) Apply(f finding.Finding, res taxonomy.Resolution, text string, _ map[string]string) (*Result, error) {
	suggested := strings.TrimSpace(f.SuggestedText)
	if strings.Contains(text, suggested) {
		return nil, nil
	}
	return &Result{
		Edits:       []document.Edit{document.InsertionEdit(text, res.InsertionPoint, suggested)},
		AppliedText: suggested,
		Location:    string(res.InsertionPoint),
		Reason:      reason(f, "inserted validator suggestion"),
	}, nil
}

// #endregion

// #region pattern

// Pattern performs bounded find-and-replace with the (domain, variant) patterns.
type Pattern struct {
	reg *taxonomy.Registry
}

// NewPattern creates the pattern-replacement strategy.
func NewPattern(reg *taxonomy.Registry) *Pattern { return &Pattern{reg: reg} }

// Type returns TypePattern.
func (*Pattern) Type() Type { return TypePattern }

// Priority is 30.
func (*Pattern) Priority() int { return 30 }

// CanApply reports whether any pattern is registered for the resolved key.
func (p *Pattern) CanApply(_ finding.Finding, res taxonomy.Resolution, _ string) bool {
	return p.reg.HasPatterns(res.Key())
}

// Apply replaces up to each pattern's limit of matches in one result. A nil
// result means nothing matched.
func (p *Pattern) Apply(f finding.Finding, res taxonomy.Resolution, text string, _ map[string]string) (*Result, error) {
	reps := p.reg.FindReplacements(res.Key(), text)
	if len(reps) == 0 {
		return nil, nil
	}
	edits := make([]document.Edit, len(reps))
	texts := make([]string, len(reps))
	for i, r := range reps {
		edits[i] = document.Edit{Start: r.Start, End: r.End, Insert: r.Text}
		texts[i] = r.Text
	}
	return &Result{
		Edits:       edits,
		AppliedText: strings.Join(texts, "\n"),
		Location:    "replace",
		Reason:      reason(f, fmt.Sprintf("replaced %d non-compliant phrase(s)", len(reps))),
	}, nil
}

// #endregion

// #region template

// Template renders the (domain, variant) template and inserts it at the
// mapping's insertion point.
type Template struct {
	reg *taxonomy.Registry
}

// NewTemplate creates the template-insertion strategy.
func NewTemplate(reg *taxonomy.Registry) *Template { return &Template{reg: reg} }

// Type returns TypeTemplate.
func (*Template) Type() Type { return TypeTemplate }

// Priority is 40.
func (*Template) Priority() int { return 40 }

// CanApply reports whether a template is registered for the resolved key.
func (t *Template) CanApply(_ finding.Finding, res taxonomy.Resolution, _ string) bool {
	return t.reg.HasTemplate(res.Key())
}

// Apply renders the template with the mapping defaults and ctx. Rendering
// errors are returned; an already present rendering yields a nil result.
func (t *Template) Apply(f finding.Finding, res taxonomy.Resolution, text string, ctx map[string]string) (*Result, error) {
	rendered, err := t.reg.Render(res.Key(), res.DefaultContext, ctx)
	if err != nil {
		return nil, err
	}
	if rendered == "" || strings.Contains(text, rendered) {
		return nil, nil
	}
	return &Result{
		Edits:       []document.Edit{document.InsertionEdit(text, res.InsertionPoint, rendered)},
		AppliedText: rendered,
		Location:    string(res.InsertionPoint),
		Reason:      reason(f, "inserted "+res.Key().String()+" clause"),
	}, nil
}

// #endregion

// #region structural

// Structural reorders existing paragraphs so that a block carrying a lead
// marker (e.g. a risk warning) precedes the first block carrying a follow
// marker (e.g. a benefits claim). It never adds new wording.
type Structural struct {
	reg *taxonomy.Registry
}

// NewStructural creates the structural-reorganization strategy.
func NewStructural(reg *taxonomy.Registry) *Structural { return &Structural{reg: reg} }

// Type returns TypeStructural.
func (*Structural) Type() Type { return TypeStructural }

// Priority is 60, the last resort.
func (*Structural) Priority() int { return 60 }

// CanApply reports whether ordering rules exist for the resolved domain.
func (s *Structural) CanApply(_ finding.Finding, res taxonomy.Resolution, _ string) bool {
	return len(s.reg.OrderingRules(res.Domain)) > 0
}

// Apply moves the first misplaced lead block before the first follow block.
func (s *Structural) Apply(f finding.Finding, res taxonomy.Resolution, text string, _ map[string]string) (*Result, error) {
	blocks := document.Paragraphs(text)
	for _, rule := range s.reg.OrderingRules(res.Domain) {
		lead, follow := firstViolation(blocks, rule)
		if lead < 0 {
			continue
		}
		return &Result{
			Edits:       document.MoveBefore(blocks, lead, follow),
			AppliedText: blocks[lead].Text,
			Location:    "move",
			Reason:      reason(f, fmt.Sprintf("moved %s block ahead of block %d", res.Domain, follow+1)),
		}, nil
	}
	return nil, nil
}

// firstViolation returns the first lead block and the first follow block
// when the lead block comes later; (-1, -1) when the order already holds.
func firstViolation(blocks []document.Block, rule taxonomy.OrderingRule) (lead, follow int) {
	lead, follow = -1, -1
	for i, b := range blocks {
		lower := strings.ToLower(b.Text)
		isLead := containsAny(lower, rule.Lead)
		if isLead && lead < 0 {
			lead = i
		}
		if !isLead && follow < 0 && containsAny(lower, rule.Follow) {
			follow = i
		}
	}
	if lead < 0 || follow < 0 || lead < follow {
		return -1, -1
	}
	return lead, follow
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// #endregion

// #region helpers

func reason(f finding.Finding, action string) string {
	r := fmt.Sprintf("%s for %s", action, f.Key())
	if f.Message != "" {
		r += ": " + f.Message
	}
	return r
}

// #endregion
