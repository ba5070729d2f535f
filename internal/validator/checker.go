package validator

import (
	"context"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// PatternChecker is a local Checker that re-scans text with the registry's
// replacement patterns. A gate fails while any of its patterns still
// matches; gates without patterns are never reported.
type PatternChecker struct {
	Registry *taxonomy.Registry
}

// NewPatternChecker creates a checker over reg.
func NewPatternChecker(reg *taxonomy.Registry) *PatternChecker {
	return &PatternChecker{Registry: reg}
}

// Check returns one FAIL finding per gate in modules whose patterns still
// match text, ordered by module then gate.
func (p *PatternChecker) Check(ctx context.Context, text string, modules []string) ([]finding.Finding, error) {
	mods := append([]string(nil), modules...)
	sort.Strings(mods)

	var out []finding.Finding
	for _, m := range mods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, gate := range p.Registry.ModuleGates(m) {
			res := p.Registry.Resolve(gate)
			reps := p.Registry.FindReplacements(res.Key(), text)
			if len(reps) == 0 {
				continue
			}
			out = append(out, finding.Finding{
				ModuleID: m,
				GateID:   gate,
				Status:   finding.StatusFail,
				Severity: res.SeverityDefault,
				Message:  fmt.Sprintf("%d non-compliant phrase(s) remain, first %q", len(reps), text[reps[0].Start:reps[0].End]),
			})
		}
	}
	return out, nil
}
