package synthesis

import (
	"context"
	"encoding/json"

	"github.com/danielpatrickdp/correction-synth/internal/document"
	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/oracle"
	"github.com/danielpatrickdp/correction-synth/internal/strategy"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #region status
// Status is the terminal state of a synthesis run.
type Status string

const (
	StatusConverged       Status = "converged"
	StatusBudgetExhausted Status = "budget_exhausted"
	StatusValidatorFailed Status = "validator_failed"
	StatusCancelled       Status = "cancelled"
	StatusIntegrityFailed Status = "integrity_failed"
)

// #endregion status

// #region collaborators
// Validator is the external Compliance Validator. Check re-scans text for the
// given modules and returns fresh findings; PASS and N/A results are ignored.
type Validator interface {
	Check(ctx context.Context, text string, modules []string) ([]finding.Finding, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, text string, modules []string) ([]finding.Finding, error)

func (f ValidatorFunc) Check(ctx context.Context, text string, modules []string) ([]finding.Finding, error) {
	return f(ctx, text, modules)
}

// RelevanceFilter decides whether a domain matters for a document type.
// *taxonomy.Registry implements it.
type RelevanceFilter interface {
	Relevant(documentType string, d taxonomy.Domain) bool
}

// #endregion collaborators

// #region request
// Metadata describes the document being corrected.
type Metadata struct {
	DocumentType string `json:"document_type,omitempty"`
	// Context overrides template defaults (e.g. firm_name, frn).
	Context map[string]string `json:"context,omitempty"`
}

const (
	DefaultMaxIterations = 5
	maxIterationsCap     = 10
)

// Options are the per-request mode flags. The zero value is single-level
// synthesis with the default iteration budget; use DefaultOptions for the
// multi-level pass.
type Options struct {
	MultiLevel    bool `json:"multi_level"`
	ContextAware  bool `json:"context_aware"`
	MaxIterations int  `json:"max_iterations"`
}

// DefaultOptions returns multi-level, context-agnostic synthesis with the
// default budget.
func DefaultOptions() Options {
	return Options{MultiLevel: true, MaxIterations: DefaultMaxIterations}
}

// UnmarshalJSON fills absent fields from DefaultOptions.
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	p := plain(DefaultOptions())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Options(p)
	return nil
}

// Budget clamps MaxIterations to [1, 10]; zero or negative means the default.
func (o Options) Budget() int {
	switch {
	case o.MaxIterations <= 0:
		return DefaultMaxIterations
	case o.MaxIterations > maxIterationsCap:
		return maxIterationsCap
	default:
		return o.MaxIterations
	}
}

// Request is one synthesis call. Findings and Set are merged; either may be empty.
//
// Build Options from DefaultOptions: a zero Options runs template insertion
// only, so replaceable wording stays in the text. JSON requests without
// "options" get DefaultOptions automatically.
type Request struct {
	Text     string            `json:"text"`
	Findings []finding.Finding `json:"findings,omitempty"`
	Set      finding.Set       `json:"set,omitempty"`
	Metadata Metadata          `json:"metadata"`
	Options  Options           `json:"options"`
}

// UnmarshalJSON defaults Options to DefaultOptions when the key is absent.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	p := plain{Options: DefaultOptions()}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Request(p)
	return nil
}

// AllFindings returns Findings followed by the flattened Set.
func (r Request) AllFindings() []finding.Finding {
	out := make([]finding.Finding, 0, len(r.Findings))
	out = append(out, r.Findings...)
	return append(out, r.Set.Flatten()...)
}

// #endregion request

// #region result
// CorrectionRecord is one applied correction. Records are append-only.
type CorrectionRecord struct {
	ID            string          `json:"id"`
	ModuleID      string          `json:"module_id"`
	GateID        string          `json:"gate_id"`
	StrategyType  strategy.Type   `json:"strategy_type"`
	Iteration     int             `json:"iteration_index"`
	Location      string          `json:"location"`
	Spans         []document.Span `json:"spans"`
	AppliedText   string          `json:"applied_text"`
	Reason        string          `json:"reason"`
	LegalCitation string          `json:"legal_citation,omitempty"`
}

// Report summarizes what happened. Valid is false when Errors is non-empty.
type Report struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// Result is the output of a synthesis run. Text is always usable: the
// original, partially corrected or fully corrected document.
type Result struct {
	Text        string               `json:"text"`
	Corrections []CorrectionRecord   `json:"corrections"`
	Report      Report               `json:"report"`
	Hashes      oracle.Hashes        `json:"hashes"`
	Status      Status               `json:"status"`
	Iterations  int                  `json:"iterations"`
	Decisions   []integrity.Decision `json:"decisions"`
}

// StrategyTypes returns the strategy type of every correction, in order.
func (r Result) StrategyTypes() []string {
	out := make([]string, len(r.Corrections))
	for i, c := range r.Corrections {
		out[i] = string(c.StrategyType)
	}
	return out
}

// #endregion result
