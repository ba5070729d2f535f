package integrity

// #region veto-type
// VetoType enumerates integrity veto categories.
type VetoType string

const (
	VetoLengthRatio   VetoType = "length_ratio"
	VetoPassRatio     VetoType = "pass_length_ratio"
	VetoMissingFields VetoType = "missing_fields"
	VetoDuplicate     VetoType = "duplicate_correction"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected integrity violation.
type VetoSignal struct {
	Type   VetoType `json:"type"`
	Reason string   `json:"reason"`
}

// #endregion veto-signal

// #region config
// Config holds integrity thresholds.
type Config struct {
	MinRatio  float64 // smallest allowed len(after)/len(before)
	MaxRatio  float64 // largest allowed len(after)/len(before)
	MinLength int     // shortest acceptable draft, in characters
}

// DefaultConfig returns the standard bounds: shrink to no less than half,
// grow to no more than double, and never fall below 10 characters.
func DefaultConfig() Config {
	return Config{
		MinRatio:  0.5,
		MaxRatio:  2.0,
		MinLength: 10,
	}
}

// #endregion config

// #region candidate
// Candidate is one proposed correction with the texts around it.
type Candidate struct {
	GateID       string
	StrategyType string
	AppliedText  string
	Reason       string
	// Location is where the correction lands in the corrected text
	// ("replace@[12,19)").
	Location string

	Before   string // text immediately before this correction
	After    string // text with this correction applied
	PassText string // text at the start of the current pass
}

// #endregion candidate

// #region decision
// Action is the integrity verdict.
type Action string

const (
	ActionCommit Action = "commit"
	ActionReject Action = "reject"
)

// Decision is the output of evaluating one candidate.
type Decision struct {
	GateID      string       `json:"gate_id"`
	Strategy    string       `json:"strategy_type"`
	Iteration   int          `json:"iteration"`
	Action      Action       `json:"action"`
	Reason      string       `json:"reason"`
	Vetoed      bool         `json:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty"`
	Ratio       float64      `json:"ratio"`
}

// #endregion decision
