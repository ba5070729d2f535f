package finding

// #region status
// Status is the outcome a compliance gate reported.
type Status string

const (
	StatusFail    Status = "FAIL"
	StatusWarning Status = "WARNING"
	StatusPass    Status = "PASS"
	StatusNA      Status = "N/A"
)

// Actionable reports whether a finding with this status may trigger a correction.
func (s Status) Actionable() bool {
	return s == StatusFail || s == StatusWarning
}

// rank orders statuses for tie-breaking; lower sorts first.
func (s Status) rank() int {
	switch s {
	case StatusFail:
		return 0
	case StatusWarning:
		return 1
	case StatusPass:
		return 2
	case StatusNA:
		return 3
	default:
		return 4
	}
}

// #endregion status

// #region severity
// Severity is the regulatory weight of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AlwaysRetained reports whether findings of this severity bypass relevance filtering.
func (s Severity) AlwaysRetained() bool {
	return s == SeverityCritical || s == SeverityHigh
}

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// #endregion severity

// #region finding
// Finding is a single compliance result produced by the Compliance Validator.
// Values are treated as immutable once produced.
type Finding struct {
	ModuleID      string   `json:"module_id"`
	GateID        string   `json:"gate_id"`
	Status        Status   `json:"status"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message,omitempty"`
	SuggestedText string   `json:"suggested_text,omitempty"`
}

// Key returns the stable "module/gate" identifier.
func (f Finding) Key() string {
	return f.ModuleID + "/" + f.GateID
}

// #endregion finding

// #region set
// GateResult is a finding without its module and gate identifiers, as nested
// inside a Set.
type GateResult struct {
	Status        Status   `json:"status"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message,omitempty"`
	SuggestedText string   `json:"suggested_text,omitempty"`
}

// Set is the module -> gate -> result shape validators commonly emit.
// Map iteration order carries no meaning.
type Set map[string]map[string]GateResult

// Flatten converts the set into an unordered list of findings.
func (s Set) Flatten() []Finding {
	var out []Finding
	for module, gates := range s {
		for gate, r := range gates {
			out = append(out, Finding{
				ModuleID:      module,
				GateID:        gate,
				Status:        r.Status,
				Severity:      r.Severity,
				Message:       r.Message,
				SuggestedText: r.SuggestedText,
			})
		}
	}
	return out
}

// #endregion set
