package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table: one integrity
// or selection decision taken for a gate during a synthesis run.
type ProvenanceEntry struct {
	RunID        string
	GateID       string
	StrategyType string
	Iteration    int
	Decision     string // "commit" | "reject"
	Reason       string
	DetailJSON   string // veto signals and ratio, as JSON
	CreatedAt    time.Time
}

// #endregion provenance-entry

// #region decision-detail
// DecisionDetail is serialized into provenance_log.detail_json so a rejected
// correction can be explained without re-running synthesis.
type DecisionDetail struct {
	Ratio       float64       `json:"ratio"`
	VetoSignals []VetoDetail  `json:"veto_signals,omitempty"`
	Thresholds  ThresholdInfo `json:"thresholds"`
}

// VetoDetail mirrors one integrity veto.
type VetoDetail struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ThresholdInfo captures the integrity bounds active at decision time.
type ThresholdInfo struct {
	MinRatio  float64 `json:"min_ratio"`
	MaxRatio  float64 `json:"max_ratio"`
	MinLength int     `json:"min_length"`
}

// #endregion decision-detail
