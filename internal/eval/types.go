package eval

// #region eval-config
// EvalConfig holds thresholds for post-synthesis validation.
type EvalConfig struct {
	MinGrowth float64 // warn if final/original length ratio falls below this
	MaxGrowth float64 // warn if final/original length ratio exceeds this
}

// DefaultEvalConfig returns the informational growth band.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinGrowth: 0.5,
		MaxGrowth: 4.0,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-synthesis validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
