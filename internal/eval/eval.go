package eval

import (
	"fmt"
	"unicode/utf8"

	"github.com/danielpatrickdp/correction-synth/internal/oracle"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
)

// #region eval-harness
// EvalHarness checks that a finished synthesis result is internally
// consistent with the request that produced it.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates res against req. It never re-runs synthesis.
func (h *EvalHarness) Run(req synthesis.Request, res synthesis.Result) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Iteration budget
	budget := req.Options.Budget()
	check("iterations", float64(res.Iterations), res.Iterations <= budget,
		fmt.Sprintf("ran %d iterations with budget %d", res.Iterations, budget))

	// 2. Record iteration indices are non-decreasing and within the run
	last, ordered := 0, true
	for _, c := range res.Corrections {
		if c.Iteration < last || c.Iteration < 1 || c.Iteration > res.Iterations {
			ordered = false
		}
		last = c.Iteration
	}
	check("record_order", float64(len(res.Corrections)), ordered,
		"correction records out of iteration order")

	// 3. Required record fields
	missing := 0
	for _, c := range res.Corrections {
		if c.ID == "" || c.ModuleID == "" || c.GateID == "" || c.StrategyType == "" || c.Reason == "" {
			missing++
		}
	}
	check("record_fields", float64(missing), missing == 0,
		fmt.Sprintf("%d record(s) missing required fields", missing))

	// 4. Hashes parse as CIDs
	validHashes := oracle.Valid(res.Hashes.InputHash) && oracle.Valid(res.Hashes.OutputHash)
	check("hashes", boolValue(validHashes), validHashes, "input or output hash is not a valid CID")

	// 5. Report validity matches its error list
	consistent := res.Report.Valid == (len(res.Report.Errors) == 0)
	check("report", float64(len(res.Report.Errors)), consistent,
		fmt.Sprintf("report valid=%v with %d error(s)", res.Report.Valid, len(res.Report.Errors)))

	// 6. Overall growth: informational only, does not fail
	growth := growthRatio(req.Text, res.Text)
	metrics = append(metrics, EvalMetric{
		Name:  "growth",
		Value: growth,
		Pass:  growth >= h.config.MinGrowth && growth <= h.config.MaxGrowth,
	})

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func growthRatio(before, after string) float64 {
	b := utf8.RuneCountInString(before)
	if b == 0 {
		return 1
	}
	return float64(utf8.RuneCountInString(after)) / float64(b)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
