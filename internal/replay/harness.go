package replay

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/correction-synth/internal/eval"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #region types

// Case is a single recorded document for replay.
type Case struct {
	ID       string
	Request  synthesis.Request
	Expected FixtureExpected
}

// ReplayConfig bundles the engine and eval settings for a replay run.
type ReplayConfig struct {
	Integrity  integrity.Config
	EvalConfig eval.EvalConfig
	Repeat     int
}

// DefaultReplayConfig returns the default thresholds and two runs per case.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Integrity:  integrity.DefaultConfig(),
		EvalConfig: eval.DefaultEvalConfig(),
		Repeat:     2,
	}
}

// Replay outcomes.
const (
	ActionMatch      = "match"
	ActionDiverge    = "diverge"
	ActionUnstable   = "unstable"
	ActionEvalFailed = "eval_failed"
)

// ReplayResult captures the outcome of replaying one case.
type ReplayResult struct {
	CaseID string
	Action string // "match" | "diverge" | "unstable" | "eval_failed"
	Reason string

	// First run of the case.
	Result synthesis.Result

	// Eval stage (nil if the case was unstable)
	EvalResult *eval.EvalResult

	// Output hashes of every run, in order.
	OutputHashes []string

	// Differences against the pinned expectation.
	Mismatches []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases int
	Matches    int
	Diverged   int
	Unstable   int
	EvalFailed int
}

// #endregion types

// #region replay

// Replay synthesizes every case config.Repeat times without a Compliance
// Validator, then runs each case through stability -> eval -> expectation.
// A case whose runs disagree on hashes is unstable; an inconsistent result
// fails eval; otherwise a result that misses its expectation diverges.
func Replay(ctx context.Context, reg *taxonomy.Registry, cases []Case, config ReplayConfig) []ReplayResult {
	repeat := config.Repeat
	if repeat < 2 {
		repeat = 2
	}
	eng := synthesis.NewEngine(reg, synthesis.WithIntegrityConfig(config.Integrity))
	evalInst := eval.NewEvalHarness(config.EvalConfig)
	results := make([]ReplayResult, 0, len(cases))

	for _, c := range cases {
		r := ReplayResult{CaseID: c.ID}
		var inputHash string
		for i := 0; i < repeat; i++ {
			res := eng.Synthesize(ctx, c.Request)
			if i == 0 {
				r.Result = res
				inputHash = res.Hashes.InputHash
			} else if res.Hashes.InputHash != inputHash {
				r.Mismatches = append(r.Mismatches, fmt.Sprintf("run %d: input hash %s, first run %s",
					i+1, res.Hashes.InputHash, inputHash))
			}
			r.OutputHashes = append(r.OutputHashes, res.Hashes.OutputHash)
		}

		if !allEqual(r.OutputHashes) || len(r.Mismatches) > 0 {
			r.Action = ActionUnstable
			r.Reason = fmt.Sprintf("output hashes differ across %d runs: %s", repeat, strings.Join(r.OutputHashes, ", "))
			results = append(results, r)
			continue
		}

		evalResult := evalInst.Run(c.Request, r.Result)
		r.EvalResult = &evalResult
		if !evalResult.Passed {
			r.Action = ActionEvalFailed
			r.Reason = evalResult.Reason
			results = append(results, r)
			continue
		}

		r.Mismatches = Check(r.Result, c.Expected)
		if len(r.Mismatches) > 0 {
			r.Action = ActionDiverge
			r.Reason = r.Mismatches[0]
		} else {
			r.Action = ActionMatch
			r.Reason = fmt.Sprintf("status=%s corrections=%d", r.Result.Status, len(r.Result.Corrections))
		}
		results = append(results, r)
	}

	return results
}

// Check compares a result against a pinned expectation and returns one line
// per difference.
func Check(res synthesis.Result, exp FixtureExpected) []string {
	var out []string
	if exp.Status != "" && string(res.Status) != exp.Status {
		out = append(out, fmt.Sprintf("status: expected %s, got %s", exp.Status, res.Status))
	}
	if exp.Records != nil {
		if len(res.Corrections) != len(exp.Records) {
			out = append(out, fmt.Sprintf("records: expected %d, got %d", len(exp.Records), len(res.Corrections)))
		} else {
			for i, want := range exp.Records {
				got := res.Corrections[i]
				if got.ModuleID != want.ModuleID || got.GateID != want.GateID || string(got.StrategyType) != want.StrategyType {
					out = append(out, fmt.Sprintf("record %d: expected %s/%s via %s, got %s/%s via %s",
						i, want.ModuleID, want.GateID, want.StrategyType, got.ModuleID, got.GateID, got.StrategyType))
				}
			}
		}
	}
	for _, s := range exp.Contains {
		if !strings.Contains(res.Text, s) {
			out = append(out, fmt.Sprintf("text: missing %q", s))
		}
	}
	for _, s := range exp.Absent {
		if strings.Contains(res.Text, s) {
			out = append(out, fmt.Sprintf("text: still contains %q", s))
		}
	}
	for _, s := range exp.Warnings {
		if !anyContains(res.Report.Warnings, s) {
			out = append(out, fmt.Sprintf("warnings: none mention %q", s))
		}
	}
	if exp.OutputHash != "" && res.Hashes.OutputHash != exp.OutputHash {
		out = append(out, fmt.Sprintf("output_hash: expected %s, got %s", exp.OutputHash, res.Hashes.OutputHash))
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results)}
	for _, r := range results {
		switch r.Action {
		case ActionMatch:
			s.Matches++
		case ActionDiverge:
			s.Diverged++
		case ActionUnstable:
			s.Unstable++
		case ActionEvalFailed:
			s.EvalFailed++
		}
	}
	return s
}

// #endregion replay

// #region helpers

func allEqual(ss []string) bool {
	for _, s := range ss[1:] {
		if s != ss[0] {
			return false
		}
	}
	return true
}

func anyContains(ss []string, sub string) bool {
	for _, s := range ss {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// #endregion helpers
