package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/correction-synth/internal/document"
	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/logging"
	"github.com/danielpatrickdp/correction-synth/internal/oracle"
	"github.com/danielpatrickdp/correction-synth/internal/strategy"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(outputHash string) synthesis.Result {
	return synthesis.Result{
		Text: "corrected",
		Corrections: []synthesis.CorrectionRecord{
			{
				ID: "rec-1", ModuleID: "fca_uk", GateID: "risk_warning",
				StrategyType: strategy.TypeTemplate, Iteration: 1,
				Location: "after_header@10-40", Spans: []document.Span{{Start: 10, End: 40}},
				AppliedText: "Capital at risk.", Reason: "insert", LegalCitation: "COBS 4.5A",
			},
			{
				ID: "rec-2", ModuleID: "gdpr_uk", GateID: "consent",
				StrategyType: strategy.TypePattern, Iteration: 1,
				Location: "replace@50-60", Spans: []document.Span{{Start: 50, End: 60}},
				AppliedText: "opt in", Reason: "replace",
			},
		},
		Report:     synthesis.Report{Valid: true, Warnings: []string{"w1"}, Errors: []string{}},
		Hashes:     oracle.Hashes{InputHash: "in-1", OutputHash: outputHash},
		Status:     synthesis.StatusConverged,
		Iterations: 2,
		Decisions: []integrity.Decision{
			{GateID: "risk_warning", Strategy: "template_insertion", Iteration: 1, Action: integrity.ActionCommit, Reason: "passed integrity: ratio=1.200", Ratio: 1.2},
			{GateID: "promo", Strategy: "template_insertion", Iteration: 1, Action: integrity.ActionReject, Reason: "integrity veto: too long", Vetoed: true,
				VetoSignals: []integrity.VetoSignal{{Type: integrity.VetoLengthRatio, Reason: "ratio 2.5 > 2.0"}}, Ratio: 2.5},
		},
	}
}

var meta = RunMeta{DocumentType: "financial_promotion", Thresholds: integrity.DefaultConfig()}

// #region record-and-get
func TestRecordAndGet(t *testing.T) {
	s := tempDB(t)

	rec, err := s.RecordRun(sampleResult("out-1"), meta)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if rec.RunID == "" || rec.CorrectionCount != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := s.GetRun(rec.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.InputHash != "in-1" || got.OutputHash != "out-1" {
		t.Errorf("hashes mismatch: %+v", got)
	}
	if got.Status != "converged" || got.Iterations != 2 {
		t.Errorf("status/iterations mismatch: %+v", got)
	}
	if got.DocumentType != "financial_promotion" || !got.Valid {
		t.Errorf("meta mismatch: %+v", got)
	}
	if len(got.Warnings) != 1 || got.Warnings[0] != "w1" {
		t.Errorf("warnings mismatch: %v", got.Warnings)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := tempDB(t)
	_, err := s.GetRun("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// #endregion record-and-get

// #region corrections-and-provenance
func TestCorrectionsRoundTrip(t *testing.T) {
	s := tempDB(t)
	res := sampleResult("out-1")
	rec, err := s.RecordRun(res, meta)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := s.Corrections(rec.RunID)
	if err != nil {
		t.Fatalf("Corrections: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 corrections, got %d", len(got))
	}
	for i := range got {
		want := res.Corrections[i]
		if got[i].ID != want.ID || got[i].GateID != want.GateID || got[i].StrategyType != want.StrategyType {
			t.Errorf("correction %d mismatch: %+v", i, got[i])
		}
		if len(got[i].Spans) != 1 || got[i].Spans[0] != want.Spans[0] {
			t.Errorf("correction %d spans mismatch: %v", i, got[i].Spans)
		}
		if got[i].LegalCitation != want.LegalCitation {
			t.Errorf("correction %d citation mismatch: %q", i, got[i].LegalCitation)
		}
	}
}

func TestProvenanceRows(t *testing.T) {
	s := tempDB(t)
	rec, err := s.RecordRun(sampleResult("out-1"), meta)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	entries, err := s.Provenance(rec.RunID)
	if err != nil {
		t.Fatalf("Provenance: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 provenance rows, got %d", len(entries))
	}
	if entries[0].Decision != "commit" || entries[1].Decision != "reject" {
		t.Errorf("decisions out of order: %s, %s", entries[0].Decision, entries[1].Decision)
	}

	var detail logging.DecisionDetail
	if err := json.Unmarshal([]byte(entries[1].DetailJSON), &detail); err != nil {
		t.Fatalf("unmarshal detail: %v", err)
	}
	if len(detail.VetoSignals) != 1 || detail.VetoSignals[0].Type != "length_ratio" {
		t.Errorf("veto detail mismatch: %+v", detail)
	}
	if detail.Thresholds.MaxRatio != 2.0 || detail.Thresholds.MinLength != 10 {
		t.Errorf("thresholds mismatch: %+v", detail.Thresholds)
	}
}

// #endregion corrections-and-provenance

// #region determinism
func TestRecordRunDetectsDivergence(t *testing.T) {
	s := tempDB(t)

	if _, err := s.RecordRun(sampleResult("out-1"), meta); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := s.RecordRun(sampleResult("out-1"), meta); err != nil {
		t.Fatalf("identical rerun flagged: %v", err)
	}

	rec, err := s.RecordRun(sampleResult("out-2"), meta)
	if !errors.Is(err, ErrNondeterministic) {
		t.Fatalf("expected ErrNondeterministic, got %v", err)
	}
	if _, getErr := s.GetRun(rec.RunID); getErr != nil {
		t.Errorf("divergent run should still be stored: %v", getErr)
	}

	divs, err := s.Divergences()
	if err != nil {
		t.Fatalf("Divergences: %v", err)
	}
	if len(divs) != 1 {
		t.Fatalf("expected 1 divergence, got %d", len(divs))
	}
	if divs[0].InputHash != "in-1" || divs[0].Runs != 3 || len(divs[0].OutputHashes) != 2 {
		t.Errorf("divergence mismatch: %+v", divs[0])
	}

	runs, err := s.RunsByInput("in-1")
	if err != nil {
		t.Fatalf("RunsByInput: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs for input, got %d", len(runs))
	}
}

func TestEngineRunsAreStable(t *testing.T) {
	s := tempDB(t)
	eng := synthesis.NewEngine(taxonomy.Default())
	req := synthesis.Request{
		Text: "Our fund returns 12% a year. Contact us today to invest now.",
		Findings: []finding.Finding{
			{ModuleID: "fca_uk", GateID: "risk_warning", Status: finding.StatusFail, Severity: finding.SeverityCritical, Message: "no risk warning"},
		},
		Options: synthesis.DefaultOptions(),
	}

	for i := 0; i < 3; i++ {
		res := eng.Synthesize(context.Background(), req)
		if _, err := s.RecordRun(res, meta); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	divs, err := s.Divergences()
	if err != nil {
		t.Fatalf("Divergences: %v", err)
	}
	if len(divs) != 0 {
		t.Errorf("engine diverged: %+v", divs)
	}
}

// #endregion determinism

// #region list
func TestListRuns(t *testing.T) {
	s := tempDB(t)
	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := s.RecordRun(sampleResult("out-1"), RunMeta{})
		if err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
		ids = append(ids, rec.RunID)
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != ids[2] {
		t.Errorf("newest run not first: got %s want %s", runs[0].RunID, ids[2])
	}
	if runs[0].DocumentType != "" {
		t.Errorf("empty document type should read back empty, got %q", runs[0].DocumentType)
	}
}

// #endregion list
