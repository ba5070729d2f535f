package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/correction-synth/internal/ledger"
	"github.com/danielpatrickdp/correction-synth/internal/logging"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ledger db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/ledger.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	store, err := ledger.NewStore(*dbPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		store.Close()
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	Iterations   int    `json:"iterations"`
	Corrections  int    `json:"corrections"`
	Warnings     int    `json:"warnings"`
	Valid        bool   `json:"valid"`
	DocumentType string `json:"document_type,omitempty"`
	OutputHash   string `json:"output_hash"`
	CreatedAt    string `json:"created_at"`
}

func runListMode(store *ledger.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// store returns newest first; print chronologically
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:        r.RunID,
			Status:       r.Status,
			Iterations:   r.Iterations,
			Corrections:  r.CorrectionCount,
			Warnings:     len(r.Warnings),
			Valid:        r.Valid,
			DocumentType: r.DocumentType,
			OutputHash:   r.OutputHash,
			CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-18s  %4s  %5s  %5s  %-5s  %-20s  %s\n",
		"Run", "Status", "Iter", "Corr", "Warn", "Valid", "Document", "Time")
	fmt.Printf("%-10s+-%-18s+-%4s+-%5s+-%5s+-%-5s+-%-20s+-%s\n",
		"----------", "------------------", "----", "-----", "-----", "-----", "--------------------", "--------------------")
	for _, r := range rows {
		doc := r.DocumentType
		if doc == "" {
			doc = "-"
		}
		fmt.Printf("%-10s  %-18s  %4d  %5d  %5d  %-5v  %-20s  %s\n",
			shortID(r.RunID), r.Status, r.Iterations, r.Corrections, r.Warnings, r.Valid, doc, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Run         ledger.RunRecord             `json:"run"`
	Corrections []synthesis.CorrectionRecord `json:"corrections"`
	Decisions   []decisionRow                `json:"decisions"`
}

type decisionRow struct {
	GateID    string                  `json:"gate_id"`
	Strategy  string                  `json:"strategy_type,omitempty"`
	Iteration int                     `json:"iteration"`
	Decision  string                  `json:"decision"`
	Reason    string                  `json:"reason,omitempty"`
	Detail    *logging.DecisionDetail `json:"detail,omitempty"`
}

func runDetailMode(store *ledger.Store, runID string, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	corrections, err := store.Corrections(runID)
	if err != nil {
		return err
	}
	entries, err := store.Provenance(runID)
	if err != nil {
		return err
	}

	out := detailOutput{Run: run, Corrections: corrections}
	for _, e := range entries {
		out.Decisions = append(out.Decisions, decisionRow{
			GateID:    e.GateID,
			Strategy:  e.StrategyType,
			Iteration: e.Iteration,
			Decision:  e.Decision,
			Reason:    e.Reason,
			Detail:    parseDetail(e.DetailJSON),
		})
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", run.RunID)
	fmt.Printf("Created:    %s\n", run.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Status:     %s (%d iteration(s))\n", run.Status, run.Iterations)
	fmt.Printf("Document:   %s\n", run.DocumentType)
	fmt.Printf("Input:      %s\n", run.InputHash)
	fmt.Printf("Output:     %s\n", run.OutputHash)
	fmt.Printf("Valid:      %v\n", run.Valid)
	for _, w := range run.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range run.Errors {
		fmt.Printf("  error:   %s\n", e)
	}

	fmt.Printf("\nCorrections:\n")
	for i, c := range corrections {
		fmt.Printf("  %2d. [iter %d] %s/%s via %s at %s\n", i+1, c.Iteration, c.ModuleID, c.GateID, c.StrategyType, c.Location)
		if c.LegalCitation != "" {
			fmt.Printf("      cite: %s\n", c.LegalCitation)
		}
	}

	fmt.Printf("\nDecisions:\n")
	for _, d := range out.Decisions {
		ratio := "-"
		if d.Detail != nil {
			ratio = fmt.Sprintf("%.3f", d.Detail.Ratio)
		}
		fmt.Printf("  [iter %d] %-8s %-24s %-26s ratio=%s  %s\n",
			d.Iteration, d.Decision, d.GateID, d.Strategy, ratio, d.Reason)
	}
	return nil
}

// #endregion detail-mode

// #region output

func parseDetail(detailJSON string) *logging.DecisionDetail {
	if detailJSON == "" {
		return nil
	}
	var d logging.DecisionDetail
	if err := json.Unmarshal([]byte(detailJSON), &d); err != nil {
		return nil
	}
	return &d
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
