package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a provenance entry to the provenance_log table.
func LogDecision(db *sql.DB, entry ProvenanceEntry) error {
	return logDecision(db, entry)
}

// LogDecisionTx writes a provenance entry inside an open transaction.
func LogDecisionTx(tx *sql.Tx, entry ProvenanceEntry) error {
	return logDecision(tx, entry)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func logDecision(db execer, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (run_id, gate_id, strategy_type, iteration, decision, reason, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.GateID,
		nullIfEmpty(entry.StrategyType),
		entry.Iteration,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.DetailJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
