package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE provenance_log (
		run_id        TEXT NOT NULL,
		gate_id       TEXT NOT NULL,
		strategy_type TEXT,
		iteration     INTEGER NOT NULL,
		decision      TEXT NOT NULL,
		reason        TEXT,
		detail_json   TEXT,
		created_at    TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		RunID:        "run-1",
		GateID:       "consent",
		StrategyType: "pattern_replacement",
		Iteration:    1,
		Decision:     "commit",
		Reason:       "passed integrity: ratio=1.300",
		DetailJSON:   `{"ratio":1.3}`,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var runID, decision string
	var iteration int
	db.QueryRow("SELECT run_id, decision, iteration FROM provenance_log").Scan(&runID, &decision, &iteration)
	if runID != "run-1" {
		t.Errorf("expected run_id 'run-1', got %q", runID)
	}
	if decision != "commit" {
		t.Errorf("expected decision 'commit', got %q", decision)
	}
	if iteration != 1 {
		t.Errorf("expected iteration 1, got %d", iteration)
	}
}

func TestLogDecision_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		RunID:    "run-2",
		GateID:   "unknown_rule_xyz",
		Decision: "unresolved",
	}

	before := time.Now().UTC()
	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM provenance_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		RunID:     "run-3",
		GateID:    "cookies",
		Decision:  "deferred",
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var strategy, reason, detail sql.NullString
	db.QueryRow("SELECT strategy_type, reason, detail_json FROM provenance_log").Scan(
		&strategy, &reason, &detail,
	)
	if strategy.Valid {
		t.Error("expected NULL strategy_type for empty string")
	}
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
	if detail.Valid {
		t.Error("expected NULL detail_json for empty string")
	}
}

func TestLogDecisionTx(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := LogDecisionTx(tx, ProvenanceEntry{RunID: "r", GateID: "g", Decision: "reject"}); err != nil {
		t.Fatalf("log in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 0 {
		t.Errorf("expected rollback to discard the row, got %d", count)
	}
}

func TestLogDecision_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	entry := ProvenanceEntry{
		RunID:    "run-4",
		GateID:   "consent",
		Decision: "commit",
	}

	err := LogDecision(db, entry)
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-decision-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests
