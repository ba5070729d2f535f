package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/correction-synth/internal/document"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/logging"
	"github.com/danielpatrickdp/correction-synth/internal/strategy"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
)

var (
	// ErrNotFound is returned when a run id does not exist.
	ErrNotFound = errors.New("ledger: run not found")
	// ErrNondeterministic is returned by RecordRun when the same input hash
	// was already recorded with a different output hash. The run is stored anyway.
	ErrNondeterministic = errors.New("ledger: nondeterministic output")
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS synthesis_runs (
	run_id           TEXT PRIMARY KEY,
	input_hash       TEXT NOT NULL,
	output_hash      TEXT NOT NULL,
	status           TEXT NOT NULL,
	iterations       INTEGER NOT NULL,
	correction_count INTEGER NOT NULL,
	document_type    TEXT,
	report_json      TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_input ON synthesis_runs(input_hash);

CREATE TABLE IF NOT EXISTS correction_records (
	run_id         TEXT NOT NULL,
	seq            INTEGER NOT NULL,
	record_id      TEXT NOT NULL,
	module_id      TEXT NOT NULL,
	gate_id        TEXT NOT NULL,
	strategy_type  TEXT NOT NULL,
	iteration      INTEGER NOT NULL,
	location       TEXT NOT NULL,
	spans_json     TEXT NOT NULL,
	applied_text   TEXT NOT NULL,
	reason         TEXT NOT NULL,
	legal_citation TEXT,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES synthesis_runs(run_id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	gate_id       TEXT NOT NULL,
	strategy_type TEXT,
	iteration     INTEGER NOT NULL,
	decision      TEXT NOT NULL,
	reason        TEXT,
	detail_json   TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES synthesis_runs(run_id)
);
`

// #endregion schema

// #region store-struct
// Store is the SQLite run ledger.
type Store struct {
	db     *sql.DB
	logger *logging.Logger
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string, logger *logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{db: db, logger: logger.WithTag("LEDGER")}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region record-run
// RecordRun persists a result, its correction records and one provenance row
// per integrity decision in a single transaction. If the input hash was seen
// before with another output hash, the run is still stored and the returned
// error wraps ErrNondeterministic.
func (s *Store) RecordRun(res synthesis.Result, meta RunMeta) (RunRecord, error) {
	prior, err := s.outputsFor(res.Hashes.InputHash)
	if err != nil {
		return RunRecord{}, err
	}

	rec := RunRecord{
		RunID:           uuid.New().String(),
		InputHash:       res.Hashes.InputHash,
		OutputHash:      res.Hashes.OutputHash,
		Status:          string(res.Status),
		Iterations:      res.Iterations,
		CorrectionCount: len(res.Corrections),
		DocumentType:    meta.DocumentType,
		Valid:           res.Report.Valid,
		Warnings:        res.Report.Warnings,
		Errors:          res.Report.Errors,
		CreatedAt:       time.Now().UTC(),
	}

	reportJSON, err := json.Marshal(res.Report)
	if err != nil {
		return RunRecord{}, fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO synthesis_runs (run_id, input_hash, output_hash, status, iterations, correction_count, document_type, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.InputHash, rec.OutputHash, rec.Status, rec.Iterations, rec.CorrectionCount,
		nullIfEmpty(rec.DocumentType), string(reportJSON), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	for i, c := range res.Corrections {
		spansJSON, err := json.Marshal(c.Spans)
		if err != nil {
			return RunRecord{}, fmt.Errorf("marshal spans: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO correction_records (run_id, seq, record_id, module_id, gate_id, strategy_type, iteration, location, spans_json, applied_text, reason, legal_citation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, i, c.ID, c.ModuleID, c.GateID, string(c.StrategyType), c.Iteration,
			c.Location, string(spansJSON), c.AppliedText, c.Reason, nullIfEmpty(c.LegalCitation),
		)
		if err != nil {
			return RunRecord{}, fmt.Errorf("insert correction %d: %w", i, err)
		}
	}

	for _, d := range res.Decisions {
		detail, err := json.Marshal(decisionDetail(d, meta.Thresholds))
		if err != nil {
			return RunRecord{}, fmt.Errorf("marshal decision detail: %w", err)
		}
		err = logging.LogDecisionTx(tx, logging.ProvenanceEntry{
			RunID:        rec.RunID,
			GateID:       d.GateID,
			StrategyType: d.Strategy,
			Iteration:    d.Iteration,
			Decision:     string(d.Action),
			Reason:       d.Reason,
			DetailJSON:   string(detail),
			CreatedAt:    rec.CreatedAt,
		})
		if err != nil {
			return RunRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit: %w", err)
	}

	for _, out := range prior {
		if out != rec.OutputHash {
			s.logger.Warn("input %s produced %s, previously %s", rec.InputHash, rec.OutputHash, out)
			return rec, fmt.Errorf("%w: input %s produced %s, previously %s",
				ErrNondeterministic, rec.InputHash, rec.OutputHash, out)
		}
	}
	s.logger.Info("recorded run %s status=%s corrections=%d", rec.RunID, rec.Status, rec.CorrectionCount)
	return rec, nil
}

func decisionDetail(d integrity.Decision, cfg integrity.Config) logging.DecisionDetail {
	detail := logging.DecisionDetail{
		Ratio: d.Ratio,
		Thresholds: logging.ThresholdInfo{
			MinRatio:  cfg.MinRatio,
			MaxRatio:  cfg.MaxRatio,
			MinLength: cfg.MinLength,
		},
	}
	for _, v := range d.VetoSignals {
		detail.VetoSignals = append(detail.VetoSignals, logging.VetoDetail{Type: string(v.Type), Reason: v.Reason})
	}
	return detail
}

// #endregion record-run

// #region get-run
// GetRun retrieves a run by id.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, input_hash, output_hash, status, iterations, correction_count, document_type, report_json, created_at
		 FROM synthesis_runs WHERE run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	return s.queryRuns(
		`SELECT run_id, input_hash, output_hash, status, iterations, correction_count, document_type, report_json, created_at
		 FROM synthesis_runs ORDER BY rowid DESC LIMIT ?`, limit,
	)
}

// RunsByInput returns every run recorded for an input hash, oldest first.
func (s *Store) RunsByInput(inputHash string) ([]RunRecord, error) {
	return s.queryRuns(
		`SELECT run_id, input_hash, output_hash, status, iterations, correction_count, document_type, report_json, created_at
		 FROM synthesis_runs WHERE input_hash = ? ORDER BY rowid`, inputHash,
	)
}

func (s *Store) queryRuns(query string, args ...any) ([]RunRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var docType sql.NullString
	var reportJSON, createdStr string
	if err := row.Scan(&rec.RunID, &rec.InputHash, &rec.OutputHash, &rec.Status, &rec.Iterations,
		&rec.CorrectionCount, &docType, &reportJSON, &createdStr); err != nil {
		return RunRecord{}, err
	}
	if docType.Valid {
		rec.DocumentType = docType.String
	}
	var report synthesis.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal report: %w", err)
	}
	rec.Valid = report.Valid
	rec.Warnings = report.Warnings
	rec.Errors = report.Errors
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion list-runs

// #region corrections
// Corrections returns the correction records of a run in their original order.
func (s *Store) Corrections(runID string) ([]synthesis.CorrectionRecord, error) {
	rows, err := s.db.Query(
		`SELECT record_id, module_id, gate_id, strategy_type, iteration, location, spans_json, applied_text, reason, legal_citation
		 FROM correction_records WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	defer rows.Close()

	var out []synthesis.CorrectionRecord
	for rows.Next() {
		var c synthesis.CorrectionRecord
		var strategyType, spansJSON string
		var citation sql.NullString
		if err := rows.Scan(&c.ID, &c.ModuleID, &c.GateID, &strategyType, &c.Iteration, &c.Location,
			&spansJSON, &c.AppliedText, &c.Reason, &citation); err != nil {
			return nil, fmt.Errorf("scan correction: %w", err)
		}
		c.StrategyType = strategy.Type(strategyType)
		if err := json.Unmarshal([]byte(spansJSON), &c.Spans); err != nil {
			return nil, fmt.Errorf("unmarshal spans: %w", err)
		}
		if c.Spans == nil {
			c.Spans = []document.Span{}
		}
		if citation.Valid {
			c.LegalCitation = citation.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// #endregion corrections

// #region provenance
// Provenance returns the decision log of a run in insertion order.
func (s *Store) Provenance(runID string) ([]logging.ProvenanceEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, gate_id, strategy_type, iteration, decision, reason, detail_json, created_at
		 FROM provenance_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list provenance: %w", err)
	}
	defer rows.Close()

	var out []logging.ProvenanceEntry
	for rows.Next() {
		var e logging.ProvenanceEntry
		var strategyType, reason, detail sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.GateID, &strategyType, &e.Iteration, &e.Decision,
			&reason, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan provenance: %w", err)
		}
		e.StrategyType = strategyType.String
		e.Reason = reason.String
		e.DetailJSON = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion provenance

// #region divergences
// Divergences lists every input hash recorded with more than one output hash.
func (s *Store) Divergences() ([]Divergence, error) {
	rows, err := s.db.Query(
		`SELECT input_hash, GROUP_CONCAT(DISTINCT output_hash), COUNT(*)
		 FROM synthesis_runs GROUP BY input_hash
		 HAVING COUNT(DISTINCT output_hash) > 1
		 ORDER BY input_hash`,
	)
	if err != nil {
		return nil, fmt.Errorf("divergences: %w", err)
	}
	defer rows.Close()

	var out []Divergence
	for rows.Next() {
		var d Divergence
		var outputs string
		if err := rows.Scan(&d.InputHash, &outputs, &d.Runs); err != nil {
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		d.OutputHashes = strings.Split(outputs, ",")
		sort.Strings(d.OutputHashes)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) outputsFor(inputHash string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT output_hash FROM synthesis_runs WHERE input_hash = ? ORDER BY output_hash`, inputHash,
	)
	if err != nil {
		return nil, fmt.Errorf("prior outputs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan output hash: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// #endregion divergences

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
