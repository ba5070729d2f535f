package ledger

import (
	"time"

	"github.com/danielpatrickdp/correction-synth/internal/integrity"
)

// #region run-record
// RunRecord is one persisted synthesis run. The document text itself is
// never stored; only its hashes.
type RunRecord struct {
	RunID           string    `json:"run_id"`
	InputHash       string    `json:"input_hash"`
	OutputHash      string    `json:"output_hash"`
	Status          string    `json:"status"`
	Iterations      int       `json:"iterations"`
	CorrectionCount int       `json:"correction_count"`
	DocumentType    string    `json:"document_type,omitempty"`
	Valid           bool      `json:"valid"`
	Warnings        []string  `json:"warnings"`
	Errors          []string  `json:"errors"`
	CreatedAt       time.Time `json:"created_at"`
}

// #endregion run-record

// #region run-meta
// RunMeta carries the request context that is not part of the result.
type RunMeta struct {
	DocumentType string
	Thresholds   integrity.Config
}

// #endregion run-meta

// #region divergence
// Divergence is an input hash that produced more than one output hash.
type Divergence struct {
	InputHash    string
	OutputHashes []string
	Runs         int
}

// #endregion divergence
