package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/strategy"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureConfig holds the engine settings shared by every case.
type FixtureConfig struct {
	Integrity FixtureIntegrityConfig `json:"integrity"`
	// Repeat is how many times each case is synthesized; values below 2
	// still run twice so stability is always checked.
	Repeat int `json:"repeat"`
}

// FixtureIntegrityConfig mirrors integrity.Config with JSON tags.
type FixtureIntegrityConfig struct {
	MinRatio  float64 `json:"min_ratio"`
	MaxRatio  float64 `json:"max_ratio"`
	MinLength int     `json:"min_length"`
}

// FixtureCase is one document plus its findings and the pinned outcome.
type FixtureCase struct {
	CaseID   string             `json:"case_id"`
	Text     string             `json:"text"`
	Findings []finding.Finding  `json:"findings"`
	Metadata synthesis.Metadata `json:"metadata"`
	// Options defaults to synthesis.DefaultOptions when absent.
	Options  *synthesis.Options `json:"options,omitempty"`
	Expected FixtureExpected    `json:"expected"`
}

// FixtureExpected pins what a case must produce. Empty fields are not checked.
type FixtureExpected struct {
	Status     string           `json:"status,omitempty"`
	Records    []ExpectedRecord `json:"records"`
	Contains   []string         `json:"contains,omitempty"`
	Absent     []string         `json:"absent,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
	OutputHash string           `json:"output_hash,omitempty"`
}

// ExpectedRecord is the identity of one correction record, in order.
type ExpectedRecord struct {
	ModuleID     string `json:"module_id"`
	GateID       string `json:"gate_id"`
	StrategyType string `json:"strategy_type"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(f Fixture, path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToCase converts a FixtureCase to a replayable Case.
func (fc *FixtureCase) ToCase() Case {
	opts := synthesis.DefaultOptions()
	if fc.Options != nil {
		opts = *fc.Options
	}
	return Case{
		ID: fc.CaseID,
		Request: synthesis.Request{
			Text:     fc.Text,
			Findings: fc.Findings,
			Metadata: fc.Metadata,
			Options:  opts,
		},
		Expected: fc.Expected,
	}
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	out := make([]Case, len(f.Cases))
	for i := range f.Cases {
		out[i] = f.Cases[i].ToCase()
	}
	return out
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig. Zero
// thresholds fall back to integrity.DefaultConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if fc.Integrity.MinRatio > 0 {
		cfg.Integrity.MinRatio = fc.Integrity.MinRatio
	}
	if fc.Integrity.MaxRatio > 0 {
		cfg.Integrity.MaxRatio = fc.Integrity.MaxRatio
	}
	if fc.Integrity.MinLength > 0 {
		cfg.Integrity.MinLength = fc.Integrity.MinLength
	}
	if fc.Repeat > cfg.Repeat {
		cfg.Repeat = fc.Repeat
	}
	return cfg
}

// #endregion fixture-loader

// #region pin

// Pin captures a synthesis result as a fixture case so later runs can be
// compared against it.
func Pin(caseID string, req synthesis.Request, res synthesis.Result) FixtureCase {
	opts := req.Options
	records := make([]ExpectedRecord, len(res.Corrections))
	contains := make([]string, 0, len(res.Corrections))
	for i, c := range res.Corrections {
		records[i] = ExpectedRecord{ModuleID: c.ModuleID, GateID: c.GateID, StrategyType: string(c.StrategyType)}
		if c.StrategyType != strategy.TypeStructural && c.AppliedText != "" {
			contains = append(contains, c.AppliedText)
		}
	}
	return FixtureCase{
		CaseID:   caseID,
		Text:     req.Text,
		Findings: req.AllFindings(),
		Metadata: req.Metadata,
		Options:  &opts,
		Expected: FixtureExpected{
			Status:     string(res.Status),
			Records:    records,
			Contains:   contains,
			OutputHash: res.Hashes.OutputHash,
		},
	}
}

// FixtureConfigFrom is the inverse of ToReplayConfig.
func FixtureConfigFrom(cfg integrity.Config, repeat int) FixtureConfig {
	return FixtureConfig{
		Integrity: FixtureIntegrityConfig{
			MinRatio:  cfg.MinRatio,
			MaxRatio:  cfg.MaxRatio,
			MinLength: cfg.MinLength,
		},
		Repeat: repeat,
	}
}

// #endregion pin
