package integrity

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// ErrDraftTooShort is returned by CheckDraft when a pass leaves the document
// empty or below the minimum length.
var ErrDraftTooShort = errors.New("integrity: draft too short")

// #region validator
// Validator checks proposed corrections before they are committed.
type Validator struct {
	config Config
}

// NewValidator creates a validator with the given configuration.
func NewValidator(config Config) *Validator {
	return &Validator{config: config}
}

// Evaluate runs every check against c and returns commit or reject. All
// violations are collected; the first one becomes the decision reason.
func (v *Validator) Evaluate(c Candidate, h *History) Decision {
	var vetoes []VetoSignal

	// 1. Required fields
	var missing []string
	if strings.TrimSpace(c.Reason) == "" {
		missing = append(missing, "reason")
	}
	if strings.TrimSpace(c.StrategyType) == "" {
		missing = append(missing, "strategy_type")
	}
	if len(missing) > 0 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoMissingFields,
			Reason: "missing " + strings.Join(missing, ", "),
		})
	}

	// 2. Step ratio against the immediately preceding text
	ratio := lengthRatio(c.Before, c.After)
	if !v.withinBounds(ratio) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoLengthRatio,
			Reason: fmt.Sprintf("length ratio %.3f outside [%.2f, %.2f]", ratio, v.config.MinRatio, v.config.MaxRatio),
		})
	}

	// 3. Cumulative ratio against the pre-pass text
	if c.PassText != c.Before {
		passRatio := lengthRatio(c.PassText, c.After)
		if !v.withinBounds(passRatio) {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoPassRatio,
				Reason: fmt.Sprintf("pass length ratio %.3f outside [%.2f, %.2f]", passRatio, v.config.MinRatio, v.config.MaxRatio),
			})
		}
	}

	// 4. Loop/ping-pong detection
	if h != nil && h.Contains(c) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoDuplicate,
			Reason: fmt.Sprintf("identical %s correction already applied for %s at %s", c.StrategyType, c.GateID, c.Location),
		})
	}

	d := Decision{
		GateID:   c.GateID,
		Strategy: c.StrategyType,
		Ratio:    ratio,
	}
	if len(vetoes) > 0 {
		d.Action = ActionReject
		d.Reason = "integrity veto: " + vetoes[0].Reason
		d.Vetoed = true
		d.VetoSignals = vetoes
		return d
	}
	d.Action = ActionCommit
	d.Reason = fmt.Sprintf("passed integrity: ratio=%.3f", ratio)
	return d
}

// CheckDraft verifies a pass left a usable document.
func (v *Validator) CheckDraft(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 || n < v.config.MinLength {
		return fmt.Errorf("%w: %d characters, need %d", ErrDraftTooShort, n, v.config.MinLength)
	}
	return nil
}

func (v *Validator) withinBounds(ratio float64) bool {
	return ratio >= v.config.MinRatio && ratio <= v.config.MaxRatio
}

// #endregion validator

// #region history
// History remembers every committed correction in one synthesis run. Two
// corrections are identical only when gate, strategy, applied text and
// location all match, so a replacement continuing at new offsets is not a
// repeat.
type History struct {
	seen map[string]struct{}
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{seen: make(map[string]struct{})}
}

// Add records a committed correction.
func (h *History) Add(c Candidate) {
	h.seen[historyKey(c)] = struct{}{}
}

// Contains reports whether an identical correction was already committed for the gate.
func (h *History) Contains(c Candidate) bool {
	_, ok := h.seen[historyKey(c)]
	return ok
}

// Len returns the number of recorded corrections.
func (h *History) Len() int { return len(h.seen) }

func historyKey(c Candidate) string {
	return c.GateID + "\x00" + c.StrategyType + "\x00" + c.AppliedText + "\x00" + c.Location
}

// #endregion history

// #region helpers
// lengthRatio returns len(after)/len(before) in characters. Growth from an
// empty text reports math.MaxFloat64 so it stays JSON-encodable.
func lengthRatio(before, after string) float64 {
	b := utf8.RuneCountInString(before)
	a := utf8.RuneCountInString(after)
	if b == 0 {
		if a == 0 {
			return 1
		}
		return math.MaxFloat64
	}
	return float64(a) / float64(b)
}

// #endregion helpers
