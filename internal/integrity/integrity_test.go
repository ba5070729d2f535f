package integrity

import (
	"errors"
	"strings"
	"testing"
)

func candidate(before, after string) Candidate {
	return Candidate{
		GateID:       "consent",
		StrategyType: "pattern_replacement",
		AppliedText:  "explicit consent",
		Reason:       "replaced wording",
		Location:     "replace@[4,20)",
		Before:       before,
		After:        after,
		PassText:     before,
	}
}

func TestCommitWithinBounds(t *testing.T) {
	v := NewValidator(DefaultConfig())
	d := v.Evaluate(candidate("abcdefghij", "abcdefghijklmno"), NewHistory())

	if d.Action != ActionCommit {
		t.Fatalf("expected commit, got %s: %s", d.Action, d.Reason)
	}
	if d.Vetoed {
		t.Fatal("should not be vetoed")
	}
	if d.Ratio != 1.5 {
		t.Errorf("ratio = %v", d.Ratio)
	}
}

func TestRatioBounds(t *testing.T) {
	v := NewValidator(DefaultConfig())
	base := strings.Repeat("x", 100)
	tests := []struct {
		name   string
		after  string
		action Action
	}{
		{"exact-double", strings.Repeat("x", 200), ActionCommit},
		{"over-double", strings.Repeat("x", 201), ActionReject},
		{"exact-half", strings.Repeat("x", 50), ActionCommit},
		{"under-half", strings.Repeat("x", 49), ActionReject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := v.Evaluate(candidate(base, tt.after), nil)
			if d.Action != tt.action {
				t.Fatalf("expected %s, got %s: %s", tt.action, d.Action, d.Reason)
			}
			if tt.action == ActionReject && d.VetoSignals[0].Type != VetoLengthRatio {
				t.Errorf("expected %s, got %s", VetoLengthRatio, d.VetoSignals[0].Type)
			}
		})
	}
}

func TestRejectCumulativePassGrowth(t *testing.T) {
	v := NewValidator(DefaultConfig())
	c := candidate(strings.Repeat("x", 150), strings.Repeat("x", 250))
	c.PassText = strings.Repeat("x", 100)

	d := v.Evaluate(c, nil)
	if d.Action != ActionReject {
		t.Fatalf("expected reject, got %s", d.Action)
	}
	if d.VetoSignals[0].Type != VetoPassRatio {
		t.Fatalf("expected %s, got %s", VetoPassRatio, d.VetoSignals[0].Type)
	}
}

func TestRejectMissingFields(t *testing.T) {
	v := NewValidator(DefaultConfig())
	c := candidate("abcdefghij", "abcdefghijk")
	c.Reason = " "
	c.StrategyType = ""

	d := v.Evaluate(c, nil)
	if d.Action != ActionReject {
		t.Fatalf("expected reject, got %s", d.Action)
	}
	if d.VetoSignals[0].Type != VetoMissingFields {
		t.Fatalf("expected %s, got %s", VetoMissingFields, d.VetoSignals[0].Type)
	}
	if !strings.Contains(d.Reason, "reason, strategy_type") {
		t.Errorf("reason should name both fields: %s", d.Reason)
	}
}

func TestRejectDuplicate(t *testing.T) {
	v := NewValidator(DefaultConfig())
	h := NewHistory()
	c := candidate("abcdefghij", "abcdefghijk")

	if d := v.Evaluate(c, h); d.Action != ActionCommit {
		t.Fatalf("first application should commit: %s", d.Reason)
	}
	h.Add(c)

	d := v.Evaluate(c, h)
	if d.Action != ActionReject || d.VetoSignals[0].Type != VetoDuplicate {
		t.Fatalf("expected duplicate veto, got %+v", d)
	}

	tests := []struct {
		name   string
		mutate func(*Candidate)
	}{
		{"different gate", func(c *Candidate) { c.GateID = "cookies" }},
		{"same text at a new location", func(c *Candidate) { c.Location = "replace@[40,56)" }},
		{"different strategy", func(c *Candidate) { c.StrategyType = "template_insertion" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := c
			tt.mutate(&other)
			if d := v.Evaluate(other, h); d.Action != ActionCommit {
				t.Fatalf("expected commit, got %s", d.Reason)
			}
		})
	}
}

func TestRejectGrowthFromEmpty(t *testing.T) {
	v := NewValidator(DefaultConfig())
	d := v.Evaluate(candidate("", "some inserted text"), nil)
	if d.Action != ActionReject {
		t.Fatalf("expected reject, got %s", d.Action)
	}
}

func TestCheckDraft(t *testing.T) {
	v := NewValidator(DefaultConfig())
	tests := []struct {
		text    string
		wantErr bool
	}{
		{"", true},
		{"   \n ", true},
		{"too short", true},
		{"ten chars!", false},
		{"£££££££££££", false},
	}
	for _, tt := range tests {
		err := v.CheckDraft(tt.text)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckDraft(%q) = %v, wantErr %v", tt.text, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrDraftTooShort) {
			t.Errorf("expected ErrDraftTooShort, got %v", err)
		}
	}
}
