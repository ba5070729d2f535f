package oracle

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/correction-synth/internal/finding"
)

var sample = []finding.Finding{
	{ModuleID: "gdpr_uk", GateID: "consent", Status: finding.StatusFail, Severity: finding.SeverityCritical},
	{ModuleID: "fca_uk", GateID: "risk_warning", Status: finding.StatusFail, Severity: finding.SeverityCritical},
	{ModuleID: "fca_uk", GateID: "complaints", Status: finding.StatusPass, Severity: finding.SeverityLow},
}

func TestInputHashDeterministic(t *testing.T) {
	a, err := InputHash("hello world", sample)
	if err != nil {
		t.Fatalf("input hash: %v", err)
	}
	b, err := InputHash("hello world", sample)
	if err != nil {
		t.Fatalf("input hash: %v", err)
	}
	if a != b {
		t.Fatalf("hash differs across calls: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "b") || !Valid(a) {
		t.Errorf("expected base32 CIDv1, got %s", a)
	}
}

func TestInputHashOrderInvariant(t *testing.T) {
	want, _ := InputHash("doc", sample)
	reversed := []finding.Finding{sample[2], sample[1], sample[0]}
	got, _ := InputHash("doc", reversed)
	if got != want {
		t.Fatalf("permuted findings changed hash: %s vs %s", got, want)
	}
}

func TestInputHashSensitivity(t *testing.T) {
	base, _ := InputHash("doc", sample)
	tests := []struct {
		name     string
		text     string
		findings []finding.Finding
	}{
		{"text", "doc.", sample},
		{"fewer-findings", "doc", sample[:2]},
		{"status", "doc", []finding.Finding{
			sample[0], sample[1],
			{ModuleID: "fca_uk", GateID: "complaints", Status: finding.StatusFail, Severity: finding.SeverityLow},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := InputHash(tt.text, tt.findings)
			if got == base {
				t.Error("hash did not change")
			}
		})
	}
}

func TestOutputHashStrategyOrder(t *testing.T) {
	a, _ := OutputHash("out", 3, []string{"template_insertion", "pattern_replacement", "template_insertion"})
	b, _ := OutputHash("out", 3, []string{"pattern_replacement", "template_insertion"})
	if a != b {
		t.Fatalf("strategy order or duplicates changed hash")
	}
	c, _ := OutputHash("out", 2, []string{"pattern_replacement", "template_insertion"})
	if a == c {
		t.Fatal("correction count must affect hash")
	}
}

func TestEmptyInputs(t *testing.T) {
	a, err := InputHash("", nil)
	if err != nil {
		t.Fatalf("input hash: %v", err)
	}
	b, _ := InputHash("", []finding.Finding{})
	if a != b {
		t.Error("nil and empty findings should hash alike")
	}
	if _, err := OutputHash("", 0, nil); err != nil {
		t.Fatalf("output hash: %v", err)
	}
}

func TestValid(t *testing.T) {
	if Valid("not-a-cid") {
		t.Error("garbage accepted")
	}
}
