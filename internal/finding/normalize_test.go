package finding

import (
	"reflect"
	"testing"
)

func sampleFindings() []Finding {
	return []Finding{
		{ModuleID: "gdpr_uk", GateID: "consent", Status: StatusFail, Severity: SeverityCritical},
		{ModuleID: "fca_uk", GateID: "risk_warning", Status: StatusFail, Severity: SeverityHigh},
		{ModuleID: "tax_uk", GateID: "vat_threshold", Status: StatusWarning, Severity: SeverityMedium},
		{ModuleID: "fca_uk", GateID: "past_performance", Status: StatusPass, Severity: SeverityLow},
		{ModuleID: "gdpr_uk", GateID: "cookies", Status: StatusNA, Severity: SeverityLow},
		{ModuleID: "fca_uk", GateID: "capital_at_risk", Status: StatusWarning, Severity: SeverityHigh},
	}
}

func TestNormalize_DropsNonActionable(t *testing.T) {
	got := Normalize(sampleFindings())
	if len(got) != 4 {
		t.Fatalf("expected 4 actionable findings, got %d", len(got))
	}
	for _, f := range got {
		if f.Status == StatusPass || f.Status == StatusNA {
			t.Errorf("non-actionable finding kept: %s", f.Key())
		}
	}
}

func TestNormalize_TotalOrder(t *testing.T) {
	got := Normalize(sampleFindings())
	want := []string{
		"fca_uk/capital_at_risk",
		"fca_uk/risk_warning",
		"gdpr_uk/consent",
		"tax_uk/vat_threshold",
	}
	var keys []string
	for _, f := range got {
		keys = append(keys, f.Key())
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("got %v, want %v", keys, want)
	}
}

func TestNormalize_OrderInvariant(t *testing.T) {
	base := sampleFindings()
	want := Normalize(base)

	// every rotation and the reverse must normalize identically
	for shift := 0; shift < len(base); shift++ {
		rotated := append(append([]Finding{}, base[shift:]...), base[:shift]...)
		if got := Normalize(rotated); !reflect.DeepEqual(got, want) {
			t.Fatalf("rotation %d changed output", shift)
		}
	}
	reversed := make([]Finding, len(base))
	for i, f := range base {
		reversed[len(base)-1-i] = f
	}
	if got := Normalize(reversed); !reflect.DeepEqual(got, want) {
		t.Fatal("reverse order changed output")
	}
}

func TestNormalize_CollapsesExactDuplicates(t *testing.T) {
	f := Finding{ModuleID: "gdpr_uk", GateID: "consent", Status: StatusFail, Severity: SeverityCritical}
	got := Normalize([]Finding{f, f, f})
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := sampleFindings()
	snapshot := append([]Finding{}, in...)
	Normalize(in)
	if !reflect.DeepEqual(in, snapshot) {
		t.Error("input slice was reordered")
	}
}

func TestNormalizeSet_MatchesList(t *testing.T) {
	set := Set{
		"gdpr_uk": {
			"consent": {Status: StatusFail, Severity: SeverityCritical},
			"cookies": {Status: StatusNA, Severity: SeverityLow},
		},
		"fca_uk": {
			"risk_warning": {Status: StatusFail, Severity: SeverityHigh, SuggestedText: "Capital at risk."},
		},
	}
	got := NormalizeSet(set)
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got[0].Key() != "fca_uk/risk_warning" || got[1].Key() != "gdpr_uk/consent" {
		t.Errorf("unexpected order: %s, %s", got[0].Key(), got[1].Key())
	}
	if got[0].SuggestedText != "Capital at risk." {
		t.Errorf("suggested text lost: %q", got[0].SuggestedText)
	}
}

func TestSortAll_KeepsNonActionable(t *testing.T) {
	got := SortAll(sampleFindings())
	if len(got) != 6 {
		t.Fatalf("expected 6 findings, got %d", len(got))
	}
}

func TestModules(t *testing.T) {
	got := Modules(sampleFindings())
	want := []string{"fca_uk", "gdpr_uk", "tax_uk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
