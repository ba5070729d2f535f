package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_BuildsAndCoversDomains(t *testing.T) {
	r := Default()
	seen := make(map[Domain]bool)
	for _, id := range r.GateIDs() {
		seen[r.Resolve(id).Domain] = true
	}
	for _, d := range AllDomains() {
		if !seen[d] {
			t.Errorf("no built-in gate maps to domain %s", d)
		}
	}
}

func TestDefault_EveryTemplateKeyIsMapped(t *testing.T) {
	r := Default()
	mapped := make(map[Key]bool)
	for _, id := range r.GateIDs() {
		mapped[r.Resolve(id).Key()] = true
	}
	for raw := range DefaultTables().Templates {
		key, err := ParseKey(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !mapped[key] {
			t.Errorf("template %s is not reachable from any gate", key)
		}
	}
}

func TestResolve_Known(t *testing.T) {
	r := Default()
	res := r.Resolve("consent")
	if res.Unmapped {
		t.Fatal("consent should be mapped")
	}
	if res.Domain != DomainConsent || res.Variant != "explicit_consent" {
		t.Errorf("got %s", res.Key())
	}
	if res.LegalCitation == "" {
		t.Error("expected legal citation")
	}
}

func TestModuleGates(t *testing.T) {
	r := Default()
	got := strings.Join(r.ModuleGates("tax_uk"), ",")
	if !strings.Contains(got, "vat_threshold") || strings.Contains(got, "consent") {
		t.Errorf("tax_uk gates = %s", got)
	}
	if len(r.ModuleGates("unknown_module")) != 0 {
		t.Error("unknown module should have no gates")
	}
}

func TestResolve_UnknownFallsBack(t *testing.T) {
	r := Default()
	res := r.Resolve("unknown_rule_xyz")
	if !res.Unmapped {
		t.Fatal("expected Unmapped")
	}
	if res.Domain != DomainDisclosure {
		t.Errorf("expected disclosure fallback, got %s", res.Domain)
	}
	if r.HasTemplate(res.Key()) || r.HasPatterns(res.Key()) {
		t.Error("fallback key must not carry templates or patterns")
	}
}

func TestRender_MergesContext(t *testing.T) {
	r := Default()
	key := Key{Domain: DomainConsent, Variant: "explicit_consent"}
	res := r.Resolve("consent")

	got, err := r.Render(key, res.DefaultContext, map[string]string{"contact": "privacy@example.co.uk"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, "privacy@example.co.uk") {
		t.Errorf("override not applied: %q", got)
	}
	if !strings.Contains(got, "the purposes described in this notice") {
		t.Errorf("default not applied: %q", got)
	}
	if res.DefaultContext["contact"] != "us" {
		t.Error("render mutated the default context")
	}
}

func TestRender_MissingPlaceholder(t *testing.T) {
	r := Default()
	res := r.Resolve("regulatory_status")
	_, err := r.Render(res.Key(), res.DefaultContext, nil)
	if err == nil {
		t.Fatal("expected error for missing frn")
	}
	if !IsKind(err, KindTemplate) {
		t.Errorf("expected KindTemplate, got %v", err)
	}
	if Code(err) != "TAX-TPL-002" {
		t.Errorf("expected TAX-TPL-002, got %q", Code(err))
	}
}

func TestFindReplacements(t *testing.T) {
	r := Default()
	key := Key{Domain: DomainDisclosure, Variant: "vat_threshold"}
	text := "Register once turnover passes £85,000. The £85k limit applies."
	reps := r.FindReplacements(key, text)
	if len(reps) != 2 {
		t.Fatalf("expected 2 replacements, got %d", len(reps))
	}
	if reps[0].Start > reps[1].Start {
		t.Error("replacements not sorted")
	}
	if reps[0].Text != "£90,000" || reps[1].Text != "£90k" {
		t.Errorf("unexpected replacement text: %q, %q", reps[0].Text, reps[1].Text)
	}
}

func TestFindReplacements_GroupExpansion(t *testing.T) {
	r := Default()
	key := Key{Domain: DomainRiskWarning, Variant: "misleading_claims"}
	reps := r.FindReplacements(key, "Enjoy guaranteed returns today.")
	if len(reps) != 1 {
		t.Fatalf("expected 1 replacement, got %d", len(reps))
	}
	if reps[0].Text != "target returns (not guaranteed)" {
		t.Errorf("got %q", reps[0].Text)
	}
	// the replacement must not re-trigger the pattern
	if again := r.FindReplacements(key, "Enjoy target returns (not guaranteed) today."); len(again) != 0 {
		t.Errorf("replacement re-triggers pattern: %v", again)
	}
}

func TestFindReplacements_Bounded(t *testing.T) {
	r := Default()
	key := Key{Domain: DomainDisclosure, Variant: "vat_threshold"}
	text := strings.Repeat("£85,000 ", 10)
	if got := len(r.FindReplacements(key, text)); got != DefaultPatternLimit {
		t.Errorf("expected %d replacements, got %d", DefaultPatternLimit, got)
	}
}

func TestRelevant(t *testing.T) {
	r := Default()
	if r.Relevant("privacy_policy", DomainRiskWarning) {
		t.Error("risk warnings are not relevant to privacy policies")
	}
	if !r.Relevant("PRIVACY_POLICY", DomainConsent) {
		t.Error("document type match should be case-insensitive")
	}
	if !r.Relevant("unknown_type", DomainRiskWarning) {
		t.Error("unknown document types keep every domain")
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name string
		t    Tables
		code string
	}{
		{"bad-domain", Tables{Mappings: []Mapping{{GateID: "g", Domain: "nope", Variant: "v", InsertionPoint: InsertEnd}}}, "TAX-CFG-002"},
		{"bad-insertion", Tables{Mappings: []Mapping{{GateID: "g", Domain: DomainConsent, Variant: "v", InsertionPoint: "middle"}}}, "TAX-CFG-003"},
		{"bad-template", Tables{Templates: map[string]string{"consent:v": "{{.x"}}, "TAX-TPL-001"},
		{"bad-pattern", Tables{Patterns: map[string][]Pattern{"consent:v": {{Expr: "("}}}}, "TAX-PAT-001"},
		{"bad-key", Tables{Templates: map[string]string{"consent": "x"}}, "TAX-CFG-008"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.t)
			if err == nil {
				t.Fatal("expected error")
			}
			if Code(err) != tt.code {
				t.Errorf("got code %q, want %q (%v)", Code(err), tt.code, err)
			}
		})
	}
}

func TestLoad_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	overlay := `
mappings:
  - gate_id: vat_number
    domain: disclosure
    variant: vat_number
    insertion_point: end
    default_context:
      vat_number: GB123456789
    legal_citation: VAT Regulations 1995 reg. 14(1)
    severity_default: medium
templates:
  "disclosure:marketing_opt_out": "You can opt out of marketing at any time."
relevance:
  invoice: [disclosure, procedure]
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res := r.Resolve("vat_number")
	if res.InsertionPoint != InsertEnd {
		t.Errorf("overlay mapping not applied: %s", res.InsertionPoint)
	}
	got, err := r.Render(res.Key(), res.DefaultContext, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "VAT registration number: GB123456789." {
		t.Errorf("got %q", got)
	}
	if !r.HasTemplate(Key{Domain: DomainDisclosure, Variant: "marketing_opt_out"}) {
		t.Error("overlay template missing")
	}
	if !r.Relevant("invoice", DomainProcedure) {
		t.Error("overlay relevance not applied")
	}
	// built-in entries survive
	if r.Resolve("consent").Unmapped {
		t.Error("built-in mapping lost")
	}
}

func TestLoadOverlay_MissingFile(t *testing.T) {
	tables, err := LoadOverlay(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables != nil {
		t.Error("expected nil tables for missing file")
	}
}
