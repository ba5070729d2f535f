package finding

import (
	"sort"
)

// #region normalize
// Normalize returns the actionable findings (FAIL, WARNING) in the total order
// (module_id, gate_id). Exact duplicates are collapsed. This ordering is the
// only one the pipeline relies on.
func Normalize(findings []Finding) []Finding {
	all := SortAll(findings)
	out := make([]Finding, 0, len(all))
	for _, f := range all {
		if !f.Status.Actionable() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// NormalizeSet flattens a module/gate map and normalizes it.
func NormalizeSet(s Set) []Finding {
	return Normalize(s.Flatten())
}

// SortAll returns every finding, including non-actionable ones, in canonical
// order with exact duplicates removed. The input slice is not modified.
func SortAll(findings []Finding) []Finding {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	out := sorted[:0]
	for i, f := range sorted {
		if i > 0 && f == sorted[i-1] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// less is a total order over findings: identity first, then every remaining
// field, so two distinct findings never compare equal.
func less(a, b Finding) bool {
	if a.ModuleID != b.ModuleID {
		return a.ModuleID < b.ModuleID
	}
	if a.GateID != b.GateID {
		return a.GateID < b.GateID
	}
	if a.Status.rank() != b.Status.rank() {
		return a.Status.rank() < b.Status.rank()
	}
	if a.Status != b.Status {
		return a.Status < b.Status
	}
	if a.Severity.rank() != b.Severity.rank() {
		return a.Severity.rank() < b.Severity.rank()
	}
	if a.Severity != b.Severity {
		return a.Severity < b.Severity
	}
	if a.Message != b.Message {
		return a.Message < b.Message
	}
	return a.SuggestedText < b.SuggestedText
}

// #endregion normalize

// #region modules
// Modules returns the distinct module ids of findings, sorted.
func Modules(findings []Finding) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range findings {
		if f.ModuleID == "" || seen[f.ModuleID] {
			continue
		}
		seen[f.ModuleID] = true
		out = append(out, f.ModuleID)
	}
	sort.Strings(out)
	return out
}

// #endregion modules
