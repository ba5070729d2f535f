package taxonomy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"
)

// #region tables
// Tables is the raw, uncompiled taxonomy configuration. It is the shape both
// the built-in defaults and YAML overlays are expressed in.
type Tables struct {
	Mappings  []Mapping            `yaml:"mappings"`
	Templates map[string]string    `yaml:"templates"` // "domain:variant" -> template text
	Patterns  map[string][]Pattern `yaml:"patterns"`  // "domain:variant" -> patterns
	Ordering  []OrderingRule       `yaml:"ordering"`
	// Relevance lists, per document type, the domains that matter for it.
	Relevance map[string][]Domain `yaml:"relevance"`
}

// #endregion tables

// #region registry-struct
// Registry is the immutable Template/Pattern Store and DomainMapping table.
// It is built once at startup and safe for concurrent use by any number of
// synthesis runs; nothing in it is mutated after construction.
type Registry struct {
	mappings  map[string]Mapping
	templates map[Key]*template.Template
	sources   map[Key]string
	patterns  map[Key][]compiledPattern
	ordering  map[Domain][]OrderingRule
	relevance map[string]map[Domain]bool
}

type compiledPattern struct {
	re          *regexp.Regexp
	replacement string
	limit       int
}

// #endregion registry-struct

// #region constructor
// NewRegistry validates and compiles t into a Registry.
func NewRegistry(t Tables) (*Registry, error) {
	r := &Registry{
		mappings:  make(map[string]Mapping, len(t.Mappings)),
		templates: make(map[Key]*template.Template, len(t.Templates)),
		sources:   make(map[Key]string, len(t.Templates)),
		patterns:  make(map[Key][]compiledPattern, len(t.Patterns)),
		ordering:  make(map[Domain][]OrderingRule),
		relevance: make(map[string]map[Domain]bool, len(t.Relevance)),
	}

	for _, m := range t.Mappings {
		if m.GateID == "" {
			return nil, newError(KindConfig, "TAX-CFG-001", "mapping without gate_id")
		}
		if !m.Domain.IsValid() {
			return nil, newError(KindConfig, "TAX-CFG-002", fmt.Sprintf("gate %q: unknown domain %q", m.GateID, m.Domain))
		}
		if !m.InsertionPoint.IsValid() {
			return nil, newError(KindConfig, "TAX-CFG-003", fmt.Sprintf("gate %q: unknown insertion point %q", m.GateID, m.InsertionPoint))
		}
		if m.Variant == "" {
			return nil, newError(KindConfig, "TAX-CFG-004", fmt.Sprintf("gate %q: empty variant", m.GateID))
		}
		m.DefaultContext = copyContext(m.DefaultContext)
		r.mappings[m.GateID] = m
	}

	for raw, src := range t.Templates {
		key, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		tpl, err := template.New(key.String()).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, wrapError(KindTemplate, "TAX-TPL-001", fmt.Sprintf("template %s does not parse", key), err)
		}
		r.templates[key] = tpl
		r.sources[key] = src
	}

	for raw, list := range t.Patterns {
		key, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		compiled := make([]compiledPattern, 0, len(list))
		for i, p := range list {
			re, err := regexp.Compile(p.Expr)
			if err != nil {
				return nil, wrapError(KindPattern, "TAX-PAT-001", fmt.Sprintf("pattern %s[%d] does not compile", key, i), err)
			}
			limit := p.Limit
			if limit <= 0 {
				limit = DefaultPatternLimit
			}
			compiled = append(compiled, compiledPattern{re: re, replacement: p.Replacement, limit: limit})
		}
		r.patterns[key] = compiled
	}

	for _, rule := range t.Ordering {
		if !rule.Domain.IsValid() {
			return nil, newError(KindConfig, "TAX-CFG-005", fmt.Sprintf("ordering rule: unknown domain %q", rule.Domain))
		}
		if len(rule.Lead) == 0 || len(rule.Follow) == 0 {
			return nil, newError(KindConfig, "TAX-CFG-006", fmt.Sprintf("ordering rule for %s needs lead and follow markers", rule.Domain))
		}
		r.ordering[rule.Domain] = append(r.ordering[rule.Domain], OrderingRule{
			Domain: rule.Domain,
			Lead:   lowerAll(rule.Lead),
			Follow: lowerAll(rule.Follow),
		})
	}

	for docType, domains := range t.Relevance {
		set := make(map[Domain]bool, len(domains))
		for _, d := range domains {
			if !d.IsValid() {
				return nil, newError(KindConfig, "TAX-CFG-007", fmt.Sprintf("relevance %q: unknown domain %q", docType, d))
			}
			set[d] = true
		}
		r.relevance[strings.ToLower(docType)] = set
	}

	return r, nil
}

// ParseKey parses a "domain:variant" string.
func ParseKey(raw string) (Key, error) {
	domain, variant, ok := strings.Cut(raw, ":")
	if !ok || variant == "" {
		return Key{}, newError(KindConfig, "TAX-CFG-008", fmt.Sprintf("key %q is not domain:variant", raw))
	}
	d := Domain(domain)
	if !d.IsValid() {
		return Key{}, newError(KindConfig, "TAX-CFG-002", fmt.Sprintf("key %q: unknown domain", raw))
	}
	return Key{Domain: d, Variant: variant}, nil
}

// #endregion constructor

// #region resolve
// FallbackVariant is the variant assigned to unmapped gates. No template or
// pattern is registered for it.
const FallbackVariant = "unmapped"

// Resolve maps a gate id to its correction profile. Unknown ids resolve to
// the disclosure domain with Unmapped set; Resolve never fails.
func (r *Registry) Resolve(gateID string) Resolution {
	if m, ok := r.mappings[gateID]; ok {
		return Resolution{Mapping: m}
	}
	return Resolution{
		Mapping: Mapping{
			GateID:         gateID,
			Domain:         DomainDisclosure,
			Variant:        FallbackVariant,
			InsertionPoint: InsertEnd,
		},
		Unmapped: true,
	}
}

// GateIDs returns every mapped gate id, sorted.
func (r *Registry) GateIDs() []string {
	ids := make([]string, 0, len(r.mappings))
	for id := range r.mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModuleGates returns the mapped gate ids tagged with module, sorted.
func (r *Registry) ModuleGates(module string) []string {
	var ids []string
	for id, m := range r.mappings {
		if m.Module == module {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// #endregion resolve

// #region templates
// HasTemplate reports whether a template is registered for key.
func (r *Registry) HasTemplate(key Key) bool {
	_, ok := r.templates[key]
	return ok
}

// Render executes the template for key against the merged context:
// defaults first, then overrides. A placeholder with no value is a
// KindTemplate error.
func (r *Registry) Render(key Key, defaults, overrides map[string]string) (string, error) {
	tpl, ok := r.templates[key]
	if !ok {
		return "", newError(KindTemplate, "TAX-TPL-003", fmt.Sprintf("no template for %s", key))
	}
	ctx := MergeContext(defaults, overrides)
	var b strings.Builder
	if err := tpl.Execute(&b, ctx); err != nil {
		return "", wrapError(KindTemplate, "TAX-TPL-002", fmt.Sprintf("template %s: unresolved placeholder", key), err)
	}
	return strings.TrimSpace(b.String()), nil
}

// MergeContext returns defaults overridden by overrides. Neither input is modified.
func MergeContext(defaults, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// #endregion templates

// #region patterns
// Replacement is one bounded substitution found in a text.
type Replacement struct {
	Start int
	End   int
	Text  string
}

// FindReplacements returns the substitutions the patterns for key would make
// in text, in ascending offset order, without overlaps. Patterns are applied
// in declaration order; a later pattern never claims a range an earlier one
// already matched.
func (r *Registry) FindReplacements(key Key, text string) []Replacement {
	var out []Replacement
	for _, p := range r.patterns[key] {
		matches := p.re.FindAllStringSubmatchIndex(text, p.limit)
		for _, m := range matches {
			if m[0] == m[1] {
				continue
			}
			if overlapsAny(out, m[0], m[1]) {
				continue
			}
			dst := p.re.ExpandString(nil, p.replacement, text, m)
			if string(dst) == text[m[0]:m[1]] {
				continue
			}
			out = append(out, Replacement{Start: m[0], End: m[1], Text: string(dst)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// HasPatterns reports whether any pattern is registered for key.
func (r *Registry) HasPatterns(key Key) bool {
	return len(r.patterns[key]) > 0
}

func overlapsAny(list []Replacement, start, end int) bool {
	for _, x := range list {
		if start < x.End && x.Start < end {
			return true
		}
	}
	return false
}

// #endregion patterns

// #region ordering
// OrderingRules returns the block ordering rules for a domain.
func (r *Registry) OrderingRules(d Domain) []OrderingRule {
	return r.ordering[d]
}

// #endregion ordering

// #region relevance
// Relevant reports whether domain matters for documentType. Unknown or empty
// document types treat every domain as relevant.
func (r *Registry) Relevant(documentType string, d Domain) bool {
	set, ok := r.relevance[strings.ToLower(documentType)]
	if !ok {
		return true
	}
	return set[d]
}

// #endregion relevance

// #region helpers
func copyContext(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// #endregion helpers
