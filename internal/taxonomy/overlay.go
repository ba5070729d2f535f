package taxonomy

// overlay.go: deployment-specific taxonomy additions loaded from YAML.
//
// An overlay file has the same shape as Tables. Mappings replace built-in
// mappings with the same gate_id; templates and patterns replace built-in
// entries with the same "domain:variant" key; ordering rules are appended;
// relevance entries replace the built-in list for that document type.

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// #region load
// LoadOverlay reads an overlay file. Returns nil (not an error) if path is
// empty or the file does not exist.
func LoadOverlay(path string) (*Tables, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseOverlay(data)
}

// ParseOverlay decodes overlay YAML.
func ParseOverlay(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, wrapError(KindConfig, "TAX-CFG-009", "overlay does not decode", err)
	}
	return &t, nil
}

// #endregion load

// #region merge
// Merge returns base with overlay applied. Neither input is modified.
// A nil overlay returns a copy of base.
func Merge(base Tables, overlay *Tables) Tables {
	out := Tables{
		Templates: make(map[string]string, len(base.Templates)),
		Patterns:  make(map[string][]Pattern, len(base.Patterns)),
		Relevance: make(map[string][]Domain, len(base.Relevance)),
	}

	byGate := make(map[string]Mapping, len(base.Mappings))
	for _, m := range base.Mappings {
		byGate[m.GateID] = m
	}
	for k, v := range base.Templates {
		out.Templates[k] = v
	}
	for k, v := range base.Patterns {
		out.Patterns[k] = append([]Pattern(nil), v...)
	}
	out.Ordering = append(out.Ordering, base.Ordering...)
	for k, v := range base.Relevance {
		out.Relevance[k] = append([]Domain(nil), v...)
	}

	if overlay != nil {
		for _, m := range overlay.Mappings {
			byGate[m.GateID] = m
		}
		for k, v := range overlay.Templates {
			out.Templates[k] = v
		}
		for k, v := range overlay.Patterns {
			out.Patterns[k] = append([]Pattern(nil), v...)
		}
		out.Ordering = append(out.Ordering, overlay.Ordering...)
		for k, v := range overlay.Relevance {
			out.Relevance[k] = append([]Domain(nil), v...)
		}
	}

	gates := make([]string, 0, len(byGate))
	for g := range byGate {
		gates = append(gates, g)
	}
	sort.Strings(gates)
	out.Mappings = make([]Mapping, 0, len(gates))
	for _, g := range gates {
		m := byGate[g]
		m.DefaultContext = copyContext(m.DefaultContext)
		out.Mappings = append(out.Mappings, m)
	}
	return out
}

// Load builds a registry from the built-in tables plus the overlay at path.
func Load(path string) (*Registry, error) {
	overlay, err := LoadOverlay(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(Merge(DefaultTables(), overlay))
}

// #endregion merge
