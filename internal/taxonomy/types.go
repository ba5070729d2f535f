package taxonomy

import (
	"github.com/danielpatrickdp/correction-synth/internal/finding"
)

// #region domain
// Domain is a semantic correction category.
type Domain string

const (
	DomainRiskWarning Domain = "risk_warning"
	DomainDisclosure  Domain = "disclosure"
	DomainProcedure   Domain = "procedure"
	DomainDefinition  Domain = "definition"
	DomainConsent     Domain = "consent"
	DomainLimitation  Domain = "limitation"
)

// AllDomains returns every domain in declaration order.
func AllDomains() []Domain {
	return []Domain{
		DomainRiskWarning,
		DomainDisclosure,
		DomainProcedure,
		DomainDefinition,
		DomainConsent,
		DomainLimitation,
	}
}

// IsValid reports whether d is one of the six known domains.
func (d Domain) IsValid() bool {
	switch d {
	case DomainRiskWarning, DomainDisclosure, DomainProcedure,
		DomainDefinition, DomainConsent, DomainLimitation:
		return true
	default:
		return false
	}
}

// #endregion domain

// #region insertion-point
// InsertionPoint is the structural location inserted text is placed at.
type InsertionPoint string

const (
	InsertStart           InsertionPoint = "start"
	InsertSection         InsertionPoint = "section"
	InsertBeforeSignature InsertionPoint = "before_signature"
	InsertEnd             InsertionPoint = "end"
)

// IsValid reports whether p is a known insertion point.
func (p InsertionPoint) IsValid() bool {
	switch p {
	case InsertStart, InsertSection, InsertBeforeSignature, InsertEnd:
		return true
	default:
		return false
	}
}

// #endregion insertion-point

// #region mapping
// Mapping is the static correction profile for one gate.
type Mapping struct {
	// Module is the rule module that reports the gate. Optional; it scopes
	// pattern re-scans to the modules a caller asks for.
	Module          string            `yaml:"module"`
	GateID          string            `yaml:"gate_id"`
	Domain          Domain            `yaml:"domain"`
	Variant         string            `yaml:"variant"`
	InsertionPoint  InsertionPoint    `yaml:"insertion_point"`
	DefaultContext  map[string]string `yaml:"default_context"`
	LegalCitation   string            `yaml:"legal_citation"`
	SeverityDefault finding.Severity  `yaml:"severity_default"`
}

// Key returns the (domain, variant) key used by templates and patterns.
func (m Mapping) Key() Key {
	return Key{Domain: m.Domain, Variant: m.Variant}
}

// Key addresses templates and patterns.
type Key struct {
	Domain  Domain
	Variant string
}

func (k Key) String() string {
	return string(k.Domain) + ":" + k.Variant
}

// Resolution is the result of resolving a gate id.
type Resolution struct {
	Mapping
	// Unmapped is set when the gate id was unknown and the fallback was used.
	Unmapped bool
}

// #endregion mapping

// #region pattern
// Pattern is a bounded find-and-replace rule. Expr is a Go regular expression;
// Replacement may use $1-style group references.
type Pattern struct {
	Expr        string `yaml:"expr"`
	Replacement string `yaml:"replacement"`
	// Limit caps replacements per application; zero means DefaultPatternLimit.
	Limit int `yaml:"limit"`
}

// DefaultPatternLimit bounds a pattern with no explicit limit.
const DefaultPatternLimit = 3

// #endregion pattern

// #region ordering-rule
// OrderingRule requires a block carrying any Lead marker to precede every
// block carrying a Follow marker. Markers are matched case-insensitively.
type OrderingRule struct {
	Domain Domain   `yaml:"domain"`
	Lead   []string `yaml:"lead"`
	Follow []string `yaml:"follow"`
}

// #endregion ordering-rule
