package taxonomy

import (
	"github.com/danielpatrickdp/correction-synth/internal/finding"
)

// #region default-mappings

// defaultMappings is the built-in gate -> correction profile table for the UK
// rule modules (fca_uk, gdpr_uk, tax_uk, employment_uk, consumer_uk).
var defaultMappings = []Mapping{
	// fca_uk
	{
		Module: "fca_uk", GateID: "risk_warning", Domain: DomainRiskWarning, Variant: "capital_at_risk",
		InsertionPoint: InsertSection,
		DefaultContext: map[string]string{"product": "investment"},
		LegalCitation:  "FCA COBS 4.5A.3R", SeverityDefault: finding.SeverityCritical,
	},
	{
		Module: "fca_uk", GateID: "misleading_claims", Domain: DomainRiskWarning, Variant: "misleading_claims",
		InsertionPoint: InsertSection,
		LegalCitation:  "FCA COBS 4.2.1R", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "fca_uk", GateID: "risk_prominence", Domain: DomainRiskWarning, Variant: "prominence",
		InsertionPoint: InsertSection,
		LegalCitation:  "FCA COBS 4.5A.3R(2)", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "fca_uk", GateID: "past_performance", Domain: DomainDisclosure, Variant: "past_performance",
		InsertionPoint: InsertEnd,
		LegalCitation:  "FCA COBS 4.6.2R", SeverityDefault: finding.SeverityMedium,
	},
	{
		Module: "fca_uk", GateID: "regulatory_status", Domain: DomainDisclosure, Variant: "regulatory_status",
		InsertionPoint: InsertEnd,
		DefaultContext: map[string]string{"firm_name": "The firm"},
		LegalCitation:  "FCA GEN 4.3R", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "fca_uk", GateID: "complaints", Domain: DomainProcedure, Variant: "complaints_fos",
		InsertionPoint: InsertBeforeSignature,
		DefaultContext: map[string]string{"firm_name": "us"},
		LegalCitation:  "FCA DISP 1.2.1R", SeverityDefault: finding.SeverityMedium,
	},

	// gdpr_uk
	{
		Module: "gdpr_uk", GateID: "consent", Domain: DomainConsent, Variant: "explicit_consent",
		InsertionPoint: InsertSection,
		DefaultContext: map[string]string{
			"purpose": "the purposes described in this notice",
			"contact": "us",
		},
		LegalCitation: "UK GDPR Art. 6(1)(a), Art. 7", SeverityDefault: finding.SeverityCritical,
	},
	{
		Module: "gdpr_uk", GateID: "consent_order", Domain: DomainConsent, Variant: "prominence",
		InsertionPoint: InsertSection,
		LegalCitation:  "UK GDPR Art. 7(2)", SeverityDefault: finding.SeverityMedium,
	},
	{
		Module: "gdpr_uk", GateID: "cookies", Domain: DomainConsent, Variant: "cookie_consent",
		InsertionPoint: InsertEnd,
		LegalCitation:  "PECR reg. 6", SeverityDefault: finding.SeverityMedium,
	},
	{
		Module: "gdpr_uk", GateID: "lawful_basis", Domain: DomainDisclosure, Variant: "lawful_basis",
		InsertionPoint: InsertSection,
		DefaultContext: map[string]string{"lawful_basis": "your consent or our legitimate interests"},
		LegalCitation:  "UK GDPR Art. 13(1)(c)", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "gdpr_uk", GateID: "data_subject_rights", Domain: DomainProcedure, Variant: "data_subject_rights",
		InsertionPoint: InsertEnd,
		DefaultContext: map[string]string{"contact": "us"},
		LegalCitation:  "UK GDPR Arts. 15-22", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "gdpr_uk", GateID: "retention", Domain: DomainLimitation, Variant: "retention_period",
		InsertionPoint: InsertEnd,
		DefaultContext: map[string]string{"retention_period": "is necessary for the purposes for which it was collected"},
		LegalCitation:  "UK GDPR Art. 5(1)(e), Art. 13(2)(a)", SeverityDefault: finding.SeverityMedium,
	},
	{
		Module: "gdpr_uk", GateID: "controller_identity", Domain: DomainDisclosure, Variant: "controller_identity",
		InsertionPoint: InsertBeforeSignature,
		LegalCitation:  "UK GDPR Art. 13(1)(a)", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "gdpr_uk", GateID: "international_transfers", Domain: DomainDisclosure, Variant: "international_transfers",
		InsertionPoint: InsertEnd,
		LegalCitation:  "UK GDPR Art. 13(1)(f)", SeverityDefault: finding.SeverityMedium,
	},

	// tax_uk
	{
		Module: "tax_uk", GateID: "vat_threshold", Domain: DomainDisclosure, Variant: "vat_threshold",
		InsertionPoint: InsertEnd,
		LegalCitation:  "VATA 1994 Sch. 1 para. 1", SeverityDefault: finding.SeverityMedium,
	},
	{
		Module: "tax_uk", GateID: "vat_deregistration", Domain: DomainDisclosure, Variant: "vat_deregistration",
		InsertionPoint: InsertEnd,
		LegalCitation:  "VATA 1994 Sch. 1 para. 4", SeverityDefault: finding.SeverityLow,
	},
	{
		Module: "tax_uk", GateID: "making_tax_digital", Domain: DomainProcedure, Variant: "digital_records",
		InsertionPoint: InsertEnd,
		LegalCitation:  "VAT Regulations 1995 reg. 32A", SeverityDefault: finding.SeverityMedium,
	},
	{
		Module: "tax_uk", GateID: "vat_number", Domain: DomainDisclosure, Variant: "vat_number",
		InsertionPoint: InsertBeforeSignature,
		LegalCitation:  "VAT Regulations 1995 reg. 14(1)", SeverityDefault: finding.SeverityMedium,
	},

	// employment_uk
	{
		Module: "employment_uk", GateID: "notice_period", Domain: DomainProcedure, Variant: "statutory_notice",
		InsertionPoint: InsertSection,
		LegalCitation:  "Employment Rights Act 1996 s.86", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "employment_uk", GateID: "holiday_entitlement", Domain: DomainDefinition, Variant: "holiday_entitlement",
		InsertionPoint: InsertSection,
		LegalCitation:  "Working Time Regulations 1998 regs. 13, 13A", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "employment_uk", GateID: "minimum_wage", Domain: DomainDisclosure, Variant: "national_living_wage",
		InsertionPoint: InsertEnd,
		LegalCitation:  "National Minimum Wage Regulations 2015", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "employment_uk", GateID: "right_to_work", Domain: DomainProcedure, Variant: "right_to_work",
		InsertionPoint: InsertEnd,
		LegalCitation:  "Immigration, Asylum and Nationality Act 2006 s.15", SeverityDefault: finding.SeverityMedium,
	},

	// consumer_uk
	{
		Module: "consumer_uk", GateID: "cancellation_rights", Domain: DomainProcedure, Variant: "cooling_off",
		InsertionPoint: InsertBeforeSignature,
		LegalCitation:  "Consumer Contracts Regulations 2013 reg. 29", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "consumer_uk", GateID: "unfair_terms", Domain: DomainLimitation, Variant: "liability_exclusion",
		InsertionPoint: InsertEnd,
		LegalCitation:  "Consumer Rights Act 2015 s.65", SeverityDefault: finding.SeverityHigh,
	},
	{
		Module: "consumer_uk", GateID: "price_transparency", Domain: DomainDisclosure, Variant: "total_price",
		InsertionPoint: InsertEnd,
		LegalCitation:  "Consumer Protection from Unfair Trading Regulations 2008 reg. 6", SeverityDefault: finding.SeverityMedium,
	},
	{
		Module: "consumer_uk", GateID: "key_definitions", Domain: DomainDefinition, Variant: "key_terms",
		InsertionPoint: InsertSection,
		DefaultContext: map[string]string{"trader": "we", "consumer": "you"},
		LegalCitation:  "Consumer Rights Act 2015 s.2", SeverityDefault: finding.SeverityLow,
	},
}

// #endregion default-mappings

// #region default-templates

var defaultTemplates = map[string]string{
	"risk_warning:capital_at_risk": "Risk warning: the value of your {{.product}} can go down as well as up " +
		"and you may get back less than you invest. Your capital is at risk.",
	"risk_warning:misleading_claims": "Returns are not guaranteed. Any projections are illustrative only " +
		"and do not indicate future performance.",
	"disclosure:past_performance": "Past performance is not a reliable indicator of future results.",
	"disclosure:regulatory_status": "{{.firm_name}} is authorised and regulated by the Financial Conduct " +
		"Authority (FRN {{.frn}}).",
	"procedure:complaints_fos": "If you are unhappy with our service, please complain to {{.firm_name}} first. " +
		"If we cannot resolve your complaint, you may refer it to the Financial Ombudsman Service free of charge.",

	"consent:explicit_consent": "We will only process your personal data for {{.purpose}} with your explicit " +
		"consent, which you may withdraw at any time by contacting {{.contact}}.",
	"consent:cookie_consent": "Non-essential cookies are only set after you give your consent, which you can " +
		"change at any time in your cookie settings.",
	"disclosure:lawful_basis": "We process your personal data on the basis of {{.lawful_basis}}.",
	"procedure:data_subject_rights": "You have the right to access, rectify, erase and port your personal data, " +
		"and to restrict or object to its processing. To exercise these rights, contact {{.contact}}. You may " +
		"also complain to the Information Commissioner's Office.",
	"limitation:retention_period": "We retain personal data for no longer than {{.retention_period}}.",
	"disclosure:controller_identity": "The data controller is {{.controller_name}}, {{.controller_address}}.",
	"disclosure:international_transfers": "Where personal data is transferred outside the UK, we rely on " +
		"adequacy regulations or appropriate safeguards such as the International Data Transfer Agreement.",

	"disclosure:vat_threshold": "VAT registration is required once taxable turnover exceeds £90,000 in any " +
		"rolling 12-month period.",
	"disclosure:vat_deregistration": "A business may apply to deregister for VAT if taxable turnover is " +
		"expected to fall below £88,000 in the next 12 months.",
	"procedure:digital_records": "VAT records are kept digitally and VAT returns are submitted using " +
		"Making Tax Digital compatible software.",
	"disclosure:vat_number": "VAT registration number: {{.vat_number}}.",

	"procedure:statutory_notice": "Either party may terminate employment by giving written notice of not less " +
		"than the statutory minimum: one week after one month's service, rising by one week for each complete " +
		"year of service up to twelve weeks.",
	"definition:holiday_entitlement": "The employee is entitled to 5.6 weeks' paid annual leave in each " +
		"holiday year, inclusive of bank holidays.",
	"disclosure:national_living_wage": "Pay will be no less than the National Living Wage in force from time to time.",
	"procedure:right_to_work": "Employment is conditional on the employee providing evidence of the right to " +
		"work in the UK before the start date.",

	"procedure:cooling_off": "You have the right to cancel this contract within 14 days without giving any " +
		"reason. The cancellation period expires 14 days after the day the goods are delivered.",
	"limitation:liability_exclusion": "Nothing in these terms limits or excludes our liability for death or " +
		"personal injury caused by our negligence, for fraud, or for any liability that cannot be excluded by law.",
	"disclosure:total_price": "All prices shown include VAT and any other charges. Delivery costs are stated " +
		"before you place your order.",
	"definition:key_terms": "In these terms, \"{{.trader}}\" means the seller and \"{{.consumer}}\" means the " +
		"individual buying for purposes outside their trade, business, craft or profession.",
}

// #endregion default-templates

// #region default-patterns

var defaultPatterns = map[string][]Pattern{
	"consent:explicit_consent": {
		{Expr: `(?i)\b(?:you )?automatically agrees? to\b`, Replacement: "you will be asked for your explicit consent to"},
		{Expr: `(?i)\bconsent is implied\b`, Replacement: "explicit consent is required"},
	},
	"consent:cookie_consent": {
		{Expr: `(?i)\bcookies are (?:set|placed) automatically\b`, Replacement: "cookies are only set with your consent"},
	},
	"risk_warning:misleading_claims": {
		{Expr: `(?i)\bguaranteed (returns?|profits?)\b`, Replacement: "target $1 (not guaranteed)"},
		{Expr: `(?i)\brisk[- ]free\b`, Replacement: "lower-risk"},
	},
	"disclosure:vat_threshold": {
		{Expr: `£\s?85,000`, Replacement: "£90,000"},
		{Expr: `£\s?85k\b`, Replacement: "£90k"},
	},
	"disclosure:vat_deregistration": {
		{Expr: `£\s?83,000`, Replacement: "£88,000"},
	},
	"definition:holiday_entitlement": {
		{Expr: `(?i)\b(?:4|four) weeks'? paid (?:annual )?(?:leave|holiday)\b`, Replacement: "5.6 weeks' paid annual leave"},
	},
	"disclosure:national_living_wage": {
		{Expr: `£\s?11\.44`, Replacement: "£12.21"},
	},
	"procedure:cooling_off": {
		{Expr: `(?i)\ball sales are final\b`, Replacement: "you may cancel within 14 days of delivery"},
	},
	"limitation:liability_exclusion": {
		{
			Expr:        `(?i)\bwe accept no liability (?:whatsoever|of any kind)\b`,
			Replacement: "we do not exclude liability that cannot be excluded by law",
			Limit:       1,
		},
	},
}

// #endregion default-patterns

// #region default-ordering

var defaultOrdering = []OrderingRule{
	{
		Domain: DomainRiskWarning,
		Lead:   []string{"risk warning", "capital is at risk", "may lose", "can go down", "get back less"},
		Follow: []string{"returns", "profit", "growth", "earn", "yield", "benefit"},
	},
	{
		Domain: DomainConsent,
		Lead:   []string{"consent"},
		Follow: []string{"we collect", "data we collect", "information we collect"},
	},
}

// #endregion default-ordering

// #region default-relevance

var defaultRelevance = map[string][]Domain{
	"privacy_policy":      {DomainConsent, DomainDisclosure, DomainProcedure, DomainDefinition, DomainLimitation},
	"financial_promotion": {DomainRiskWarning, DomainDisclosure, DomainLimitation, DomainProcedure},
	"employment_contract": {DomainProcedure, DomainDefinition, DomainLimitation, DomainDisclosure},
	"terms_of_service":    {DomainDisclosure, DomainProcedure, DomainDefinition, DomainLimitation, DomainConsent},
	"invoice":             {DomainDisclosure},
}

// #endregion default-relevance

// #region defaults

// DefaultTables returns a fresh copy of the built-in taxonomy tables.
func DefaultTables() Tables {
	t := Tables{
		Mappings:  make([]Mapping, len(defaultMappings)),
		Templates: make(map[string]string, len(defaultTemplates)),
		Patterns:  make(map[string][]Pattern, len(defaultPatterns)),
		Ordering:  make([]OrderingRule, len(defaultOrdering)),
		Relevance: make(map[string][]Domain, len(defaultRelevance)),
	}
	for i, m := range defaultMappings {
		m.DefaultContext = copyContext(m.DefaultContext)
		t.Mappings[i] = m
	}
	for k, v := range defaultTemplates {
		t.Templates[k] = v
	}
	for k, v := range defaultPatterns {
		t.Patterns[k] = append([]Pattern(nil), v...)
	}
	copy(t.Ordering, defaultOrdering)
	for k, v := range defaultRelevance {
		t.Relevance[k] = append([]Domain(nil), v...)
	}
	return t
}

// Default builds the registry from the built-in tables. The tables are
// covered by tests, so a failure here is a programming error.
func Default() *Registry {
	r, err := NewRegistry(DefaultTables())
	if err != nil {
		panic("taxonomy: built-in tables invalid: " + err.Error())
	}
	return r
}

// #endregion defaults
