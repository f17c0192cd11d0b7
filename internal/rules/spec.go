package rules

import (
	"strings"

	"menuaudit/internal/models"
)

// Kind tags the evaluator a rule dispatches to.
type Kind int

const (
	KindWeeklyFrequency Kind = iota
	KindMonthlyFrequency
	KindCategoryMinDaily
	KindItemMaxDaily
	KindDailyPresence
	KindNoRepeatWeekly
	KindNoRepeatDaily
	KindNoConsecutive
	KindLegacyFrequency
	KindLegacyMandatory
	KindGeneric
)

// Spec is the fully resolved, strongly typed form of a compliance rule: one
// kind plus the fields that kind needs. It is populated from the rule's
// explicit parameter columns when present, falling back to the name
// interpreter, never from an untyped parameter bag.
type Spec struct {
	Kind      Kind
	Keyword   string // lowercased item or category keyword
	Target    float64
	Cadence   Cadence
	Direction Direction
	// RequiredCategory is matched against day category keys (legacy
	// mandatory rules); Keyword is matched against dish names.
	RequiredCategory string
}

// BuildSpec resolves a stored rule into its typed evaluation spec.
func BuildSpec(rule *models.ComplianceRule) Spec {
	switch rule.RuleType {
	case models.RuleTypeWeeklyFrequency:
		return frequencySpec(rule, KindWeeklyFrequency, CadenceWeekly, rule.MinPerWeek, rule.MaxPerWeek)

	case models.RuleTypeMonthlyFrequency:
		return frequencySpec(rule, KindMonthlyFrequency, CadenceMonthly, rule.MinPerMonth, rule.MaxPerMonth)

	case models.RuleTypeDailyCount:
		dc := ExtractDailyCount(rule.Name)
		keyword := keywordOverride(rule, dc.Keyword)
		switch {
		case dc.IsMax:
			return Spec{Kind: KindItemMaxDaily, Keyword: keyword, Target: float64(dc.Target), Cadence: CadenceDaily, Direction: AtMost}
		case dc.Explicit:
			return Spec{Kind: KindCategoryMinDaily, Keyword: keyword, Target: float64(dc.Target), Cadence: CadenceDaily, Direction: AtLeast}
		default:
			// No minimum/maximum marker in the name: a plain "this item,
			// every day" requirement.
			return Spec{Kind: KindDailyPresence, Keyword: keywordOverride(rule, ExtractDailyKeyword(rule.Name)), Cadence: CadenceDaily, Direction: AtLeast}
		}

	case models.RuleTypeDailyMax:
		dc := ExtractDailyCount(rule.Name)
		return Spec{Kind: KindItemMaxDaily, Keyword: keywordOverride(rule, dc.Keyword), Target: float64(dc.Target), Cadence: CadenceDaily, Direction: AtMost}

	case models.RuleTypeDailyPresence:
		return Spec{Kind: KindDailyPresence, Keyword: keywordOverride(rule, ExtractDailyKeyword(rule.Name)), Cadence: CadenceDaily, Direction: AtLeast}

	case models.RuleTypeNoRepeatWeekly:
		return Spec{Kind: KindNoRepeatWeekly, Cadence: CadenceWeekly, Direction: AtMost}

	case models.RuleTypeNoRepeatDaily:
		return Spec{Kind: KindNoRepeatDaily, Cadence: CadenceDaily, Direction: AtMost}

	case models.RuleTypeNoConsecutive:
		return Spec{Kind: KindNoConsecutive, Cadence: CadenceDaily, Direction: AtMost}

	case models.RuleTypeFrequency:
		return frequencySpec(rule, KindLegacyFrequency, CadenceWeekly, rule.MinPerWeek, rule.MaxPerWeek)

	case models.RuleTypeMandatory:
		keyword := strings.ToLower(strings.TrimSpace(rule.RequiredItem))
		if keyword == "" {
			keyword = keywordOverride(rule, ExtractDailyKeyword(rule.Name))
		}
		return Spec{
			Kind:             KindLegacyMandatory,
			Keyword:          keyword,
			RequiredCategory: strings.ToLower(strings.TrimSpace(rule.RequiredCategory)),
			Cadence:          CadenceDaily,
			Direction:        AtLeast,
		}

	default:
		freq := ExtractItemFrequency(rule.Name)
		return Spec{
			Kind:      KindGeneric,
			Keyword:   keywordOverride(rule, freq.Item),
			Target:    freq.Target,
			Cadence:   freq.Cadence,
			Direction: freq.Direction,
		}
	}
}

// frequencySpec resolves a frequency-style rule: explicit per-period columns
// win over the name-derived reading, and a max column forces the at-most
// direction.
func frequencySpec(rule *models.ComplianceRule, kind Kind, cadence Cadence, minParam, maxParam float64) Spec {
	freq := ExtractItemFrequency(rule.Name)
	spec := Spec{
		Kind:      kind,
		Keyword:   keywordOverride(rule, freq.Item),
		Target:    freq.Target,
		Cadence:   cadence,
		Direction: freq.Direction,
	}
	if maxParam > 0 {
		spec.Target = maxParam
		spec.Direction = AtMost
	} else if minParam > 0 {
		spec.Target = minParam
		spec.Direction = AtLeast
	}
	return spec
}

// keywordOverride prefers the rule's explicit item keyword column over the
// name-derived fallback. Keywords are compared lowercased everywhere.
func keywordOverride(rule *models.ComplianceRule, fallback string) string {
	if kw := strings.TrimSpace(rule.ItemKeyword); kw != "" {
		return strings.ToLower(kw)
	}
	return strings.ToLower(strings.TrimSpace(fallback))
}
