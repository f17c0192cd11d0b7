package models

import (
	"github.com/jinzhu/gorm"
)

// Rule type tags. The first eight are the structured kinds; "frequency" and
// "mandatory" are legacy tags carried over from the old 56-rule system, where
// semantics live in explicit parameter columns instead of the rule name.
const (
	RuleTypeWeeklyFrequency  = "item_frequency_weekly"
	RuleTypeMonthlyFrequency = "item_frequency_monthly"
	RuleTypeDailyCount       = "daily_count"
	RuleTypeDailyMax         = "daily_max"
	RuleTypeDailyPresence    = "item_daily"
	RuleTypeNoRepeatWeekly   = "no_repeat_weekly"
	RuleTypeNoRepeatDaily    = "no_repeat_daily"
	RuleTypeNoConsecutive    = "no_consecutive"
	RuleTypeFrequency        = "frequency"
	RuleTypeMandatory        = "mandatory"
)

// ComplianceRule is a named policy check. The name is natural-language Hebrew
// policy prose ("מינימום 11 סוגי סלטים ביום") and carries encoded semantics;
// the typed parameter columns below override name-derived semantics when set
// (zero means unset). Rules are configured once and reused across checks;
// evaluation never mutates them.
type ComplianceRule struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	RuleType    string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Category    string // Dietary, Menu Variety, Daily Requirements

	// Structured parameter overrides
	ItemKeyword      string
	MinPerWeek       float64
	MaxPerWeek       float64
	MinPerMonth      float64
	MaxPerMonth      float64
	RequiredCategory string
	RequiredItem     string

	// 1 = critical severity, anything above is a warning
	Priority int `gorm:"default:1"`
	// No schema default: gorm v1 omits zero-value fields on insert, so a
	// column default of true would silently reactivate rules created with
	// IsActive false. Callers set the flag explicitly.
	IsActive bool
}

// TableName sets the table name for ComplianceRule
func (ComplianceRule) TableName() string {
	return "compliance_rules"
}

// SeverityLabel maps the rule priority onto a finding severity.
func (r *ComplianceRule) SeverityLabel() string {
	if r.Priority <= 1 {
		return SeverityCritical
	}
	return SeverityWarning
}
