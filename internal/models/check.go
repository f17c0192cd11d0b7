package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// MenuCheck represents one compliance run over a (site, month, year) menu.
// Totals and variance tallies are recomputed in full on every run; a check is
// never partially updated.
type MenuCheck struct {
	gorm.Model
	SiteID uint   `gorm:"index"`
	Month  string `gorm:"not null"` // "2026-02"
	Year   int    `gorm:"not null"`

	FilePath  string
	CheckedAt time.Time

	TotalFindings    int
	CriticalFindings int
	Warnings         int
	PassedRules      int

	// Distribution of the above/under/even comparison label across findings
	DishesAbove int
	DishesUnder int
	DishesEven  int

	Days    []MenuDay     `gorm:"foreignkey:MenuCheckID"`
	Results []CheckResult `gorm:"foreignkey:MenuCheckID"`
}

// TableName sets the table name for MenuCheck
func (MenuCheck) TableName() string {
	return "menu_checks"
}

// MenuDay is one calendar day of structured menu content belonging to a check.
// The full day set of a check is replaced atomically when a fresh parse
// succeeds; otherwise the stored set is reused unchanged.
type MenuDay struct {
	gorm.Model
	MenuCheckID uint `gorm:"index;not null"`

	Date      time.Time `gorm:"not null"`
	DayOfWeek string    // Sunday, Monday, ...
	// Week-of-month, 1-based; incremented whenever the ISO week number
	// changes between consecutive stored days.
	WeekNumber int

	IsHoliday  bool
	IsThemeDay bool

	Items ItemsMap `gorm:"type:text"`
}

// TableName sets the table name for MenuDay
func (MenuDay) TableName() string {
	return "menu_days"
}

// Result severities
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// CheckResult is the outcome of evaluating one rule against one check.
// Rule name and category are copied at evaluation time, not referenced live,
// so findings stay readable after a rule is edited or deactivated.
type CheckResult struct {
	gorm.Model
	MenuCheckID uint `gorm:"index;not null"`

	RuleName     string `gorm:"not null"`
	RuleCategory string

	Passed      bool
	Severity    string
	FindingText string  `gorm:"type:text"`
	Evidence    JSONMap `gorm:"type:text"`

	MatchingDays StringSlice `gorm:"type:text"`
	MissingDays  StringSlice `gorm:"type:text"`

	Reviewed     bool
	ReviewStatus string
	ReviewNotes  string `gorm:"type:text"`
}

// TableName sets the table name for CheckResult
func (CheckResult) TableName() string {
	return "check_results"
}
