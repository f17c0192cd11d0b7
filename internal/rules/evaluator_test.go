package rules

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuaudit/internal/models"
)

// week of Sun 2026-02-01 through Thu 2026-02-05
func testWeek(items ...map[string][]string) []Day {
	days := make([]Day, len(items))
	for i, m := range items {
		date := time.Date(2026, 2, 1+i, 0, 0, 0, 0, time.UTC)
		days[i] = Day{Date: date, Weekday: date.Weekday().String(), Items: m}
	}
	return days
}

func TestEvaluateWeeklyMinimumFrequency(t *testing.T) {
	rule := models.ComplianceRule{Name: "דג 4 פעמים בשבוע", RuleType: models.RuleTypeWeeklyFrequency, Priority: 1}
	rule.ID = 7

	days := testWeek(
		map[string][]string{"עיקרית": {"דג סלמון", "פילה דג", "שניצל"}},
		map[string][]string{"עיקרית": {"דג מרוקאי"}},
		map[string][]string{"עיקרית": {"פסטה"}},
		map[string][]string{"עיקרית": {"דג אפוי", "דג ברוטב"}},
		map[string][]string{"עיקרית": {"קציצות דגים", "אורז"}},
	)

	results := EvaluateAll([]models.ComplianceRule{rule}, days)
	assert.Len(t, results, 1)

	res := results[0]
	// One catering week, so the weekly target stays 4. Six dish names
	// contain the keyword, including the plural form.
	assert.Equal(t, 4, res.Expected)
	assert.Equal(t, 6, res.Actual)
	assert.True(t, res.Passed)
	assert.Equal(t, ComparisonAbove, res.Comparison)
	assert.Equal(t, models.SeverityCritical, res.Severity)

	ev := res.Evidence()
	assert.Equal(t, uint(7), ev["rule_id"])
	assert.Equal(t, 6, ev["actual_count"])
}

func TestEvaluateWeeklyMaximumFrequency(t *testing.T) {
	rule := models.ComplianceRule{Name: "מקסימום פעם בשבוע נקניקיות", RuleType: models.RuleTypeWeeklyFrequency, Priority: 1}

	days := testWeek(
		map[string][]string{"עיקרית": {"נקניקיות בתנור"}},
		map[string][]string{"עיקרית": {"שניצל"}},
		map[string][]string{"עיקרית": {"נקניקיות ברוטב"}},
		map[string][]string{"עיקרית": {"אורז"}},
		map[string][]string{"עיקרית": {"פסטה"}},
	)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	assert.Equal(t, 1, res.Expected)
	assert.Equal(t, 2, res.Actual)
	assert.False(t, res.Passed)
	assert.Equal(t, ComparisonAbove, res.Comparison)
	assert.Contains(t, res.FindingText, "at most 1")
}

func TestEvaluateCategoryMinDaily(t *testing.T) {
	rule := models.ComplianceRule{Name: "מינימום 3 סוגי סלטים ביום", RuleType: models.RuleTypeDailyCount, Priority: 2}

	salads := func(n int) map[string][]string {
		names := []string{"סלט ירקות", "סלט חצילים", "סלט כרוב", "סלט גזר"}
		return map[string][]string{"סלטים": names[:n]}
	}

	// averages exactly 3.0 across the week
	days := testWeek(salads(3), salads(3), salads(2), salads(4), salads(3))

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	assert.Equal(t, 3, res.Expected)
	assert.Equal(t, 3, res.Actual)
	assert.True(t, res.Passed)
	assert.Equal(t, ComparisonEven, res.Comparison)
	assert.Equal(t, models.SeverityWarning, res.Severity)
}

func TestEvaluateItemMaxDaily(t *testing.T) {
	rule := models.ComplianceRule{Name: "מקסימום 2 מנות מטוגנות ביום", RuleType: models.RuleTypeDailyCount, ItemKeyword: "מטוגן", Priority: 2}

	days := testWeek(
		map[string][]string{"תוספות": {"צ'יפס מטוגן"}},
		map[string][]string{"תוספות": {"שניצל מטוגן", "סיגר מטוגן", "פלאפל מטוגן"}},
		map[string][]string{"תוספות": {"אורז"}},
		map[string][]string{"תוספות": {"פירה"}},
		map[string][]string{"תוספות": {"קוסקוס"}},
	)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	// The peak day carries three fried dishes against a cap of two.
	assert.Equal(t, 2, res.Expected)
	assert.Equal(t, 3, res.Actual)
	assert.False(t, res.Passed)
	assert.Equal(t, ComparisonAbove, res.Comparison)
}

func TestEvaluateDailyPresence(t *testing.T) {
	rule := models.ComplianceRule{Name: "ירק טרי יומי", RuleType: models.RuleTypeDailyPresence, Priority: 1}

	days := testWeek(
		map[string][]string{"ירקות": {"ירק טרי עונתי"}},
		map[string][]string{"ירקות": {"ירק טרי עונתי"}},
		map[string][]string{"עיקרית": {"שניצל"}},
		map[string][]string{"ירקות": {"ירק טרי עונתי"}},
		map[string][]string{"ירקות": {"ירק טרי עונתי"}},
	)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	assert.Equal(t, 5, res.Expected)
	assert.Equal(t, 4, res.Actual)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"2026-02-03"}, res.MissingDays)
}

func TestEvaluateNoRepeatWeekly(t *testing.T) {
	rule := models.ComplianceRule{Name: "ללא חזרה על מנה עיקרית באותו שבוע", RuleType: models.RuleTypeNoRepeatWeekly, Priority: 2}

	days := testWeek(
		map[string][]string{"עיקרית": {"שניצל"}},
		map[string][]string{"עיקרית": {"פסטה"}},
		map[string][]string{"עיקרית": {"שניצל"}},
		map[string][]string{"עיקרית": {"אורז"}},
		map[string][]string{"עיקרית": {"שניצל"}},
	)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	// Sunday Feb 1 sits in the previous ISO week, so only the Tuesday and
	// Thursday servings repeat within one week.
	assert.Equal(t, 0, res.Expected)
	assert.Equal(t, 1, res.Actual)
	assert.False(t, res.Passed)
}

func TestEvaluateNoRepeatDaily(t *testing.T) {
	rule := models.ComplianceRule{Name: "ללא כפילות מנות ביום", RuleType: models.RuleTypeNoRepeatDaily, Priority: 2}

	days := testWeek(
		map[string][]string{"עיקרית": {"שניצל"}, "תוספות": {"שניצל"}},
		map[string][]string{"עיקרית": {"פסטה"}},
		map[string][]string{"עיקרית": {"אורז"}},
		map[string][]string{"עיקרית": {"קוסקוס"}},
		map[string][]string{"עיקרית": {"דג"}},
	)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	// The same dish listed under two categories on one day counts once.
	assert.Equal(t, 1, res.Actual)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"2026-02-01"}, res.MatchingDays)
}

func TestEvaluateNoConsecutive(t *testing.T) {
	rule := models.ComplianceRule{Name: "ללא מנה זהה יומיים ברצף", RuleType: models.RuleTypeNoConsecutive, Priority: 2}

	days := testWeek(
		map[string][]string{"עיקרית": {"שניצל", "אורז"}},
		map[string][]string{"עיקרית": {"אורז"}, "תוספות": {"אורז"}},
		map[string][]string{"עיקרית": {"פסטה"}},
		map[string][]string{"עיקרית": {"פסטה"}},
		map[string][]string{"עיקרית": {"דג"}},
	)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	// Overlap counts per dish name, once per consecutive pair.
	assert.Equal(t, 2, res.Actual)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"2026-02-02", "2026-02-04"}, res.MatchingDays)
}

func TestEvaluateMandatoryCategory(t *testing.T) {
	rule := models.ComplianceRule{Name: "מרק חובה", RuleType: models.RuleTypeMandatory, RequiredCategory: "מרק", Priority: 1}

	days := testWeek(
		map[string][]string{"מרק": {"מרק עדשים"}},
		map[string][]string{"מרק": {"מרק ירקות"}},
		map[string][]string{"מרק": {"מרק עוף"}},
		map[string][]string{"מרק": {"מרק כתום"}},
		map[string][]string{"מרק": {"מרק שעועית"}},
	)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	assert.True(t, res.Passed)
	assert.Equal(t, ComparisonEven, res.Comparison)
}

// fullMonth builds the 20 working days (Sun-Thu) of February 2026.
func fullMonth(itemsFor func(i int) map[string][]string) []Day {
	var days []Day
	i := 0
	for d := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC); d.Month() == time.February; d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Friday || wd == time.Saturday {
			continue
		}
		days = append(days, Day{Date: d, Weekday: wd.String(), Items: itemsFor(i)})
		i++
	}
	return days
}

func TestEvaluateMaxOnceWeeklyFullMonth(t *testing.T) {
	rule := models.ComplianceRule{Name: "מקסימום פעם בשבוע נקניקיות", RuleType: models.RuleTypeWeeklyFrequency, Priority: 1}

	// 20 working days, sausages served on 6 of them. Weekly cap of one
	// scales to round(1 * 20/5) = 4 for the month.
	days := fullMonth(func(i int) map[string][]string {
		if i < 6 {
			return map[string][]string{"עיקרית": {"נקניקיות בתנור"}}
		}
		return map[string][]string{"עיקרית": {"שניצל"}}
	})
	require.Len(t, days, 20)

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	assert.Equal(t, 4, res.Expected)
	assert.Equal(t, 6, res.Actual)
	assert.Equal(t, ComparisonAbove, res.Comparison)
	assert.False(t, res.Passed)
}

func TestEvaluateSaladAverageFullMonth(t *testing.T) {
	rule := models.ComplianceRule{Name: "מינימום 11 סוגי סלטים ביום", RuleType: models.RuleTypeDailyCount, Priority: 2}

	// Exactly 11 salad varieties every day: average 11.0, right on target.
	days := fullMonth(func(i int) map[string][]string {
		salads := make([]string, 11)
		for j := range salads {
			salads[j] = fmt.Sprintf("סלט מספר %d", j+1)
		}
		return map[string][]string{"סלטים": salads}
	})

	res := EvaluateAll([]models.ComplianceRule{rule}, days)[0]
	assert.Equal(t, 11, res.Expected)
	assert.Equal(t, 11, res.Actual)
	assert.True(t, res.Passed)
	assert.Equal(t, ComparisonEven, res.Comparison)
}

func TestEvaluateZeroDays(t *testing.T) {
	rule := models.ComplianceRule{Name: "דג 4 פעמים בשבוע", RuleType: models.RuleTypeWeeklyFrequency, Priority: 1}

	res := EvaluateAll([]models.ComplianceRule{rule}, nil)[0]
	assert.False(t, res.Passed)
	assert.Equal(t, 0, res.Expected)
	assert.Equal(t, 0, res.Actual)
	assert.Equal(t, ComparisonEven, res.Comparison)
	assert.Equal(t, "No menu days found to check against this rule.", res.FindingText)
}

func TestCompareLabel(t *testing.T) {
	assert.Equal(t, ComparisonAbove, compareLabel(5, 4))
	assert.Equal(t, ComparisonUnder, compareLabel(3, 4))
	assert.Equal(t, ComparisonEven, compareLabel(4, 4))
}
