package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"menuaudit/internal/models"
)

func TestExtractItemFrequency(t *testing.T) {
	testCases := []struct {
		name string
		rule string
		want ItemFrequency
	}{
		{
			"weekly minimum, trailing count",
			"דג 4 פעמים בשבוע",
			ItemFrequency{Item: "דג", Target: 4, Cadence: CadenceWeekly, Direction: AtLeast},
		},
		{
			"monthly minimum",
			"כבד 2 פעמים בחודש",
			ItemFrequency{Item: "כבד", Target: 2, Cadence: CadenceMonthly, Direction: AtLeast},
		},
		{
			"maximum once weekly, item last",
			"מקסימום פעם בשבוע נקניקיות",
			ItemFrequency{Item: "נקניקיות", Target: 1, Cadence: CadenceWeekly, Direction: AtMost},
		},
		{
			"once weekly, item first",
			"מג'דרה פעם בשבוע",
			ItemFrequency{Item: "מג'דרה", Target: 1, Cadence: CadenceWeekly, Direction: AtLeast},
		},
		{
			"no pattern falls back to whole name",
			"אורז מלא",
			ItemFrequency{Item: "אורז מלא", Target: 1, Cadence: CadenceMonthly, Direction: AtLeast},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractItemFrequency(tc.rule))
		})
	}
}

func TestExtractDailyCount(t *testing.T) {
	testCases := []struct {
		name string
		rule string
		want DailyCount
	}{
		{
			"minimum varieties",
			"מינימום 3 סוגי סלטים ביום",
			DailyCount{Target: 3, Keyword: "סלטים", Explicit: true},
		},
		{
			"maximum portions",
			"מקסימום 2 מנות מטוגנות ביום",
			DailyCount{Target: 2, Keyword: "מטוגנות", IsMax: true, Explicit: true},
		},
		{
			"loose minimum",
			"מינימום 2 ירקות מבושלים",
			DailyCount{Target: 2, Keyword: "ירקות מבושלים", Explicit: true},
		},
		{
			"no marker defaults to presence",
			"לחם טרי",
			DailyCount{Target: 1, Keyword: "לחם טרי"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractDailyCount(tc.rule))
		})
	}
}

func TestExtractDailyKeyword(t *testing.T) {
	testCases := []struct {
		rule string
		want string
	}{
		{"ירק טרי יומי", "ירק טרי"},
		{"סלט חצילים", "חצילים"},
		{"מנת דגים", "דגים"},
		{"טחינה/חומוס", "טחינה"},
		{"לחם אחיד", "לחם אחיד"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, ExtractDailyKeyword(tc.rule), "rule %q", tc.rule)
	}
}

func TestBuildSpecDispatch(t *testing.T) {
	weekly := models.ComplianceRule{Name: "דג 4 פעמים בשבוע", RuleType: models.RuleTypeWeeklyFrequency}
	spec := BuildSpec(&weekly)
	assert.Equal(t, KindWeeklyFrequency, spec.Kind)
	assert.Equal(t, "דג", spec.Keyword)
	assert.Equal(t, 4.0, spec.Target)
	assert.Equal(t, AtLeast, spec.Direction)

	// Explicit max column wins over the name-derived minimum.
	capped := models.ComplianceRule{Name: "דג 4 פעמים בשבוע", RuleType: models.RuleTypeWeeklyFrequency, MaxPerWeek: 2}
	spec = BuildSpec(&capped)
	assert.Equal(t, 2.0, spec.Target)
	assert.Equal(t, AtMost, spec.Direction)

	// Explicit keyword column wins over the name-derived phrase.
	keyed := models.ComplianceRule{Name: "דג 4 פעמים בשבוע", RuleType: models.RuleTypeWeeklyFrequency, ItemKeyword: "סלמון"}
	assert.Equal(t, "סלמון", BuildSpec(&keyed).Keyword)

	// daily_count splits three ways on the name shape.
	minRule := models.ComplianceRule{Name: "מינימום 3 סוגי סלטים ביום", RuleType: models.RuleTypeDailyCount}
	assert.Equal(t, KindCategoryMinDaily, BuildSpec(&minRule).Kind)

	maxRule := models.ComplianceRule{Name: "מקסימום 2 מנות מטוגנות ביום", RuleType: models.RuleTypeDailyCount}
	assert.Equal(t, KindItemMaxDaily, BuildSpec(&maxRule).Kind)

	plainRule := models.ComplianceRule{Name: "ירק טרי יומי", RuleType: models.RuleTypeDailyCount}
	spec = BuildSpec(&plainRule)
	assert.Equal(t, KindDailyPresence, spec.Kind)
	assert.Equal(t, "ירק טרי", spec.Keyword)

	mandatory := models.ComplianceRule{Name: "מרק חובה", RuleType: models.RuleTypeMandatory, RequiredCategory: "מרק"}
	spec = BuildSpec(&mandatory)
	assert.Equal(t, KindLegacyMandatory, spec.Kind)
	assert.Equal(t, "מרק", spec.RequiredCategory)

	unknown := models.ComplianceRule{Name: "קטניות 3 פעמים בשבוע", RuleType: "mystery"}
	spec = BuildSpec(&unknown)
	assert.Equal(t, KindGeneric, spec.Kind)
	assert.Equal(t, CadenceWeekly, spec.Cadence)
}
