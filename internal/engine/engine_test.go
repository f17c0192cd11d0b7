package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuaudit/internal/database"
	"menuaudit/internal/models"
	"menuaudit/internal/pipeline"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCheck(t *testing.T, db *gorm.DB) *models.MenuCheck {
	t.Helper()
	check := &models.MenuCheck{SiteID: 1, Month: "2026-02", Year: 2026}
	require.NoError(t, db.Create(check).Error)

	// Sun 2026-02-01 through Thu 2026-02-05, fish on two days only.
	menus := []map[string][]string{
		{"עיקרית": {"דג סלמון"}, "סלטים": {"סלט ירקות"}},
		{"עיקרית": {"שניצל עוף"}, "סלטים": {"סלט חצילים"}},
		{"עיקרית": {"פסטה"}, "סלטים": {"סלט כרוב"}},
		{"עיקרית": {"דג אפוי"}, "סלטים": {"סלט גזר"}},
		{"עיקרית": {"אורז"}, "סלטים": {"סלט תירס"}},
	}
	for i, items := range menus {
		date := time.Date(2026, 2, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, db.Create(&models.MenuDay{
			MenuCheckID: check.ID,
			Date:        date,
			DayOfWeek:   date.Weekday().String(),
			WeekNumber:  1,
			Items:       models.ItemsMap(items),
		}).Error)
	}
	return check
}

func TestRunCheckStoredDays(t *testing.T) {
	db := testDB(t)
	check := seedCheck(t, db)

	require.NoError(t, db.Create(&models.ComplianceRule{
		Name: "דג 4 פעמים בשבוע", RuleType: models.RuleTypeWeeklyFrequency, Priority: 1, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&models.ComplianceRule{
		Name: "סלט כל יום", RuleType: models.RuleTypeDailyPresence, ItemKeyword: "סלט", Priority: 2, IsActive: true,
	}).Error)
	// Inactive rules must not be evaluated.
	require.NoError(t, db.Create(&models.ComplianceRule{
		Name: "כבד 2 פעמים בחודש", RuleType: models.RuleTypeMonthlyFrequency, Priority: 2, IsActive: false,
	}).Error)

	eng := New(db, pipeline.NewBuilder(nil), nil, nil)
	summary, err := eng.RunCheck(context.Background(), check.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.DaysParsed)
	assert.Equal(t, 2, summary.RulesChecked)
	// Fish appears twice against a target of four; salads are daily.
	assert.Equal(t, 1, summary.CriticalFindings)
	assert.Equal(t, 1, summary.PassedRules)
	assert.Equal(t, 1, summary.TotalFindings)

	var stored models.MenuCheck
	require.NoError(t, db.First(&stored, check.ID).Error)
	assert.Equal(t, 1, stored.CriticalFindings)
	assert.Equal(t, 1, stored.PassedRules)
	assert.False(t, stored.CheckedAt.IsZero())

	var results []models.CheckResult
	require.NoError(t, db.Where("menu_check_id = ?", check.ID).Find(&results).Error)
	assert.Len(t, results, 2)
}

func TestRunCheckRerunReplacesFindings(t *testing.T) {
	db := testDB(t)
	check := seedCheck(t, db)

	require.NoError(t, db.Create(&models.ComplianceRule{
		Name: "סלט כל יום", RuleType: models.RuleTypeDailyPresence, ItemKeyword: "סלט", Priority: 2, IsActive: true,
	}).Error)

	eng := New(db, pipeline.NewBuilder(nil), nil, nil)
	_, err := eng.RunCheck(context.Background(), check.ID)
	require.NoError(t, err)
	_, err = eng.RunCheck(context.Background(), check.ID)
	require.NoError(t, err)

	// Findings are replaced per run, never accumulated.
	var count int
	require.NoError(t, db.Model(&models.CheckResult{}).Where("menu_check_id = ?", check.ID).Count(&count).Error)
	assert.Equal(t, 1, count)
}

func TestRunCheckCatalogsDishes(t *testing.T) {
	db := testDB(t)
	check := seedCheck(t, db)

	require.NoError(t, db.Create(&models.ComplianceRule{
		Name: "סלט כל יום", RuleType: models.RuleTypeDailyPresence, ItemKeyword: "סלט", Priority: 2, IsActive: true,
	}).Error)

	eng := New(db, pipeline.NewBuilder(nil), nil, nil)
	summary, err := eng.RunCheck(context.Background(), check.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.DishesCataloged)

	var salad models.DishCatalog
	require.NoError(t, db.Where("dish_name = ?", "סלט ירקות").First(&salad).Error)
	assert.Equal(t, "salads", salad.Category)
	assert.Equal(t, check.ID, salad.SourceCheckID)
	// The salad matched a passing rule's keyword.
	assert.True(t, salad.Approved)

	var main models.DishCatalog
	require.NoError(t, db.Where("dish_name = ?", "פסטה").First(&main).Error)
	assert.False(t, main.Approved)
	assert.Equal(t, "other", main.Category)

	// Re-running must not duplicate catalog entries.
	summary, err = eng.RunCheck(context.Background(), check.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.DishesCataloged)
}

func TestRunCheckApprovesNameDerivedKeyword(t *testing.T) {
	db := testDB(t)

	check := &models.MenuCheck{SiteID: 1, Month: "2026-02", Year: 2026}
	require.NoError(t, db.Create(check).Error)

	// Fish on four of five days so the weekly rule passes.
	menus := []map[string][]string{
		{"עיקרית": {"דג סלמון"}},
		{"עיקרית": {"דג אפוי"}},
		{"עיקרית": {"פסטה"}},
		{"עיקרית": {"דג מרוקאי"}},
		{"עיקרית": {"פילה דג"}},
	}
	for i, items := range menus {
		date := time.Date(2026, 2, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, db.Create(&models.MenuDay{
			MenuCheckID: check.ID,
			Date:        date,
			DayOfWeek:   date.Weekday().String(),
			WeekNumber:  1,
			Items:       models.ItemsMap(items),
		}).Error)
	}

	// No explicit ItemKeyword: the keyword lives in the rule name, and the
	// evaluator passes the rule on that same keyword.
	require.NoError(t, db.Create(&models.ComplianceRule{
		Name: "דג 4 פעמים בשבוע", RuleType: models.RuleTypeWeeklyFrequency, Priority: 1, IsActive: true,
	}).Error)

	eng := New(db, pipeline.NewBuilder(nil), nil, nil)
	summary, err := eng.RunCheck(context.Background(), check.ID)
	require.NoError(t, err)
	require.Equal(t, 1, summary.PassedRules)

	var fish models.DishCatalog
	require.NoError(t, db.Where("dish_name = ?", "דג סלמון").First(&fish).Error)
	assert.True(t, fish.Approved)

	var pasta models.DishCatalog
	require.NoError(t, db.Where("dish_name = ?", "פסטה").First(&pasta).Error)
	assert.False(t, pasta.Approved)
}

func TestRunCheckMissingCheck(t *testing.T) {
	db := testDB(t)
	eng := New(db, pipeline.NewBuilder(nil), nil, nil)

	_, err := eng.RunCheck(context.Background(), 9999)
	assert.Error(t, err)
}
