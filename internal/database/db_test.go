package database

import (
	"path/filepath"
	"testing"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuaudit/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// A rule created with IsActive false must stay inactive. gorm v1 drops
// zero-value fields on insert, so a schema default of true would flip it.
func TestInactiveRuleRoundTrip(t *testing.T) {
	db := testDB(t)

	rule := models.ComplianceRule{
		Name:     "כבד 2 פעמים בחודש",
		RuleType: models.RuleTypeMonthlyFrequency,
		Priority: 2,
		IsActive: false,
	}
	require.NoError(t, db.Create(&rule).Error)

	var stored models.ComplianceRule
	require.NoError(t, db.First(&stored, rule.ID).Error)
	assert.False(t, stored.IsActive)

	var active []models.ComplianceRule
	require.NoError(t, db.Where("is_active = ?", true).Find(&active).Error)
	assert.Empty(t, active)
}

func TestSeedRulesOnlyWhenEmpty(t *testing.T) {
	db := testDB(t)

	require.NoError(t, SeedRules(db))
	var count int
	require.NoError(t, db.Model(&models.ComplianceRule{}).Count(&count).Error)
	assert.Equal(t, len(defaultRules()), count)

	// Seeded rules are all active.
	var active int
	require.NoError(t, db.Model(&models.ComplianceRule{}).Where("is_active = ?", true).Count(&active).Error)
	assert.Equal(t, count, active)

	// A second seed leaves operator edits alone.
	require.NoError(t, db.Model(&models.ComplianceRule{}).Update("is_active", false).Error)
	require.NoError(t, SeedRules(db))
	var after int
	require.NoError(t, db.Model(&models.ComplianceRule{}).Count(&after).Error)
	assert.Equal(t, count, after)
}
