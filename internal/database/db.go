// Package database owns the gorm connection, schema migration and the
// default rule seed.
package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"

	"menuaudit/internal/models"
)

var log = logrus.WithField("module", "database")

// Open connects to the database, migrates the schema and seeds the default
// rule set when the rules table is empty.
func Open(dialect, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := SeedRules(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.MenuCheck{},
		&models.MenuDay{},
		&models.CheckResult{},
		&models.ComplianceRule{},
		&models.DishCatalog{},
	).Error; err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedRules installs the default institutional rule set. Runs only when the
// rules table is empty so operator edits are never overwritten.
func SeedRules(db *gorm.DB) error {
	var count int
	if err := db.Model(&models.ComplianceRule{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, rule := range defaultRules() {
		if err := db.Create(&rule).Error; err != nil {
			return fmt.Errorf("failed to seed rule %q: %w", rule.Name, err)
		}
	}
	log.WithField("rules", len(defaultRules())).Info("seeded default compliance rules")
	return nil
}

// defaultRules is the starter rule set. Rule names are in menu Hebrew; the
// interpreter derives targets and cadences from them at evaluation time.
func defaultRules() []models.ComplianceRule {
	return []models.ComplianceRule{
		{
			Name:        "דג 4 פעמים בשבוע",
			RuleType:    models.RuleTypeWeeklyFrequency,
			Description: "Fish must appear at least four times a week",
			Category:    "חלבונים",
			Priority:    1,
			IsActive:    true,
		},
		{
			Name:        "מקסימום פעם בשבוע נקניקיות",
			RuleType:    models.RuleTypeWeeklyFrequency,
			Description: "Sausages at most once a week",
			Category:    "חלבונים",
			Priority:    1,
			IsActive:    true,
		},
		{
			Name:        "מינימום 3 סוגי סלטים ביום",
			RuleType:    models.RuleTypeDailyCount,
			Description: "At least three salad varieties every day",
			Category:    "סלטים",
			ItemKeyword: "סלט",
			Priority:    2,
			IsActive:    true,
		},
		{
			Name:        "מקסימום 2 מנות מטוגנות ביום",
			RuleType:    models.RuleTypeDailyMax,
			Description: "No more than two fried dishes per day",
			Category:    "תוספות",
			ItemKeyword: "מטוגן",
			Priority:    2,
			IsActive:    true,
		},
		{
			Name:        "ירק טרי כל יום",
			RuleType:    models.RuleTypeDailyPresence,
			Description: "Fresh vegetables daily",
			Category:    "ירקות",
			ItemKeyword: "ירק",
			Priority:    1,
			IsActive:    true,
		},
		{
			Name:        "ללא חזרה על מנה עיקרית באותו שבוע",
			RuleType:    models.RuleTypeNoRepeatWeekly,
			Description: "Main dishes must not repeat within a week",
			Category:    "עיקריות",
			Priority:    2,
			IsActive:    true,
		},
		{
			Name:        "ללא מנה זהה יומיים ברצף",
			RuleType:    models.RuleTypeNoConsecutive,
			Description: "The same dish must not be served two days in a row",
			Category:    "עיקריות",
			Priority:    2,
			IsActive:    true,
		},
		{
			Name:        "קטניות פעמיים בשבוע",
			RuleType:    models.RuleTypeWeeklyFrequency,
			Description: "Legumes at least twice a week",
			Category:    "חלבונים",
			ItemKeyword: "קטניות",
			MinPerWeek:  2,
			Priority:    2,
			IsActive:    true,
		},
	}
}
