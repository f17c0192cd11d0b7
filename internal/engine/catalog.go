package engine

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"

	"menuaudit/internal/models"
	"menuaudit/internal/pipeline"
	"menuaudit/internal/reader"
	"menuaudit/internal/rules"
)

// writeCatalog grows the dish catalog from this run's menu. The raw text
// dump is preferred over the structured days because it survives schema
// detection failures; parsed day items are the fallback when the file could
// not be re-read. Returns the number of newly added dishes.
func (e *Engine) writeCatalog(check *models.MenuCheck, parsed pipeline.Output, days []rules.Day, ruleSet []models.ComplianceRule, results []rules.Result) int {
	names := pipeline.ExtractDishes(parsed.RawText)
	if len(names) == 0 {
		names = dishNamesFromDays(days)
	}
	if len(names) == 0 {
		return 0
	}

	approved := passingKeywords(ruleSet, results)

	added := 0
	for _, name := range names {
		var existing models.DishCatalog
		err := e.db.Where("dish_name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !gorm.IsRecordNotFoundError(err) {
			log.WithError(err).WithField("dish", name).Warn("catalog lookup failed")
			continue
		}

		entry := models.DishCatalog{
			DishName:      name,
			Category:      categorize(name, days),
			Approved:      isApproved(name, approved),
			SourceCheckID: check.ID,
		}
		if err := e.db.Create(&entry).Error; err != nil {
			log.WithError(err).WithField("dish", name).Warn("failed to catalog dish")
			continue
		}
		added++
	}
	return added
}

// CatalogCheck re-runs catalog extraction for an already evaluated check,
// using its stored days and findings. Exposed for the manual extract
// endpoint; a normal run catalogs automatically.
func (e *Engine) CatalogCheck(checkID uint) (int, error) {
	var check models.MenuCheck
	if err := e.db.First(&check, checkID).Error; err != nil {
		return 0, fmt.Errorf("menu check %d not found: %w", checkID, err)
	}

	var stored []models.MenuDay
	if err := e.db.Where("menu_check_id = ?", check.ID).Order("date").Find(&stored).Error; err != nil {
		return 0, fmt.Errorf("failed to load stored menu days: %w", err)
	}
	days := make([]rules.Day, len(stored))
	for i, md := range stored {
		days[i] = rules.Day{Date: md.Date, Weekday: md.DayOfWeek, Items: map[string][]string(md.Items)}
	}

	var ruleSet []models.ComplianceRule
	if err := e.db.Where("is_active = ?", true).Find(&ruleSet).Error; err != nil {
		return 0, fmt.Errorf("failed to load compliance rules: %w", err)
	}
	var findings []models.CheckResult
	if err := e.db.Where("menu_check_id = ?", check.ID).Find(&findings).Error; err != nil {
		return 0, fmt.Errorf("failed to load findings: %w", err)
	}

	// Stored findings reference rules by copied name, not id.
	passedByName := make(map[string]bool)
	for _, f := range findings {
		if f.Passed {
			passedByName[f.RuleName] = true
		}
	}
	results := make([]rules.Result, 0, len(ruleSet))
	for _, rule := range ruleSet {
		results = append(results, rules.Result{RuleID: rule.ID, RuleName: rule.Name, Passed: passedByName[rule.Name]})
	}

	rawText := ""
	if check.FilePath != "" {
		rawText = reader.ReadRaw(check.FilePath)
	}
	return e.writeCatalog(&check, pipeline.Output{RawText: rawText}, days, ruleSet, results), nil
}

// dishNamesFromDays flattens structured days into a deduplicated name list.
func dishNamesFromDays(days []rules.Day) []string {
	seen := make(map[string]bool)
	var names []string
	for _, day := range days {
		for _, dishes := range day.Items {
			for _, dish := range dishes {
				if dish = strings.TrimSpace(dish); dish != "" && !seen[dish] {
					seen[dish] = true
					names = append(names, dish)
				}
			}
		}
	}
	return names
}

// menuCategorySlugs maps the Hebrew menu section labels onto catalog
// category slugs.
var menuCategorySlugs = map[string]string{
	"מרק":    "soup",
	"סלטים":  "salads",
	"תוספות": "side_dish",
	"קינוח":  "desserts",
	"קינוחים": "desserts",
	"קטניות": "legumes",
	"דגים":   "fish",
}

// categorize picks the dish's catalog category from the menu section it was
// parsed under, falling back to the generic bucket.
func categorize(name string, days []rules.Day) string {
	for _, day := range days {
		for category, dishes := range day.Items {
			if category == pipeline.DefaultCategory {
				continue
			}
			for _, dish := range dishes {
				if dish == name {
					if slug, ok := menuCategorySlugs[category]; ok {
						return slug
					}
					return "other"
				}
			}
		}
	}
	return "other"
}

// passingKeywords collects the item keywords of rules that passed this run.
func passingKeywords(ruleSet []models.ComplianceRule, results []rules.Result) []string {
	passedRules := make(map[uint]bool)
	for _, res := range results {
		if res.Passed {
			passedRules[res.RuleID] = true
		}
	}

	var keywords []string
	for _, rule := range ruleSet {
		if !passedRules[rule.ID] {
			continue
		}
		kw := strings.ToLower(strings.TrimSpace(rule.ItemKeyword))
		if kw == "" {
			// Most rules carry their keyword in the Hebrew name; that is
			// the keyword the evaluator matched to pass the rule.
			kw = rules.BuildSpec(&rule).Keyword
		}
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// isApproved marks a dish approved when it matched a rule that passed.
func isApproved(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
