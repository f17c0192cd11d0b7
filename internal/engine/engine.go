// Package engine orchestrates a full compliance check run: structure the
// uploaded menu, evaluate every active rule, persist findings and totals,
// and grow the dish catalog.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"menuaudit/internal/live"
	"menuaudit/internal/models"
	"menuaudit/internal/monitoring"
	"menuaudit/internal/pipeline"
	"menuaudit/internal/rules"
)

var log = logrus.WithField("module", "engine")

// Engine runs compliance checks. Callers are responsible for serializing
// re-evaluation of the same check id; runs of different checks share no
// mutable state and may proceed independently.
type Engine struct {
	db      *gorm.DB
	builder *pipeline.Builder
	metrics *monitoring.Collector
	hub     *live.Hub
}

// New creates an engine. Metrics collector and hub may be nil (tests).
func New(db *gorm.DB, builder *pipeline.Builder, metrics *monitoring.Collector, hub *live.Hub) *Engine {
	return &Engine{db: db, builder: builder, metrics: metrics, hub: hub}
}

// Summary is the aggregate outcome of one check run.
type Summary struct {
	CheckID          uint   `json:"check_id"`
	TotalFindings    int    `json:"total_findings"`
	CriticalFindings int    `json:"critical_findings"`
	Warnings         int    `json:"warnings"`
	PassedRules      int    `json:"passed_rules"`
	DishesAbove      int    `json:"dishes_above"`
	DishesUnder      int    `json:"dishes_under"`
	DishesEven       int    `json:"dishes_even"`
	DaysParsed       int    `json:"days_parsed"`
	RulesChecked     int    `json:"rules_checked"`
	DishesCataloged  int    `json:"dishes_cataloged"`
	ParseTier        string `json:"parse_tier"`
}

// RunCheck evaluates all active compliance rules against a menu check. The
// check's day set and findings are replaced in full; either the whole run
// commits or nothing is written.
func (e *Engine) RunCheck(ctx context.Context, checkID uint) (*Summary, error) {
	started := time.Now()

	var check models.MenuCheck
	if err := e.db.First(&check, checkID).Error; err != nil {
		return nil, fmt.Errorf("menu check %d not found: %w", checkID, err)
	}

	var ruleSet []models.ComplianceRule
	if err := e.db.Where("is_active = ?", true).Find(&ruleSet).Error; err != nil {
		return nil, fmt.Errorf("failed to load compliance rules: %w", err)
	}

	e.emit(checkID, "parsing", nil)

	// Structure the menu file. Fresh parsing "succeeds" when it recovered
	// at least one actual item; otherwise previously stored days are
	// reused unchanged.
	parsed := pipeline.Output{Tier: "none"}
	if check.FilePath != "" {
		parsed = e.builder.BuildDays(ctx, e.sourceFor(&check))
	}

	tx := e.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin run transaction: %w", tx.Error)
	}

	evalDays, daysParsed, err := e.storeDays(tx, &check, parsed)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	e.emit(checkID, "evaluating", map[string]interface{}{"rules": len(ruleSet), "days": daysParsed})

	results := rules.EvaluateAll(ruleSet, evalDays)

	if err := tx.Where("menu_check_id = ?", check.ID).Delete(&models.CheckResult{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear previous findings: %w", err)
	}

	summary := Summary{CheckID: check.ID, DaysParsed: daysParsed, RulesChecked: len(ruleSet), ParseTier: parsed.Tier}
	for _, res := range results {
		record := models.CheckResult{
			MenuCheckID:  check.ID,
			RuleName:     res.RuleName,
			RuleCategory: res.RuleCategory,
			Passed:       res.Passed,
			Severity:     res.Severity,
			FindingText:  res.FindingText,
			Evidence:     res.Evidence(),
			MatchingDays: models.StringSlice(res.MatchingDays),
			MissingDays:  models.StringSlice(res.MissingDays),
		}
		if err := tx.Create(&record).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to persist finding: %w", err)
		}

		switch {
		case res.Passed:
			summary.PassedRules++
		case res.Severity == models.SeverityCritical:
			summary.CriticalFindings++
		default:
			summary.Warnings++
		}
		switch res.Comparison {
		case rules.ComparisonAbove:
			summary.DishesAbove++
		case rules.ComparisonUnder:
			summary.DishesUnder++
		default:
			summary.DishesEven++
		}
	}
	summary.TotalFindings = summary.CriticalFindings + summary.Warnings

	check.TotalFindings = summary.TotalFindings
	check.CriticalFindings = summary.CriticalFindings
	check.Warnings = summary.Warnings
	check.PassedRules = summary.PassedRules
	check.DishesAbove = summary.DishesAbove
	check.DishesUnder = summary.DishesUnder
	check.DishesEven = summary.DishesEven
	check.CheckedAt = time.Now()
	if err := tx.Save(&check).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update check totals: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}

	// Catalog growth happens after the commit: its errors are logged and
	// absorbed, never failing the check whose totals are already
	// authoritative.
	summary.DishesCataloged = e.writeCatalog(&check, parsed, evalDays, ruleSet, results)

	if e.metrics != nil {
		e.metrics.RecordRun(parsed.Tier, summary.CriticalFindings, summary.Warnings,
			summary.PassedRules, summary.DishesCataloged, time.Since(started))
	}
	e.emit(checkID, "done", summary)

	return &summary, nil
}

// sourceFor resolves the check's month label into a pipeline source.
func (e *Engine) sourceFor(check *models.MenuCheck) pipeline.Source {
	month := time.January
	label := check.Month
	if idx := strings.LastIndex(label, "-"); idx >= 0 {
		label = label[idx+1:]
	}
	if n, err := strconv.Atoi(label); err == nil && n >= 1 && n <= 12 {
		month = time.Month(n)
	}
	return pipeline.Source{
		Path:       check.FilePath,
		Month:      month,
		Year:       check.Year,
		MonthLabel: check.Month,
	}
}

// storeDays replaces the check's day set when fresh parsing succeeded, or
// falls back to the previously stored set. Returns the days to evaluate.
func (e *Engine) storeDays(tx *gorm.DB, check *models.MenuCheck, parsed pipeline.Output) ([]rules.Day, int, error) {
	fresh := pipeline.TotalItems(parsed.Days) > 0

	if !fresh {
		var stored []models.MenuDay
		if err := tx.Where("menu_check_id = ?", check.ID).Order("date").Find(&stored).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to load stored menu days: %w", err)
		}
		if len(stored) > 0 {
			days := make([]rules.Day, len(stored))
			for i, md := range stored {
				days[i] = rules.Day{Date: md.Date, Weekday: md.DayOfWeek, Items: map[string][]string(md.Items)}
			}
			return days, len(days), nil
		}
		// Nothing stored either; persist the placeholder skeleton so the
		// check at least has its weekday scaffolding.
	}

	if err := tx.Where("menu_check_id = ?", check.ID).Delete(&models.MenuDay{}).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to clear previous menu days: %w", err)
	}

	days := make([]rules.Day, 0, len(parsed.Days))
	weekNum := 1
	var prev *time.Time
	for _, pd := range parsed.Days {
		if prev != nil {
			_, prevWeek := prev.ISOWeek()
			_, curWeek := pd.Date.ISOWeek()
			if curWeek != prevWeek {
				weekNum++
			}
		}
		d := pd.Date
		prev = &d

		record := models.MenuDay{
			MenuCheckID: check.ID,
			Date:        pd.Date,
			DayOfWeek:   pd.Weekday,
			WeekNumber:  weekNum,
			Items:       models.ItemsMap(pd.Items),
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to persist menu day: %w", err)
		}
		days = append(days, rules.Day{Date: pd.Date, Weekday: pd.Weekday, Items: pd.Items})
	}
	return days, len(days), nil
}

func (e *Engine) emit(checkID uint, stage string, detail interface{}) {
	if e.hub != nil {
		e.hub.Broadcast(live.Event{CheckID: checkID, Stage: stage, Detail: detail})
	}
}
