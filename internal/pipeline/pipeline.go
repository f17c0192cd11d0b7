// Package pipeline turns a raw uploaded menu file into an ordered list of
// structured menu days. Three tiers are tried in strict order (AI-assisted
// parse, direct spreadsheet extraction, placeholder generation), stopping at
// the first tier that yields at least one day with at least one item. The
// pipeline never fails: the placeholder tier guarantees the evaluation
// engine always has some input.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"menuaudit/internal/ai"
	"menuaudit/internal/classify"
	"menuaudit/internal/reader"
)

var log = logrus.WithField("module", "pipeline")

// DefaultCategory is used when day-level category attribution is unknown
// (direct spreadsheet extraction and placeholder days).
const DefaultCategory = "כללי"

// Day is one structured menu day.
type Day struct {
	Date    time.Time
	Weekday string
	Items   map[string][]string
}

// TotalItems counts dishes across all days and categories.
func TotalItems(days []Day) int {
	n := 0
	for _, day := range days {
		for _, dishes := range day.Items {
			n += len(dishes)
		}
	}
	return n
}

// Source identifies the file and target month being structured.
type Source struct {
	Path  string
	Month time.Month
	Year  int
	// MonthLabel is the stored month string ("2026-02"), passed through to
	// the AI prompt.
	MonthLabel string
}

// Strategy is one structuring tier. A nil/empty day list or an error both
// mean "this tier yielded nothing" and the next tier is tried.
type Strategy interface {
	Name() string
	Build(ctx context.Context, src Source, rawText string) ([]Day, error)
}

// Builder runs the tiered structuring strategies.
type Builder struct {
	strategies []Strategy
}

// NewBuilder assembles the standard three-tier chain. A nil parser disables
// the AI tier entirely.
func NewBuilder(parser *ai.MenuParser) *Builder {
	strategies := make([]Strategy, 0, 3)
	if parser != nil {
		strategies = append(strategies, &aiStrategy{parser: parser})
	}
	strategies = append(strategies, &sheetStrategy{}, &placeholderStrategy{})
	return &Builder{strategies: strategies}
}

// Output bundles the structured days with the tier that produced them and
// the raw text read from the file. The file is read exactly once per run;
// callers reuse RawText for schema-independent catalog extraction.
type Output struct {
	Days    []Day
	Tier    string
	RawText string
}

// BuildDays structures the source file. On total failure it still returns
// placeholder weekday entries with empty item maps.
func (b *Builder) BuildDays(ctx context.Context, src Source) Output {
	rawText := reader.ReadRaw(src.Path)

	var last []Day
	lastName := "placeholder"
	for _, s := range b.strategies {
		days, err := s.Build(ctx, src, rawText)
		if err != nil {
			log.WithField("tier", s.Name()).WithError(err).Info("structuring tier yielded nothing")
			continue
		}
		if len(days) > 0 && TotalItems(days) > 0 {
			return Output{Days: days, Tier: s.Name(), RawText: rawText}
		}
		if len(days) > 0 {
			last, lastName = days, s.Name()
		}
	}

	// No tier produced items; the placeholder tier at least produced the
	// weekday skeleton.
	if last == nil {
		last, _ = (&placeholderStrategy{}).Build(ctx, src, rawText)
	}
	return Output{Days: last, Tier: lastName, RawText: rawText}
}

// ExtractDishes runs the dish classifier over a whole raw text dump,
// splitting on line and cell separators. Used for the placeholder tier and
// for schema-independent catalog extraction. Order-preserving, deduplicated.
func ExtractDishes(rawText string) []string {
	seen := make(map[string]bool)
	var dishes []string
	for _, token := range splitCells(rawText) {
		if !classify.IsDishName(token) {
			continue
		}
		if !seen[token] {
			seen[token] = true
			dishes = append(dishes, token)
		}
	}
	return dishes
}

// monthBounds returns the first day of the target month and of the next one.
func monthBounds(src Source) (time.Time, time.Time) {
	start := time.Date(src.Year, src.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// workingDay reports whether the date is a catering serving day (Sun-Thu;
// Fri/Sat are Shabbat and never on the menu).
func workingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Friday && wd != time.Saturday
}

func monthLabel(src Source) string {
	if src.MonthLabel != "" {
		return src.MonthLabel
	}
	return fmt.Sprintf("%04d-%02d", src.Year, int(src.Month))
}
