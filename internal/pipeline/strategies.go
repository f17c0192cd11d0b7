package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"menuaudit/internal/ai"
	"menuaudit/internal/classify"
)

// --- tier 1: AI-assisted parse ---

// aiStrategy sends the raw text to the external text-generation service and
// re-validates the structured response before trusting it. The call is made
// exactly once per run; an untrustworthy response falls through silently.
type aiStrategy struct {
	parser *ai.MenuParser
}

func (s *aiStrategy) Name() string { return "ai" }

func (s *aiStrategy) Build(ctx context.Context, src Source, rawText string) ([]Day, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("no readable text")
	}

	parsed, err := s.parser.ParseMenu(ctx, rawText, monthLabel(src), src.Year)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("model returned no days")
	}

	days := make([]Day, 0, len(parsed))
	total := 0
	for _, pd := range parsed {
		date, err := time.Parse("2006-01-02", pd.Date)
		if err != nil {
			continue
		}
		items := pd.Items
		if items == nil {
			items = map[string][]string{}
		}
		weekday := pd.DayOfWeek
		if weekday == "" {
			weekday = date.Weekday().String()
		}
		for _, dishes := range items {
			total += len(dishes)
		}
		days = append(days, Day{Date: date, Weekday: weekday, Items: items})
	}

	// A structurally valid but semantically empty parse is untrustworthy;
	// discard it rather than returning empty-item days as final output.
	if len(days) == 0 || total == 0 {
		return nil, fmt.Errorf("model response had no menu items")
	}
	return days, nil
}

// --- tier 2: direct spreadsheet extraction ---

var headerDatePattern = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})`)

// headerScanRows is how deep into a sheet the header row is searched for.
const headerScanRows = 6

// sheetStrategy recovers exact day attribution from spreadsheets whose first
// rows carry a header with weekday or date tokens. Each matching column
// becomes a day; every cell below it goes through the dish classifier.
type sheetStrategy struct{}

func (s *sheetStrategy) Name() string { return "sheet" }

func (s *sheetStrategy) Build(ctx context.Context, src Source, rawText string) ([]Day, error) {
	ext := strings.ToLower(filepath.Ext(src.Path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return nil, fmt.Errorf("not a spreadsheet")
	}

	f, err := excelize.OpenFile(src.Path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if days := extractSheetDays(rows, src); len(days) > 0 {
			return days, nil
		}
	}
	return nil, fmt.Errorf("no header row with day markers found")
}

// extractSheetDays finds the header row and walks its day columns.
func extractSheetDays(rows [][]string, src Source) []Day {
	headerRow, dayCols := findHeaderRow(rows)
	if len(dayCols) == 0 {
		return nil
	}

	days := make([]Day, 0, len(dayCols))
	for i, col := range dayCols {
		header := rows[headerRow][col]

		var dishes []string
		for r, row := range rows {
			if r == headerRow || col >= len(row) {
				continue
			}
			if cell := strings.TrimSpace(row[col]); classify.IsDishName(cell) {
				dishes = append(dishes, cell)
			}
		}

		date := headerDate(header, src, i)
		items := map[string][]string{}
		if len(dishes) > 0 {
			items[DefaultCategory] = dishes
		}
		days = append(days, Day{
			Date:    date,
			Weekday: date.Weekday().String(),
			Items:   items,
		})
	}
	return days
}

// findHeaderRow scans the first few rows for one containing weekday-name or
// date-like tokens; the matching column indices become day columns.
func findHeaderRow(rows [][]string) (int, []int) {
	limit := headerScanRows
	if len(rows) < limit {
		limit = len(rows)
	}
	for r := 0; r < limit; r++ {
		var cols []int
		for c, cell := range rows[r] {
			if classify.IsWeekdayToken(cell) || classify.IsDateToken(cell) {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			return r, cols
		}
	}
	return -1, nil
}

// headerDate derives a day's date from a date-like substring in its header
// label when present; otherwise days are assigned sequentially within the
// target month, capped to day 28 to sidestep month-length errors.
func headerDate(header string, src Source, position int) time.Time {
	if m := headerDatePattern.FindStringSubmatch(header); m != nil {
		dayNum, _ := strconv.Atoi(m[1])
		month := src.Month
		if mn, err := strconv.Atoi(m[2]); err == nil && mn >= 1 && mn <= 12 {
			month = time.Month(mn)
		}
		if dayNum >= 1 && dayNum <= 31 {
			return time.Date(src.Year, month, dayNum, 0, 0, 0, 0, time.UTC)
		}
	}

	dayNum := position + 1
	if dayNum > 28 {
		dayNum = 28
	}
	return time.Date(src.Year, src.Month, dayNum, 0, 0, 0, 0, time.UTC)
}

// --- tier 3: placeholder generation ---

// placeholderStrategy enumerates the working weekdays of the target month
// with empty item maps. When whole-file extraction recovered a flat dish
// list, that list is attached to every day under the default category so
// frequency-style rules still have data to count against, even though
// day-level attribution is lost.
type placeholderStrategy struct{}

func (s *placeholderStrategy) Name() string { return "placeholder" }

func (s *placeholderStrategy) Build(ctx context.Context, src Source, rawText string) ([]Day, error) {
	flat := ExtractDishes(rawText)

	var days []Day
	start, end := monthBounds(src)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if !workingDay(d) {
			continue
		}
		items := map[string][]string{}
		if len(flat) > 0 {
			items[DefaultCategory] = flat
		}
		days = append(days, Day{
			Date:    d,
			Weekday: d.Weekday().String(),
			Items:   items,
		})
	}
	return days, nil
}

// splitCells breaks a raw text dump into candidate cells/lines.
func splitCells(rawText string) []string {
	var tokens []string
	for _, line := range strings.Split(rawText, "\n") {
		for _, cell := range strings.Split(line, ",") {
			if cell = strings.TrimSpace(cell); cell != "" {
				tokens = append(tokens, cell)
			}
		}
	}
	return tokens
}
