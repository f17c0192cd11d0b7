// Package classify decides whether a raw menu cell plausibly names a dish.
// Menus arrive as loosely structured spreadsheets and text dumps, so the
// structuring pipeline runs every cell through this filter to separate dish
// names from headers, dates and day labels.
package classify

import (
	"regexp"
	"strings"
)

const (
	minDishLen = 3
	maxDishLen = 80
)

// absenceMarker is the literal cell content used by menu authors for
// "nothing served".
const absenceMarker = "אין"

var (
	datePattern   = regexp.MustCompile(`\d{1,2}[./]\d{1,2}`)
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

// weekdayNames are the Hebrew weekday names; day labels appear bare or with
// the יום prefix ("יום ראשון").
var weekdayNames = []string{
	"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת",
}

// headerKeywords mark structural rows/cells that never contain dishes.
var headerKeywords = []string{
	"sheet", "page", "menu", "date", "week",
	"תפריט",    // menu
	"חודש",     // month
	"שבוע",     // week
	"תאריך",    // date
	"הערות",    // notes
	"עמדת שף", // chef station
}

// IsDishName reports whether the value plausibly names a dish. Pure and
// idempotent; rejection rules are applied in order, first match wins.
func IsDishName(value string) bool {
	s := strings.TrimSpace(value)

	// Rune count, not bytes: Hebrew is multi-byte in UTF-8.
	if n := len([]rune(s)); n < minDishLen || n > maxDishLen {
		return false
	}

	// Menus here are Hebrew; a cell with no Hebrew at all is a header,
	// a number or noise.
	if hebrewRuneCount(s) == 0 {
		return false
	}

	if isSkipToken(s) {
		return false
	}

	lower := strings.ToLower(s)
	for _, kw := range headerKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}

	// Single stray Hebrew letters inside an otherwise Latin/numeric cell
	// are still noise.
	if hebrewRuneCount(s) < 2 {
		return false
	}

	return true
}

// isSkipToken matches date-like tokens, weekday labels, the absence marker,
// digit runs and near-empty cells.
func isSkipToken(s string) bool {
	if datePattern.MatchString(s) {
		return true
	}
	for _, wd := range weekdayNames {
		if s == wd || s == "יום "+wd {
			return true
		}
	}
	if s == absenceMarker {
		return true
	}
	if digitsPattern.MatchString(s) {
		return true
	}
	return len([]rune(strings.TrimSpace(s))) <= 2
}

// IsWeekdayToken reports whether the value contains a Hebrew weekday label,
// possibly embedded in a longer header cell ("יום ראשון 2.6"). Matching is
// on whole words: "שניצל" must not register as "שני".
func IsWeekdayToken(value string) bool {
	for _, f := range strings.Fields(strings.TrimSpace(value)) {
		for _, wd := range weekdayNames {
			if f == wd {
				return true
			}
		}
	}
	return false
}

// IsDateToken reports whether the value contains a date-like token.
func IsDateToken(value string) bool {
	return datePattern.MatchString(value)
}

func hebrewRuneCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x0590 && r <= 0x05FF {
			n++
		}
	}
	return n
}
