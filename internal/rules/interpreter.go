// Package rules interprets natural-language compliance rule names and
// evaluates rules against a month of structured menu days.
//
// Rule names are free-form Hebrew policy prose ("מקסימום פעם בשבוע נקניקיות",
// "מינימום 11 סוגי סלטים ביום") that was never entered with uniform
// structured fields. The interpreter recovers (keyword, target, cadence,
// direction) tuples from them; every extractor is a pure function that
// degrades to sensible defaults when a name matches no pattern.
package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// Direction is the min-vs-max sense of a count target.
type Direction int

const (
	AtLeast Direction = iota
	AtMost
)

// Cadence is the period over which a count target applies.
type Cadence int

const (
	CadenceMonthly Cadence = iota
	CadenceWeekly
	CadenceDaily
)

// maxMarker flips a frequency rule to an at-most target.
const maxMarker = "מקסימום"

var (
	// "<N> פעמים בשבוע" / "<N> פעמים בחודש": N times per week/month
	timesPattern = regexp.MustCompile(`(\d+)\s+פעמים\s+ב(שבוע|חודש)`)
	// "פעם בשבוע": once per week
	oncePattern = regexp.MustCompile(`פעם\s+בשבוע`)

	// "מינימום <N> סוגי <category> ביום": minimum N varieties per day
	minVarietiesPattern = regexp.MustCompile(`מינימום\s+(\d+)\s+סוגי\s+(.+?)\s+ביום`)
	// "מקסימום <N> מנות <item> ביום": maximum N portions per day
	maxPortionsPattern = regexp.MustCompile(`מקסימום\s+(\d+)\s+מנות\s+(.+?)\s+ביום`)
	// loose "מינימום <N> <rest>"
	minLoosePattern = regexp.MustCompile(`מינימום\s+(\d+)\s+(.+)`)

	// trailing "daily" markers
	dailySuffixPattern = regexp.MustCompile(`\s+(יומי|יומית|יומיים|יומיות)$`)
)

// leading category nouns stripped before keyword matching
var keywordPrefixes = []string{"סלט ", "מנת ", "מנה של "}

// ItemFrequency is the structured reading of a frequency-style rule name.
type ItemFrequency struct {
	Item      string
	Target    float64
	Cadence   Cadence
	Direction Direction
}

// ExtractItemFrequency parses "<phrase> N times per week/month" shapes in
// either word order. Unmatched names come back whole as the item phrase with
// an implicit monthly frequency of 1.
func ExtractItemFrequency(name string) ItemFrequency {
	cleaned := normalize(name)

	dir := AtLeast
	if strings.Contains(cleaned, maxMarker) {
		dir = AtMost
		cleaned = normalize(strings.ReplaceAll(cleaned, maxMarker, " "))
	}

	if m := timesPattern.FindStringSubmatchIndex(cleaned); m != nil {
		n, _ := strconv.ParseFloat(cleaned[m[2]:m[3]], 64)
		cadence := CadenceMonthly
		if cleaned[m[4]:m[5]] == "שבוע" {
			cadence = CadenceWeekly
		}
		return ItemFrequency{
			Item:      cutMatch(cleaned, m[0], m[1]),
			Target:    n,
			Cadence:   cadence,
			Direction: dir,
		}
	}

	if m := oncePattern.FindStringIndex(cleaned); m != nil {
		return ItemFrequency{
			Item:      cutMatch(cleaned, m[0], m[1]),
			Target:    1,
			Cadence:   CadenceWeekly,
			Direction: dir,
		}
	}

	return ItemFrequency{Item: cleaned, Target: 1, Cadence: CadenceMonthly, Direction: dir}
}

// DailyCount is the structured reading of a per-day count rule name.
type DailyCount struct {
	Target  int
	Keyword string
	// IsMax marks the "maximum N portions" form, checked against the peak
	// single day rather than the daily average.
	IsMax bool
	// Explicit reports whether a מינימום/מקסימום pattern actually matched;
	// a daily-count rule without one is a plain presence requirement.
	Explicit bool
}

// ExtractDailyCount parses "minimum N varieties of <category> per day" and
// "maximum N portions of <item> per day" shapes, with a looser minimum
// fallback. Default is a target of 1 with the full name as keyword.
func ExtractDailyCount(name string) DailyCount {
	cleaned := normalize(name)

	if m := minVarietiesPattern.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		return DailyCount{Target: n, Keyword: strings.TrimSpace(m[2]), Explicit: true}
	}
	if m := maxPortionsPattern.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		return DailyCount{Target: n, Keyword: strings.TrimSpace(m[2]), IsMax: true, Explicit: true}
	}
	if m := minLoosePattern.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		return DailyCount{Target: n, Keyword: strings.TrimSpace(m[2]), Explicit: true}
	}
	return DailyCount{Target: 1, Keyword: cleaned}
}

// ExtractDailyKeyword reduces a daily-presence rule name to its item keyword:
// trailing "daily" markers and leading category nouns are stripped, and a
// slash-separated alternative keeps only its first option.
func ExtractDailyKeyword(name string) string {
	s := normalize(name)

	s = dailySuffixPattern.ReplaceAllString(s, "")
	for _, prefix := range keywordPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}
	if idx := strings.Index(s, "/"); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	return s
}

// normalize collapses runs of whitespace and trims the result.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cutMatch removes the [start,end) span from s and renormalizes what is left.
func cutMatch(s string, start, end int) string {
	return normalize(s[:start] + " " + s[end:])
}
