package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"menuaudit/internal/models"
)

// cateringWeekLen is the number of serving days in a catering week (Sun-Thu).
const cateringWeekLen = 5

// Comparison labels for actual vs expected counts.
const (
	ComparisonAbove = "above"
	ComparisonUnder = "under"
	ComparisonEven  = "even"
)

// Day is one structured menu day as seen by the evaluator.
type Day struct {
	Date    time.Time
	Weekday string
	Items   map[string][]string
}

// Result is the outcome of evaluating a single rule.
type Result struct {
	RuleID       uint
	RuleName     string
	RuleCategory string
	Passed       bool
	Severity     string
	FindingText  string
	Expected     int
	Actual       int
	Comparison   string
	MatchingDays []string
	MissingDays  []string
}

// Evidence renders the standardized evidence bag persisted with the finding.
// Every result carries the same keys regardless of rule kind so downstream
// aggregation stays type-agnostic.
func (r Result) Evidence() models.JSONMap {
	return models.JSONMap{
		"rule_id":        r.RuleID,
		"expected_count": r.Expected,
		"actual_count":   r.Actual,
		"comparison":     r.Comparison,
		"matching_days":  r.MatchingDays,
		"missing_days":   r.MissingDays,
	}
}

// corpus holds the precomputed views of a check's day data shared by all
// rule evaluations within a run.
type corpus struct {
	days      []Day
	itemFreq  map[string]int // lowercased dish name -> occurrences across the month
	totalDays int
}

func buildCorpus(days []Day) *corpus {
	sorted := make([]Day, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	freq := make(map[string]int)
	for _, day := range sorted {
		for _, dishes := range day.Items {
			for _, dish := range dishes {
				name := strings.ToLower(strings.TrimSpace(dish))
				if name != "" {
					freq[name]++
				}
			}
		}
	}
	return &corpus{days: sorted, itemFreq: freq, totalDays: len(sorted)}
}

// EvaluateAll evaluates every rule against the parsed days. Each evaluation
// is a pure function of (rule, days); no state is carried between rules.
func EvaluateAll(ruleSet []models.ComplianceRule, days []Day) []Result {
	c := buildCorpus(days)
	results := make([]Result, 0, len(ruleSet))
	for i := range ruleSet {
		results = append(results, evaluateRule(&ruleSet[i], c))
	}
	return results
}

func evaluateRule(rule *models.ComplianceRule, c *corpus) Result {
	res := Result{
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		RuleCategory: rule.Category,
		Severity:     rule.SeverityLabel(),
	}

	if c.totalDays == 0 {
		res.Passed = false
		res.Comparison = ComparisonEven
		res.FindingText = "No menu days found to check against this rule."
		return res
	}

	spec := BuildSpec(rule)
	switch spec.Kind {
	case KindWeeklyFrequency, KindLegacyFrequency:
		evalFrequency(&res, spec, c, c.weeksInMonth()*spec.Target)
	case KindMonthlyFrequency:
		evalFrequency(&res, spec, c, spec.Target)
	case KindGeneric:
		target := spec.Target
		if spec.Cadence == CadenceWeekly {
			target = c.weeksInMonth() * spec.Target
		}
		evalFrequency(&res, spec, c, target)
	case KindCategoryMinDaily:
		evalCategoryMinDaily(&res, spec, c)
	case KindItemMaxDaily:
		evalItemMaxDaily(&res, spec, c)
	case KindDailyPresence:
		evalPresence(&res, spec.Keyword, c, fmt.Sprintf("'%s'", spec.Keyword), matchDish)
	case KindNoRepeatWeekly:
		evalNoRepeatWeekly(&res, c)
	case KindNoRepeatDaily:
		evalNoRepeatDaily(&res, c)
	case KindNoConsecutive:
		evalNoConsecutive(&res, c)
	case KindLegacyMandatory:
		evalMandatory(&res, spec, c)
	}

	res.Comparison = compareLabel(res.Actual, res.Expected)
	return res
}

// weeksInMonth approximates the number of catering weeks covered by the
// parsed days. Never zero, so weekly targets stay well-defined for short
// months.
func (c *corpus) weeksInMonth() float64 {
	return math.Max(float64(c.totalDays)/cateringWeekLen, 1)
}

// evalFrequency checks a substring occurrence count against a period target.
func evalFrequency(res *Result, spec Spec, c *corpus, target float64) {
	res.Expected = int(math.Round(target))
	res.Actual = c.countOccurrences(spec.Keyword)
	res.MatchingDays, res.MissingDays = c.splitDays(spec.Keyword, matchDish)

	if spec.Direction == AtMost {
		res.Passed = res.Actual <= res.Expected
		if !res.Passed {
			res.FindingText = fmt.Sprintf("'%s' appears %d times this month (at most %d allowed)",
				spec.Keyword, res.Actual, res.Expected)
		}
		return
	}
	res.Passed = res.Actual >= res.Expected
	if !res.Passed {
		res.FindingText = fmt.Sprintf("'%s' appears %d times this month (at least %d required)",
			spec.Keyword, res.Actual, res.Expected)
	}
}

// evalCategoryMinDaily checks the rounded daily average of items matching
// the category keyword (by dish name or category label) against the minimum.
func evalCategoryMinDaily(res *Result, spec Spec, c *corpus) {
	sum := 0
	for _, day := range c.days {
		sum += dayMatchCount(day, spec.Keyword)
	}
	res.Expected = int(spec.Target)
	res.Actual = int(math.Round(float64(sum) / float64(c.totalDays)))
	res.MatchingDays, res.MissingDays = c.splitDays(spec.Keyword, matchDishOrCategory)
	res.Passed = res.Actual >= res.Expected
	if !res.Passed {
		res.FindingText = fmt.Sprintf("'%s': %d varieties per day on average (minimum %d required)",
			spec.Keyword, res.Actual, res.Expected)
	}
}

// evalItemMaxDaily checks the peak single-day count of keyword matches.
func evalItemMaxDaily(res *Result, spec Spec, c *corpus) {
	peak := 0
	for _, day := range c.days {
		n := 0
		for _, dishes := range day.Items {
			for _, dish := range dishes {
				if strings.Contains(strings.ToLower(dish), spec.Keyword) {
					n++
				}
			}
		}
		if n > peak {
			peak = n
		}
	}
	res.Expected = int(spec.Target)
	res.Actual = peak
	res.MatchingDays, res.MissingDays = c.splitDays(spec.Keyword, matchDish)
	res.Passed = res.Actual <= res.Expected
	if !res.Passed {
		res.FindingText = fmt.Sprintf("'%s' peaks at %d portions in a single day (maximum %d allowed)",
			spec.Keyword, res.Actual, res.Expected)
	}
}

// evalPresence checks that the keyword shows up on every parsed day.
func evalPresence(res *Result, keyword string, c *corpus, label string, match func(Day, string) bool) {
	res.Expected = c.totalDays
	res.MatchingDays, res.MissingDays = c.splitDays(keyword, match)
	res.Actual = len(res.MatchingDays)
	res.Passed = res.Actual >= res.Expected
	if !res.Passed {
		res.FindingText = fmt.Sprintf("%s missing on %d of %d days",
			label, len(res.MissingDays), c.totalDays)
	}
}

// evalNoRepeatWeekly sums, per ISO week, the excess occurrences of any dish
// repeated within that week.
func evalNoRepeatWeekly(res *Result, c *corpus) {
	type weekKey struct{ year, week int }
	counts := make(map[weekKey]map[string]int)
	for _, day := range c.days {
		y, w := day.Date.ISOWeek()
		key := weekKey{y, w}
		if counts[key] == nil {
			counts[key] = make(map[string]int)
		}
		for _, name := range uniqueDishes(day) {
			counts[key][name]++
		}
	}

	repeats := 0
	offending := make(map[string]bool)
	for key, dishes := range counts {
		for name, n := range dishes {
			if n > 1 {
				repeats += n - 1
				for _, day := range c.days {
					if y, w := day.Date.ISOWeek(); y == key.year && w == key.week && dayHasDish(day, name) {
						offending[formatDay(day)] = true
					}
				}
			}
		}
	}

	res.Expected = 0
	res.Actual = repeats
	res.MatchingDays = sortedKeys(offending)
	res.Passed = res.Actual == 0
	if !res.Passed {
		res.FindingText = fmt.Sprintf("%d dish repetitions within the same week", repeats)
	}
}

// evalNoRepeatDaily sums, per day, the excess occurrences of any dish listed
// more than once that day (across all categories).
func evalNoRepeatDaily(res *Result, c *corpus) {
	repeats := 0
	var offending []string
	for _, day := range c.days {
		counts := make(map[string]int)
		for _, dishes := range day.Items {
			for _, dish := range dishes {
				name := strings.ToLower(strings.TrimSpace(dish))
				if name != "" {
					counts[name]++
				}
			}
		}
		dayRepeats := 0
		for _, n := range counts {
			if n > 1 {
				dayRepeats += n - 1
			}
		}
		if dayRepeats > 0 {
			repeats += dayRepeats
			offending = append(offending, formatDay(day))
		}
	}

	res.Expected = 0
	res.Actual = repeats
	res.MatchingDays = offending
	res.Passed = res.Actual == 0
	if !res.Passed {
		res.FindingText = fmt.Sprintf("%d dishes repeated within a single day", repeats)
	}
}

// evalNoConsecutive counts dish-name overlaps between each day and the
// immediately preceding one. One overlap per dish name, no matter how many
// categories it appears under on either day.
func evalNoConsecutive(res *Result, c *corpus) {
	overlaps := 0
	var offending []string
	for i := 1; i < len(c.days); i++ {
		prev := make(map[string]bool)
		for _, name := range uniqueDishes(c.days[i-1]) {
			prev[name] = true
		}
		dayOverlaps := 0
		for _, name := range uniqueDishes(c.days[i]) {
			if prev[name] {
				dayOverlaps++
			}
		}
		if dayOverlaps > 0 {
			overlaps += dayOverlaps
			offending = append(offending, formatDay(c.days[i]))
		}
	}

	res.Expected = 0
	res.Actual = overlaps
	res.MatchingDays = offending
	res.Passed = res.Actual == 0
	if !res.Passed {
		res.FindingText = fmt.Sprintf("%d dishes served on consecutive days", overlaps)
	}
}

// evalMandatory checks that the required category or item is present every
// day. A required category matches day category keys; a required item
// matches dish names.
func evalMandatory(res *Result, spec Spec, c *corpus) {
	if spec.RequiredCategory != "" {
		evalPresence(res, spec.RequiredCategory, c,
			fmt.Sprintf("Category '%s'", spec.RequiredCategory), matchCategory)
		return
	}
	evalPresence(res, spec.Keyword, c,
		fmt.Sprintf("Required item '%s'", spec.Keyword), matchDish)
}

// --- shared matching helpers ---

// countOccurrences counts keyword matches across the whole month, with
// multiplicity. Matching is deliberately loose substring matching: dish
// names are free text, and an exact-match dictionary would silently
// under-count ("שניצל תירס" must still count as שניצל). The cost is the odd
// false positive between similarly named dishes.
func (c *corpus) countOccurrences(keyword string) int {
	if keyword == "" {
		return 0
	}
	total := 0
	for name, n := range c.itemFreq {
		if strings.Contains(name, keyword) {
			total += n
		}
	}
	return total
}

// splitDays partitions the parsed days into those where the keyword matches
// and those where it does not, as formatted dates.
func (c *corpus) splitDays(keyword string, match func(Day, string) bool) (matching, missing []string) {
	for _, day := range c.days {
		if match(day, keyword) {
			matching = append(matching, formatDay(day))
		} else {
			missing = append(missing, formatDay(day))
		}
	}
	return matching, missing
}

func matchDish(day Day, keyword string) bool {
	if keyword == "" {
		return false
	}
	for _, dishes := range day.Items {
		for _, dish := range dishes {
			if strings.Contains(strings.ToLower(dish), keyword) {
				return true
			}
		}
	}
	return false
}

func matchCategory(day Day, keyword string) bool {
	if keyword == "" {
		return false
	}
	for category := range day.Items {
		if strings.Contains(strings.ToLower(category), keyword) {
			return true
		}
	}
	return false
}

func matchDishOrCategory(day Day, keyword string) bool {
	return matchDish(day, keyword) || matchCategory(day, keyword)
}

// dayMatchCount counts the items on a day matching the keyword either by
// dish name or by the category label they sit under.
func dayMatchCount(day Day, keyword string) int {
	if keyword == "" {
		return 0
	}
	n := 0
	for category, dishes := range day.Items {
		categoryMatches := strings.Contains(strings.ToLower(category), keyword)
		for _, dish := range dishes {
			if categoryMatches || strings.Contains(strings.ToLower(dish), keyword) {
				n++
			}
		}
	}
	return n
}

func dayHasDish(day Day, name string) bool {
	for _, dishes := range day.Items {
		for _, dish := range dishes {
			if strings.ToLower(strings.TrimSpace(dish)) == name {
				return true
			}
		}
	}
	return false
}

// uniqueDishes returns the deduplicated, lowercased dish names of a day.
func uniqueDishes(day Day) []string {
	seen := make(map[string]bool)
	var names []string
	for _, dishes := range day.Items {
		for _, dish := range dishes {
			name := strings.ToLower(strings.TrimSpace(dish))
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func compareLabel(actual, expected int) string {
	switch {
	case actual > expected:
		return ComparisonAbove
	case actual < expected:
		return ComparisonUnder
	default:
		return ComparisonEven
	}
}

func formatDay(day Day) string {
	return day.Date.Format("2006-01-02")
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
