package nldate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Range is a start/end pair of calendar date-times. A single-day result has
// Start == End. Start never falls after End.
type Range struct {
	Start time.Time
	End   time.Time
}

const weekdayAlternation = `(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`

var (
	reNextWeekday = regexp.MustCompile(`next\s+` + weekdayAlternation)
	reThisWeekday = regexp.MustCompile(`this\s+` + weekdayAlternation)
	reBareWeekday = regexp.MustCompile(`\b` + weekdayAlternation + `\b`)
	reDuration    = regexp.MustCompile(`(\d+)\s*(day|days|week|weeks)`)
	reFromTo      = regexp.MustCompile(`from\s+` + weekdayAlternation + `\s+to\s+` + weekdayAlternation)
	reTimeOfDay   = regexp.MustCompile(`at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
)

// weekdayIndex maps lowercase weekday names to Monday-based indexes.
var weekdayIndex = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// mondayBased converts Go's Sunday-based weekday to a Monday-based index.
func mondayBased(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// nextWeekday returns the next occurrence of the named weekday strictly
// after now's date: a same-day match rolls forward a full week.
func nextWeekday(now time.Time, name string) time.Time {
	target, ok := weekdayIndex[name]
	if !ok {
		return now.AddDate(0, 0, 1)
	}

	daysAhead := (target - mondayBased(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return now.AddDate(0, 0, daysAhead)
}

// dateRule is a single date-resolution heuristic. It reports whether it
// applies to the query, and if so, the resolved range.
type dateRule func(query string, now time.Time) (Range, bool)

// dateRules is the fixed resolution chain for the date component. The rules
// are tried in order and the first match wins; the time-of-day component is
// layered on separately afterwards.
var dateRules = []dateRule{
	ruleNextWeekday,
	ruleThisWeekday,
	ruleBareWeekday,
	ruleTomorrow,
	ruleToday,
	ruleNextWeek,
	ruleThisWeek,
}

func ruleNextWeekday(query string, now time.Time) (Range, bool) {
	m := reNextWeekday.FindStringSubmatch(query)
	if m == nil {
		return Range{}, false
	}
	day := nextWeekday(now, m[1])
	return Range{Start: day, End: day}, true
}

// "this <weekday>" resolves exactly like "next <weekday>": the nearest
// future occurrence, rolling a same-day match to next week. The two phrases
// are deliberately not distinguished.
func ruleThisWeekday(query string, now time.Time) (Range, bool) {
	m := reThisWeekday.FindStringSubmatch(query)
	if m == nil {
		return Range{}, false
	}
	day := nextWeekday(now, m[1])
	return Range{Start: day, End: day}, true
}

func ruleBareWeekday(query string, now time.Time) (Range, bool) {
	m := reBareWeekday.FindStringSubmatch(query)
	if m == nil {
		return Range{}, false
	}
	day := nextWeekday(now, m[1])
	return Range{Start: day, End: day}, true
}

func ruleTomorrow(query string, now time.Time) (Range, bool) {
	if !strings.Contains(query, "tomorrow") {
		return Range{}, false
	}
	day := now.AddDate(0, 0, 1)
	return Range{Start: day, End: day}, true
}

func ruleToday(query string, now time.Time) (Range, bool) {
	if !strings.Contains(query, "today") {
		return Range{}, false
	}
	return Range{Start: now, End: now}, true
}

// "next week" models a working week: five days starting seven days out.
func ruleNextWeek(query string, now time.Time) (Range, bool) {
	if !strings.Contains(query, "next week") {
		return Range{}, false
	}
	start := now.AddDate(0, 0, 7)
	return Range{Start: start, End: start.AddDate(0, 0, 4)}, true
}

// "this week" runs from tomorrow to the upcoming Friday; on a Friday or
// weekend the Friday rolls a week forward.
func ruleThisWeek(query string, now time.Time) (Range, bool) {
	if !strings.Contains(query, "this week") {
		return Range{}, false
	}
	daysUntilFriday := (weekdayIndex["friday"] - mondayBased(now.Weekday()) + 7) % 7
	if daysUntilFriday == 0 {
		daysUntilFriday = 7
	}
	return Range{
		Start: now.AddDate(0, 0, 1),
		End:   now.AddDate(0, 0, daysUntilFriday),
	}, true
}

// applyDuration extends the range for "<N> days"/"<N> weeks" phrases. It
// layers on top of whatever date rule fired: the start stays put and the
// end becomes start + N-1 days.
func applyDuration(query string, r Range) Range {
	m := reDuration.FindStringSubmatch(query)
	if m == nil {
		return r
	}

	num, err := strconv.Atoi(m[1])
	if err != nil {
		return r
	}
	if strings.Contains(m[2], "week") {
		num *= 7
	}
	if num < 1 {
		num = 1
	}

	r.End = r.Start.AddDate(0, 0, num-1)
	return r
}

// applyFromTo handles explicit "from <weekday> to <weekday>" ranges,
// overriding anything the earlier rules resolved. An end that does not land
// strictly after the start is pushed into the following week.
func applyFromTo(query string, r Range, now time.Time) Range {
	m := reFromTo.FindStringSubmatch(query)
	if m == nil {
		return r
	}

	start := nextWeekday(now, m[1])
	end := nextWeekday(now, m[2])
	if !end.After(start) {
		end = end.AddDate(0, 0, 7)
	}
	return Range{Start: start, End: end}
}

// applyTimeOfDay is always the final step: it replaces the clock component
// of both endpoints, leaving the resolved dates alone. Without an am/pm
// marker, hours below 9 are read as afternoon slots; with no time phrase at
// all, both endpoints default to 10:00.
func applyTimeOfDay(query string, r Range) Range {
	hour, minute := 10, 0

	if m := reTimeOfDay.FindStringSubmatch(query); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}

		switch meridiem := m[3]; {
		case meridiem == "pm" && hour != 12:
			hour += 12
		case meridiem == "am" && hour == 12:
			hour = 0
		case meridiem == "" && hour < 9:
			hour += 12
		}
	}

	r.Start = atClock(r.Start, hour, minute)
	r.End = atClock(r.End, hour, minute)
	return r
}

// atClock returns t with its time-of-day replaced, seconds zeroed.
func atClock(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}
