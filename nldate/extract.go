// Package nldate extracts dates, date ranges and times of day from short
// English utterances ("next monday", "for 3 days", "from tuesday to
// friday at 3pm") using an ordered chain of heuristic rules.
//
// The chain has fixed precedence: one of the date rules resolves the base
// date (first match wins, default tomorrow), a duration phrase stretches
// the range, an explicit from/to range overrides both endpoints, and the
// time-of-day rule always runs last. Every step has a concrete default, so
// extraction never fails.
package nldate

import "time"

// Extractor resolves natural-language date expressions against an injected
// clock. Safe for concurrent use.
type Extractor struct {
	clock Clock
}

// NewExtractor creates an extractor anchored to the given clock. A nil
// clock falls back to the system clock.
func NewExtractor(clock Clock) *Extractor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Extractor{clock: clock}
}

// Range extracts a start/end range from the query. With no date phrase at
// all the result is a single day, tomorrow, at 10:00.
func (e *Extractor) Range(query string) Range {
	now := e.clock.Now()

	tomorrow := now.AddDate(0, 0, 1)
	r := Range{Start: tomorrow, End: tomorrow}

	for _, rule := range dateRules {
		if resolved, ok := rule(query, now); ok {
			r = resolved
			break
		}
	}

	r = applyDuration(query, r)
	r = applyFromTo(query, r, now)
	return applyTimeOfDay(query, r)
}

// At extracts a single point in time from the query: the start of the
// extracted range.
func (e *Extractor) At(query string) time.Time {
	return e.Range(query).Start
}

// FormatDate renders the calendar-date component of t.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateTime renders t as a combined date-time without a zone suffix,
// matching the local-time contract of the action payloads.
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
