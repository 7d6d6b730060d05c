package nldate

import "time"

// Clock supplies the reference moment that all relative-date arithmetic is
// anchored to. Extraction is a pure function of (query, Clock.Now()), so
// injecting a fixed clock makes every result reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.Instant }
