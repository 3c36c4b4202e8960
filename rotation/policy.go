package rotation

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNegativeCount reports a retention count below zero.
	ErrNegativeCount = errors.New("rotation: retention count must not be negative")

	// ErrInvalidWeekday reports a first-weekday value outside Sunday..Saturday.
	ErrInvalidWeekday = errors.New("rotation: invalid first weekday")

	// ErrSubDayCount reports an hours, minutes, or seconds count passed to a
	// date-only entry point. Calendar dates carry no time of day.
	ErrSubDayCount = errors.New("rotation: date-only rotation cannot retain hours, minutes, or seconds")
)

// Policy is a tiered retention configuration. Each count is the number of
// whole calendar periods, reaching back from Now inclusive, in which the
// earliest backup is retained. A count of zero deactivates that tier.
//
// The zero value keeps nothing: every input timestamp lands in the delete
// set. That is deliberate, so a forgotten configuration fails loudly rather
// than silently retaining everything.
type Policy struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int

	// FirstWeekday anchors week periods. Unset means Saturday, the
	// conventional day for weekly full backups.
	FirstWeekday Weekday

	// Now is the reference instant for period 0. The zero value means
	// "read the clock", once per call.
	Now time.Time

	// Clock overrides the time source used when Now is unset. Nil means the
	// system clock.
	Clock Clock
}

// count returns the retention count for one granularity.
func (p Policy) count(g granularity) int {
	switch g {
	case granSeconds:
		return p.Seconds
	case granMinutes:
		return p.Minutes
	case granHours:
		return p.Hours
	case granDays:
		return p.Days
	case granWeeks:
		return p.Weeks
	case granMonths:
		return p.Months
	case granYears:
		return p.Years
	}
	return 0
}

// validate checks the configuration. It never inspects the input timestamps:
// a bad policy is rejected before any bucketing happens, with no partial
// result.
func (p Policy) validate(dateOnly bool) error {
	for _, g := range granularities {
		n := p.count(g)
		if n < 0 {
			return fmt.Errorf("%w: %s = %d", ErrNegativeCount, g, n)
		}
		if dateOnly && n > 0 && g.subDay() {
			return fmt.Errorf("%w: %s = %d", ErrSubDayCount, g, n)
		}
	}
	if !p.FirstWeekday.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, int(p.FirstWeekday))
	}
	return nil
}

// resolveNow returns the reference instant, consulting the clock only when
// Now is unset.
func (p Policy) resolveNow() time.Time {
	if !p.Now.IsZero() {
		return p.Now
	}
	clock := p.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return clock.Now()
}
