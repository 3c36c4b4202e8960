package rotation

import "time"

// granularity identifies one retention tier of the GFS scheme.
type granularity int

const (
	granSeconds granularity = iota
	granMinutes
	granHours
	granDays
	granWeeks
	granMonths
	granYears
)

// granularities lists every tier, coarsest first to match Policy field order.
var granularities = []granularity{
	granYears, granMonths, granWeeks, granDays,
	granHours, granMinutes, granSeconds,
}

func (g granularity) String() string {
	switch g {
	case granSeconds:
		return "seconds"
	case granMinutes:
		return "minutes"
	case granHours:
		return "hours"
	case granDays:
		return "days"
	case granWeeks:
		return "weeks"
	case granMonths:
		return "months"
	case granYears:
		return "years"
	}
	return "unknown"
}

// boundary returns the start of the period containing t: the canonical value
// identifying t's bucket. firstweekday only matters for the weeks
// granularity. The result is monotonic in t for a fixed configuration.
func (g granularity) boundary(t time.Time, firstweekday time.Weekday) time.Time {
	year, month, day := t.Date()
	loc := t.Location()

	switch g {
	case granSeconds:
		return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), 0, loc)
	case granMinutes:
		return time.Date(year, month, day, t.Hour(), t.Minute(), 0, 0, loc)
	case granHours:
		return time.Date(year, month, day, t.Hour(), 0, 0, 0, loc)
	case granDays:
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	case granWeeks:
		// Most recent occurrence of firstweekday on or before t's date.
		back := (int(t.Weekday()) - int(firstweekday) + 7) % 7
		return time.Date(year, month, day-back, 0, 0, 0, 0, loc)
	case granMonths:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	case granYears:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	}
	return t
}

// windowStart steps back count-1 whole periods from the period-0 boundary.
// Month and year steps use calendar arithmetic, so stepping back from January
// lands in December of the prior year.
func (g granularity) windowStart(period0 time.Time, count int) time.Time {
	n := count - 1
	switch g {
	case granSeconds:
		return period0.Add(-time.Duration(n) * time.Second)
	case granMinutes:
		return period0.Add(-time.Duration(n) * time.Minute)
	case granHours:
		return period0.Add(-time.Duration(n) * time.Hour)
	case granDays:
		return period0.AddDate(0, 0, -n)
	case granWeeks:
		return period0.AddDate(0, 0, -7*n)
	case granMonths:
		return period0.AddDate(0, -n, 0)
	case granYears:
		return period0.AddDate(-n, 0, 0)
	}
	return period0
}

// subDay reports whether the granularity is finer than a calendar day.
func (g granularity) subDay() bool {
	return g == granSeconds || g == granMinutes || g == granHours
}
