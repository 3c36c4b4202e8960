package rotation

import (
	"fmt"
	"strings"
	"time"
)

// Weekday selects the first day of the week for week-period anchoring.
// The zero value means "unset" and resolves to DefaultFirstWeekday, so a
// zero Policy gets the conventional Saturday-anchored full-backup week.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DefaultFirstWeekday is used when Policy.FirstWeekday is unset.
const DefaultFirstWeekday = Saturday

// ParseWeekday converts a weekday name ("saturday", "Sun", ...) to a Weekday.
func ParseWeekday(s string) (Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun":
		return Sunday, nil
	case "monday", "mon":
		return Monday, nil
	case "tuesday", "tue":
		return Tuesday, nil
	case "wednesday", "wed":
		return Wednesday, nil
	case "thursday", "thu":
		return Thursday, nil
	case "friday", "fri":
		return Friday, nil
	case "saturday", "sat":
		return Saturday, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

func (w Weekday) String() string {
	switch w {
	case Sunday:
		return "sunday"
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	}
	return fmt.Sprintf("weekday(%d)", int(w))
}

// valid reports whether w is one of the seven weekday constants or unset.
func (w Weekday) valid() bool {
	return w >= 0 && w <= Saturday
}

// std converts w to the standard library's weekday numbering, resolving the
// zero value to the default.
func (w Weekday) std() time.Weekday {
	if w == 0 {
		w = DefaultFirstWeekday
	}
	return time.Weekday(w - Sunday)
}
