package rotation

import "time"

// Clock supplies the current time when a Policy carries no explicit Now.
// It is read at most once per call, so a single decision never observes two
// different instants.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
