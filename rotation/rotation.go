package rotation

import (
	"sort"
	"time"
)

// ToKeep returns the backups that the policy retains, deduplicated and in
// ascending order. Backups strictly after the reference time are never
// retained.
func ToKeep(backups []time.Time, p Policy) ([]time.Time, error) {
	if err := p.validate(false); err != nil {
		return nil, err
	}
	return keep(backups, p, p.resolveNow()), nil
}

// ToDelete returns the distinct backups the policy does not retain: the
// input minus ToKeep, under set semantics. Exact-duplicate timestamps
// collapse to a single entry.
func ToDelete(backups []time.Time, p Policy) ([]time.Time, error) {
	if err := p.validate(false); err != nil {
		return nil, err
	}
	now := p.resolveNow()
	return subtract(backups, keep(backups, p, now)), nil
}

// DatesToKeep is the date-only variant of ToKeep for backups that carry no
// time of day. Inputs are taken at their calendar date; any time-of-day
// component is truncated. Policies with hours, minutes, or seconds counts are
// rejected with ErrSubDayCount.
//
// The reference anchor is the end of now's calendar day, so backups dated on
// the reference day itself are inside the retained window.
func DatesToKeep(dates []time.Time, p Policy) ([]time.Time, error) {
	if err := p.validate(true); err != nil {
		return nil, err
	}
	return keep(midnights(dates), p, endOfDay(p.resolveNow())), nil
}

// DatesToDelete is the date-only variant of ToDelete. See DatesToKeep.
func DatesToDelete(dates []time.Time, p Policy) ([]time.Time, error) {
	if err := p.validate(true); err != nil {
		return nil, err
	}
	days := midnights(dates)
	return subtract(days, keep(days, p, endOfDay(p.resolveNow()))), nil
}

// keep unions the per-granularity retained sets. The policy must already be
// validated and now resolved: validation and the clock read happen exactly
// once per public call.
func keep(backups []time.Time, p Policy, now time.Time) []time.Time {
	firstweekday := p.FirstWeekday.std()
	kept := make(map[int64]time.Time)
	for _, g := range granularities {
		retain(kept, g, p.count(g), backups, now, firstweekday)
	}
	return sorted(kept)
}

// retain merges into dst the representatives for one granularity: the
// earliest backup of each occupied period inside the retained window. A
// non-positive count contributes nothing. Period 0 is the period containing
// now, and the window reaches back count-1 further whole periods.
func retain(dst map[int64]time.Time, g granularity, count int, backups []time.Time, now time.Time, firstweekday time.Weekday) {
	if count <= 0 {
		return
	}
	start := g.windowStart(g.boundary(now, firstweekday), count)

	// Earliest per bucket. On exactly equal instants the first one in input
	// order wins, which keeps the choice stable under re-runs.
	buckets := make(map[int64]time.Time)
	for _, t := range backups {
		if t.After(now) || t.Before(start) {
			continue
		}
		b := g.boundary(t, firstweekday).UnixNano()
		if cur, ok := buckets[b]; !ok || t.Before(cur) {
			buckets[b] = t
		}
	}
	for _, t := range buckets {
		dst[t.UnixNano()] = t
	}
}

// subtract returns the distinct elements of backups absent from kept, in
// ascending order.
func subtract(backups, kept []time.Time) []time.Time {
	drop := make(map[int64]struct{}, len(kept))
	for _, t := range kept {
		drop[t.UnixNano()] = struct{}{}
	}
	rest := make(map[int64]time.Time, len(backups))
	for _, t := range backups {
		key := t.UnixNano()
		if _, ok := drop[key]; ok {
			continue
		}
		if _, ok := rest[key]; !ok {
			rest[key] = t
		}
	}
	return sorted(rest)
}

func sorted(set map[int64]time.Time) []time.Time {
	out := make([]time.Time, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func midnights(dates []time.Time) []time.Time {
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		year, month, day := d.Date()
		out[i] = time.Date(year, month, day, 0, 0, 0, 0, d.Location())
	}
	return out
}

func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
