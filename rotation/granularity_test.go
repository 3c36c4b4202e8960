package rotation

import (
	"testing"
	"time"
)

func TestBoundaryTruncation(t *testing.T) {
	// 1999-12-31 was a Friday.
	ts := time.Date(1999, 12, 31, 23, 59, 58, 123456789, time.UTC)

	tests := []struct {
		gran granularity
		want time.Time
	}{
		{granSeconds, time.Date(1999, 12, 31, 23, 59, 58, 0, time.UTC)},
		{granMinutes, time.Date(1999, 12, 31, 23, 59, 0, 0, time.UTC)},
		{granHours, time.Date(1999, 12, 31, 23, 0, 0, 0, time.UTC)},
		{granDays, time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
		{granWeeks, time.Date(1999, 12, 25, 0, 0, 0, 0, time.UTC)},
		{granMonths, time.Date(1999, 12, 1, 0, 0, 0, 0, time.UTC)},
		{granYears, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := tt.gran.boundary(ts, time.Saturday)
		if !got.Equal(tt.want) {
			t.Errorf("%s boundary = %v, want %v", tt.gran, got, tt.want)
		}
	}
}

func TestWeekBoundaryAnchoring(t *testing.T) {
	tests := []struct {
		name         string
		ts           time.Time
		firstweekday time.Weekday
		want         time.Time
	}{
		{
			name:         "timestamp on the anchor day is its own boundary",
			ts:           time.Date(1999, 12, 25, 15, 30, 0, 0, time.UTC), // Saturday
			firstweekday: time.Saturday,
			want:         time.Date(1999, 12, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			name:         "anchor in the previous month",
			ts:           time.Date(1999, 12, 2, 0, 0, 0, 0, time.UTC), // Thursday
			firstweekday: time.Saturday,
			want:         time.Date(1999, 11, 27, 0, 0, 0, 0, time.UTC),
		},
		{
			name:         "anchor in the previous year",
			ts:           time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), // Saturday
			firstweekday: time.Monday,
			want:         time.Date(1999, 12, 27, 0, 0, 0, 0, time.UTC),
		},
		{
			name:         "monday anchoring",
			ts:           time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), // Friday
			firstweekday: time.Monday,
			want:         time.Date(1999, 12, 27, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := granWeeks.boundary(tt.ts, tt.firstweekday)
			if !got.Equal(tt.want) {
				t.Errorf("week boundary of %v anchored at %v = %v, want %v",
					tt.ts, tt.firstweekday, got, tt.want)
			}
		})
	}
}

func TestBoundaryMonotonic(t *testing.T) {
	// A pile of instants around awkward edges, in ascending order.
	instants := []time.Time{
		time.Date(1998, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 2, 28, 12, 0, 0, 0, time.UTC),
		time.Date(1999, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 25, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 999999999, time.UTC),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 2, 29, 6, 30, 0, 0, time.UTC),
	}

	for _, g := range granularities {
		for i := 1; i < len(instants); i++ {
			b1 := g.boundary(instants[i-1], time.Saturday)
			b2 := g.boundary(instants[i], time.Saturday)
			if b2.Before(b1) {
				t.Errorf("%s boundary not monotonic: %v -> %v but boundary %v -> %v",
					g, instants[i-1], instants[i], b1, b2)
			}
		}
	}
}

func TestWindowStartCalendarRollover(t *testing.T) {
	tests := []struct {
		name    string
		gran    granularity
		period0 time.Time
		count   int
		want    time.Time
	}{
		{
			name:    "two months back from January crosses the year",
			gran:    granMonths,
			period0: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			count:   3,
			want:    time.Date(1999, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "months within one year",
			gran:    granMonths,
			period0: time.Date(1999, 12, 1, 0, 0, 0, 0, time.UTC),
			count:   3,
			want:    time.Date(1999, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "years",
			gran:    granYears,
			period0: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
			count:   3,
			want:    time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "weeks cross a month edge",
			gran:    granWeeks,
			period0: time.Date(1999, 12, 4, 0, 0, 0, 0, time.UTC),
			count:   2,
			want:    time.Date(1999, 11, 27, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "days cross a year edge",
			gran:    granDays,
			period0: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			count:   2,
			want:    time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "count of one keeps only period zero",
			gran:    granDays,
			period0: time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
			count:   1,
			want:    time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.gran.windowStart(tt.period0, tt.count)
			if !got.Equal(tt.want) {
				t.Errorf("windowStart(%v, %d) = %v, want %v", tt.period0, tt.count, got, tt.want)
			}
		})
	}
}
