// Package rotation decides which backups to keep under a grandfather-father-son
// (GFS) retention scheme.
//
// Given a collection of backup timestamps and a [Policy] with per-granularity
// retention counts (seconds, minutes, hours, days, weeks, months, years), the
// package partitions the collection into a keep set and a delete set. It is a
// pure decision function: it never touches storage. Mapping a timestamp back
// to a physical backup artifact and deleting it is the caller's job.
//
// # Bucketing
//
// For each granularity with a positive count, the retained window reaches
// back that many whole calendar periods from the reference time. Every
// timestamp inside the window is assigned to the period (bucket) containing
// it, and the earliest timestamp in each occupied bucket is kept: the first
// backup of a period is the archival copy, later ones in the same period are
// redundant. Week periods are anchored on a configurable first weekday,
// defaulting to Saturday. The keep set is the union over all active
// granularities; the delete set is everything else.
//
// Timestamps strictly after the reference time are never kept.
//
// # Usage
//
//	keep, err := rotation.ToKeep(backups, rotation.Policy{
//	    Days:         7,
//	    Weeks:        4,
//	    Months:       3,
//	    FirstWeekday: rotation.Saturday,
//	})
//
// Leaving Policy.Now at its zero value uses the current time, read once per
// call. DatesToKeep and DatesToDelete are date-only variants for backups that
// carry no time of day; they reject policies with sub-day counts.
package rotation
