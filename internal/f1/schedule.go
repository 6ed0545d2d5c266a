package f1

import (
	"time"

	"github.com/samber/lo"
)

// CalendarEntry is a race with its display flags for one render.
type CalendarEntry struct {
	Race     Race
	StartsAt time.Time

	// Past is set when the race started at or before the reference instant.
	Past bool
	// Next is set on at most one entry: the first race after the reference instant.
	Next bool
}

// Calendar is the schedule view at a reference instant.
type Calendar struct {
	Entries []CalendarEntry
	// Next points into Entries; nil when the season has concluded.
	Next *CalendarEntry
	// Concluded is true when no race starts after the reference instant.
	Concluded bool
}

// NextRace returns the index of the first race whose start is strictly after now.
// It returns (-1, false) when no such race exists. Races whose start cannot be
// determined never qualify.
func NextRace(races []Race, now time.Time) (int, bool) {
	_, idx, ok := lo.FindIndexOf(races, func(r Race) bool {
		start, err := r.StartsAt()
		return err == nil && start.After(now)
	})
	return idx, ok
}

// BuildCalendar flags every race relative to now, in the given order.
func BuildCalendar(races []Race, now time.Time) (Calendar, error) {
	entries := make([]CalendarEntry, 0, len(races))
	for _, r := range races {
		start, err := r.StartsAt()
		if err != nil {
			return Calendar{}, err
		}
		entries = append(entries, CalendarEntry{
			Race:     r,
			StartsAt: start,
			Past:     !start.After(now),
		})
	}

	cal := Calendar{Entries: entries}

	idx, ok := NextRace(races, now)
	if !ok {
		cal.Concluded = true
		return cal, nil
	}
	cal.Entries[idx].Next = true
	cal.Next = &cal.Entries[idx]
	return cal, nil
}
