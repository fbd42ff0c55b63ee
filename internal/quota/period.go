// Package quota computes the rolling cooldown windows that free-generation
// allowances reset on.
package quota

import "time"

const keyLayout = "2006-01-02"

// Schedule partitions each calendar year into fixed-width windows of
// CooldownDays, anchored at January 1. Within a window the period key is
// stable; across windows it strictly increases as an ISO date.
//
// The anchor resets every January 1, so the window containing a year
// boundary can be shorter than CooldownDays. Matches the shipped behavior;
// changing the anchor would silently shift every user's reset time.
type Schedule struct {
	cooldownDays int
}

func NewSchedule(cooldownDays int) Schedule {
	if cooldownDays < 1 {
		cooldownDays = 1
	}
	return Schedule{cooldownDays: cooldownDays}
}

func (s Schedule) CooldownDays() int {
	return s.cooldownDays
}

// PeriodStart returns the first instant of the window containing now.
func (s Schedule) PeriodStart(now time.Time) time.Time {
	now = now.UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	window := (now.YearDay() - 1) / s.cooldownDays
	return yearStart.AddDate(0, 0, window*s.cooldownDays)
}

// PeriodKey returns the canonical key for the window containing now.
func (s Schedule) PeriodKey(now time.Time) string {
	return s.PeriodStart(now).Format(keyLayout)
}

// NextReset returns the first instant of the window after the one
// containing now, i.e. when the free quota next resets.
func (s Schedule) NextReset(now time.Time) time.Time {
	next := s.PeriodStart(now).AddDate(0, 0, s.cooldownDays)
	yearStart := time.Date(next.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if next.Year() != now.UTC().Year() && next.After(yearStart) {
		// The new year re-anchors the schedule.
		return yearStart
	}
	return next
}
