package domain

import "time"

// FireDate is the calendar form scheduled broadcasts are configured with.
type FireDate struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ScheduledBroadcast is a one-shot announcement to every directory member at a
// fixed wall-clock time. Entries are read once at startup and never persisted
// back; a stale entry is dropped instead of firing late.
type ScheduledBroadcast struct {
	Date    FireDate `json:"date"`
	Message string   `json:"message"`
}

// FireAt resolves the configured calendar date in the given location.
func (b ScheduledBroadcast) FireAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}

	return time.Date(b.Date.Year, time.Month(b.Date.Month), b.Date.Day, b.Date.Hour, b.Date.Minute, 0, 0, loc)
}
