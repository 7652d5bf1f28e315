package models

import "time"

// Weekday is an upper-case English day name, e.g. MONDAY.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdayIndex = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
	Sunday:    7,
}

var indexWeekday = map[int]Weekday{
	1: Monday,
	2: Tuesday,
	3: Wednesday,
	4: Thursday,
	5: Friday,
	6: Saturday,
	7: Sunday,
}

// Valid reports whether the day name is known.
func (d Weekday) Valid() bool {
	_, ok := weekdayIndex[d]
	return ok
}

// Index returns the ISO day number (Monday=1 … Sunday=7), or 0 when unknown.
func (d Weekday) Index() int {
	return weekdayIndex[d]
}

// Time converts to the standard library weekday.
func (d Weekday) Time() time.Weekday {
	idx := weekdayIndex[d]
	if idx == 7 {
		return time.Sunday
	}
	return time.Weekday(idx)
}

// WeekdayFromIndex maps an ISO day number to its name. Unknown numbers yield "".
func WeekdayFromIndex(idx int) Weekday {
	return indexWeekday[idx]
}

// WeekdayOf returns the day name of t in its own location.
func WeekdayOf(t time.Time) Weekday {
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	return indexWeekday[int(t.Weekday())]
}
