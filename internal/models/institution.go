package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if hour == 24 && minute != 0 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// On returns the instant at this time of day on day's calendar date, in day's
// location. 24:00 resolves to the following midnight.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, day.Location())
}

// String formats as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON encodes as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// UnmarshalJSON accepts dates as YYYY-MM-DD or RFC3339 timestamps.
func (r *DateRange) UnmarshalJSON(data []byte) error {
	var aux struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	start, err := parseDate(aux.Start)
	if err != nil {
		return err
	}
	end, err := parseDate(aux.End)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("date range end %s before start %s", aux.End, aux.Start)
	}
	r.Start, r.End = start, end
	return nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

// Contains reports whether the calendar date of t (in t's location) falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}

// InstitutionConstraints is an immutable snapshot of an institution's scheduling policy.
type InstitutionConstraints struct {
	InstitutionID     string          `json:"institution_id"`
	Location          *time.Location  `json:"-"`
	Timezone          string          `json:"timezone"`
	WorkingHoursStart TimeOfDay       `json:"working_hours_start"`
	WorkingHoursEnd   TimeOfDay       `json:"working_hours_end"`
	WorkingDays       []Weekday       `json:"working_days"`
	VacationPeriods   []DateRange     `json:"vacation_periods"`
	RoomAvailability  json.RawMessage `json:"room_availability,omitempty"`
}

// IsWorkingDay reports whether day is one of the institution's working days.
func (c InstitutionConstraints) IsWorkingDay(day Weekday) bool {
	for _, d := range c.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// InVacation reports whether t falls on a vacation date.
func (c InstitutionConstraints) InVacation(t time.Time) bool {
	for _, period := range c.VacationPeriods {
		if period.Contains(t) {
			return true
		}
	}
	return false
}

// Local converts t into the institution's time zone.
func (c InstitutionConstraints) Local(t time.Time) time.Time {
	if c.Location == nil {
		return t
	}
	return t.In(c.Location)
}

// InstitutionSettings is the stored, possibly incomplete scheduling policy of an institution.
type InstitutionSettings struct {
	ID                string
	Name              string
	Timezone          string
	WorkingHoursStart string
	WorkingHoursEnd   string
	WorkingDays       []int
	VacationPeriods   []DateRange
	RoomAvailability  json.RawMessage
}
