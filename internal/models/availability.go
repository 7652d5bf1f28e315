package models

import (
	"fmt"
	"strings"
	"time"
)

// AvailabilityKind separates bookable windows from advisory exclusions.
type AvailabilityKind string

const (
	AvailabilityKindAvailable   AvailabilityKind = "available"
	AvailabilityKindUnavailable AvailabilityKind = "unavailable"
)

// Valid reports whether the kind is one of the known values.
func (k AvailabilityKind) Valid() bool {
	return k == AvailabilityKindAvailable || k == AvailabilityKindUnavailable
}

// Frequency is the recurrence step unit. Only daily and weekly are modelled.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// RecurrenceRule describes how a recurring availability repeats.
type RecurrenceRule struct {
	Frequency Frequency  `json:"frequency" validate:"required,oneof=daily weekly"`
	Interval  int        `json:"interval,omitempty" validate:"omitempty,min=1,max=52"`
	ByWeekday []Weekday  `json:"by_weekday,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
}

// Normalize lower-cases the frequency, applies the default interval and
// de-duplicates weekdays. It does not validate.
func (r *RecurrenceRule) Normalize() {
	if r == nil {
		return
	}
	r.Frequency = Frequency(strings.ToLower(strings.TrimSpace(string(r.Frequency))))
	if r.Interval == 0 {
		r.Interval = 1
	}
	if len(r.ByWeekday) == 0 {
		return
	}
	seen := make(map[Weekday]bool, len(r.ByWeekday))
	days := make([]Weekday, 0, len(r.ByWeekday))
	for _, day := range r.ByWeekday {
		day = Weekday(strings.ToUpper(strings.TrimSpace(string(day))))
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	r.ByWeekday = days
}

// Validate checks the tagged-union invariants of the rule.
func (r *RecurrenceRule) Validate() error {
	if r == nil {
		return fmt.Errorf("recurrence rule missing")
	}
	switch r.Frequency {
	case FrequencyDaily:
		if len(r.ByWeekday) > 0 {
			return fmt.Errorf("by_weekday is only allowed for weekly rules")
		}
	case FrequencyWeekly:
		for _, day := range r.ByWeekday {
			if !day.Valid() {
				return fmt.Errorf("unknown weekday %q", day)
			}
		}
	default:
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("interval must be >= 1, got %d", r.Interval)
	}
	return nil
}

// AvailabilityRecord is a stored availability window owned by a trainer.
type AvailabilityRecord struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
	IsRecurring    bool             `json:"is_recurring"`
	RecurrenceRule *RecurrenceRule  `json:"recurrence_rule,omitempty"`
	Kind           AvailabilityKind `json:"kind"`
	Note           string           `json:"note"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Duration returns the length of the source window.
func (r AvailabilityRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps applies the half-open overlap test a1 < b2 && b1 < a2.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// AvailabilityFilter narrows availability lookups to one owner and an optional kind and range.
type AvailabilityFilter struct {
	OwnerID    string
	Kind       AvailabilityKind
	RangeStart time.Time
	RangeEnd   time.Time
}
