package service

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

// DefaultMaxOccurrences bounds how many occurrences a single record may emit per window.
const DefaultMaxOccurrences = 5000

var rruleWeekdays = map[models.Weekday]rrule.Weekday{
	models.Monday:    rrule.MO,
	models.Tuesday:   rrule.TU,
	models.Wednesday: rrule.WE,
	models.Thursday:  rrule.TH,
	models.Friday:    rrule.FR,
	models.Saturday:  rrule.SA,
	models.Sunday:    rrule.SU,
}

// RecurrenceExpander materializes availability records into occurrences inside a window.
// Rules are evaluated on the wall clock of its location, so by_weekday and until
// follow that zone and occurrences keep their local hour across DST changes.
type RecurrenceExpander struct {
	maxOccurrences int
	location       *time.Location
	metrics        *MetricsService
	logger         *zap.Logger
}

// NewRecurrenceExpander builds an expander. A non-positive cap falls back to DefaultMaxOccurrences.
func NewRecurrenceExpander(maxOccurrences int, metrics *MetricsService, logger *zap.Logger) *RecurrenceExpander {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecurrenceExpander{maxOccurrences: maxOccurrences, location: time.UTC, metrics: metrics, logger: logger}
}

// In returns an expander evaluating rules in loc. A nil loc keeps the current zone.
func (e *RecurrenceExpander) In(loc *time.Location) *RecurrenceExpander {
	if loc == nil || loc == e.location {
		return e
	}
	clone := *e
	clone.location = loc
	return &clone
}

// Expand yields the occurrences of a recurring record whose start lies in
// [windowStart, windowEnd]. Rules that cannot be interpreted yield nothing.
func (e *RecurrenceExpander) Expand(record models.AvailabilityRecord, windowStart, windowEnd time.Time) iter.Seq[models.Occurrence] {
	if !record.IsRecurring || !windowStart.Before(windowEnd) {
		return emptyOccurrences
	}

	rule, err := buildRRule(record, e.location)
	if err != nil {
		e.metrics.RecordRecurrenceParseError()
		e.logger.Warn("recurrence parse error",
			zap.String("record_id", record.ID),
			zap.String("owner_id", record.OwnerID),
			zap.Error(err))
		return emptyOccurrences
	}

	duration := record.Duration()
	return func(yield func(models.Occurrence) bool) {
		next := rule.Iterator()
		emitted := 0
		for {
			start, ok := next()
			if !ok || start.After(windowEnd) {
				return
			}
			if start.Before(windowStart) {
				continue
			}
			if emitted == e.maxOccurrences {
				e.logger.Warn("occurrence cap reached",
					zap.String("record_id", record.ID),
					zap.Int("cap", e.maxOccurrences))
				return
			}
			emitted++
			occ := models.Occurrence{
				OwnerID:        record.OwnerID,
				StartTime:      start,
				EndTime:        start.Add(duration),
				Kind:           record.Kind,
				SourceRecordID: record.ID,
			}
			if !yield(occ) {
				return
			}
		}
	}
}

// ExpandAll yields occurrences for any record: recurring records are expanded,
// one-off records are emitted as themselves when they intersect the window.
func (e *RecurrenceExpander) ExpandAll(record models.AvailabilityRecord, windowStart, windowEnd time.Time) iter.Seq[models.Occurrence] {
	if record.IsRecurring {
		return e.Expand(record, windowStart, windowEnd)
	}
	if record.StartTime.After(windowEnd) || !record.EndTime.After(windowStart) {
		return emptyOccurrences
	}
	return func(yield func(models.Occurrence) bool) {
		yield(models.Occurrence{
			OwnerID:        record.OwnerID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			Kind:           record.Kind,
			SourceRecordID: record.ID,
		})
	}
}

// Materialize expands every record and returns the occurrences sorted by start time.
func (e *RecurrenceExpander) Materialize(records []models.AvailabilityRecord, windowStart, windowEnd time.Time) []models.Occurrence {
	var out []models.Occurrence
	for _, record := range records {
		out = slices.AppendSeq(out, e.ExpandAll(record, windowStart, windowEnd))
	}
	slices.SortStableFunc(out, func(a, b models.Occurrence) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out
}

func emptyOccurrences(func(models.Occurrence) bool) {}

func buildRRule(record models.AvailabilityRecord, loc *time.Location) (*rrule.RRule, error) {
	if record.RecurrenceRule == nil {
		return nil, fmt.Errorf("recurring record has no rule")
	}
	rule := *record.RecurrenceRule
	rule.ByWeekday = slices.Clone(rule.ByWeekday)
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	opt := rrule.ROption{
		Dtstart:  record.StartTime.In(loc),
		Interval: rule.Interval,
	}
	switch rule.Frequency {
	case models.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case models.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
		for _, day := range rule.ByWeekday {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[day])
		}
	}
	if rule.Until != nil {
		// until is a date bound: occurrences on that calendar day still count.
		y, m, d := rule.Until.Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, loc)
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return r, nil
}
