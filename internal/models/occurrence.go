package models

import "time"

// Occurrence is one concrete, non-persisted instance of an availability record.
type Occurrence struct {
	OwnerID        string           `json:"owner_id"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
	Kind           AvailabilityKind `json:"kind"`
	SourceRecordID string           `json:"source_record_id"`
}

// Interval returns the occurrence as a half-open interval.
func (o Occurrence) Interval() Interval {
	return Interval{Start: o.StartTime, End: o.EndTime}
}

// Duration returns the occurrence length.
func (o Occurrence) Duration() time.Duration {
	return o.EndTime.Sub(o.StartTime)
}
