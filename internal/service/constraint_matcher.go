package service

import (
	"time"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

// ConstraintMatcher filters occurrences against an institution's working hours.
// With strictCalendar set, non-working days and vacation dates are rejected outright
// instead of only lowering the score.
type ConstraintMatcher struct {
	strictCalendar bool
}

// NewConstraintMatcher builds a matcher.
func NewConstraintMatcher(strictCalendar bool) *ConstraintMatcher {
	return &ConstraintMatcher{strictCalendar: strictCalendar}
}

// Filter accepts occ when it is long enough and the truncated slot
// [start, start+required) sits inside working hours on its local start day.
// A close of 24:00 is the following midnight.
func (m *ConstraintMatcher) Filter(occ models.Occurrence, constraints models.InstitutionConstraints, required time.Duration) (models.CandidateSlot, bool) {
	if required <= 0 || occ.Duration() < required {
		return models.CandidateSlot{}, false
	}

	localStart := constraints.Local(occ.StartTime)
	localEnd := localStart.Add(required)

	if localStart.Before(constraints.WorkingHoursStart.On(localStart)) {
		return models.CandidateSlot{}, false
	}
	if localEnd.After(constraints.WorkingHoursEnd.On(localStart)) {
		return models.CandidateSlot{}, false
	}

	if m != nil && m.strictCalendar {
		if !constraints.IsWorkingDay(models.WeekdayOf(localStart)) || constraints.InVacation(localStart) {
			return models.CandidateSlot{}, false
		}
	}

	return models.CandidateSlot{
		OwnerID:        occ.OwnerID,
		StartTime:      occ.StartTime,
		EndTime:        occ.StartTime.Add(required),
		SourceRecordID: occ.SourceRecordID,
	}, true
}
