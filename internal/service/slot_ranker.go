package service

import (
	"sort"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

const (
	// DefaultSuggestionLimit is the number of slots returned per request.
	DefaultSuggestionLimit = 10

	scoreBase        = 50
	scoreWorkingDay  = 20
	scoreMorning     = 15
	scoreOffHours    = -10
	morningStartHour = 9
	morningEndHour   = 11
	earlyHour        = 8
	lateHour         = 17

	suggestionReason = "Within institution working hours and long enough for the requested duration"
)

// SlotRanker scores candidate slots and keeps the best N.
type SlotRanker struct {
	limit int
}

// NewSlotRanker builds a ranker returning at most limit slots.
func NewSlotRanker(limit int) *SlotRanker {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	return &SlotRanker{limit: limit}
}

// Score rates a candidate in [0,100] using its start in the institution's time zone.
func (r *SlotRanker) Score(candidate models.CandidateSlot, constraints models.InstitutionConstraints) int {
	local := constraints.Local(candidate.StartTime)
	score := scoreBase
	if constraints.IsWorkingDay(models.WeekdayOf(local)) {
		score += scoreWorkingDay
	}
	hour := local.Hour()
	if hour >= morningStartHour && hour <= morningEndHour {
		score += scoreMorning
	}
	if hour < earlyHour || hour > lateHour {
		score += scoreOffHours
	}
	return clampScore(score)
}

// Rank orders candidates by score descending, then owner id and start time
// ascending, and truncates to the limit. The input slice is reordered in place.
func (r *SlotRanker) Rank(candidates []models.CandidateSlot) []models.CandidateSlot {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		return a.StartTime.Before(b.StartTime)
	})
	if len(candidates) > r.limit {
		candidates = candidates[:r.limit]
	}
	return candidates
}

// Reason is the fixed explanation attached to every suggestion.
func (r *SlotRanker) Reason() string {
	return suggestionReason
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
