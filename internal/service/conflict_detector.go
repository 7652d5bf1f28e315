package service

import (
	"time"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

// HasConflict reports whether [candidateStart, candidateEnd) overlaps any
// available interval of ownerID among existing. Touching boundaries do not conflict.
func HasConflict(ownerID string, candidateStart, candidateEnd time.Time, existing []models.Occurrence) bool {
	_, found := FindConflict(ownerID, models.Interval{Start: candidateStart, End: candidateEnd}, existing)
	return found
}

// FindConflict returns the first available interval of ownerID overlapping candidate.
func FindConflict(ownerID string, candidate models.Interval, existing []models.Occurrence) (models.Occurrence, bool) {
	for _, occ := range existing {
		if occ.OwnerID != ownerID || occ.Kind != models.AvailabilityKindAvailable {
			continue
		}
		if candidate.Overlaps(occ.Interval()) {
			return occ, true
		}
	}
	return models.Occurrence{}, false
}
