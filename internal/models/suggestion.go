package models

import "time"

// CandidateSlot is an occurrence accepted by the constraint matcher, truncated to the requested duration.
type CandidateSlot struct {
	OwnerID        string
	OwnerName      string
	StartTime      time.Time
	EndTime        time.Time
	SourceRecordID string
	Score          int
}

// SuggestionSlot is one ranked proposal returned to callers.
type SuggestionSlot struct {
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Score     int       `json:"score"`
	Reason    string    `json:"reason"`
}
