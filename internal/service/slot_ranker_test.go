package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

func TestSlotRankerScore(t *testing.T) {
	ranker := NewSlotRanker(0)
	constraints := defaultConstraints()

	cases := []struct {
		name  string
		start time.Time
		score int
	}{
		{"monday morning", at(9, 0), 85},
		{"monday late", at(18, 0), 60},
		{"monday noon", at(12, 0), 70},
		{"saturday early", time.Date(2024, 3, 9, 7, 0, 0, 0, time.UTC), 40},
		{"sunday morning", time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC), 65},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := ranker.Score(models.CandidateSlot{OwnerID: "5", StartTime: tc.start}, constraints)
			assert.Equal(t, tc.score, score)
		})
	}
}

func TestSlotRankerScoreAlwaysInRange(t *testing.T) {
	ranker := NewSlotRanker(0)
	everyDay := defaultConstraints()
	everyDay.WorkingDays = []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday, models.Saturday, models.Sunday}
	noDays := defaultConstraints()
	noDays.WorkingDays = nil

	for _, constraints := range []models.InstitutionConstraints{defaultConstraints(), everyDay, noDays} {
		for day := 0; day < 7; day++ {
			for hour := 0; hour < 24; hour++ {
				start := time.Date(2024, 3, 4+day, hour, 0, 0, 0, time.UTC)
				score := ranker.Score(models.CandidateSlot{StartTime: start}, constraints)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	}
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 100, clampScore(130))
}

func TestSlotRankerRankTruncatesAndOrders(t *testing.T) {
	ranker := NewSlotRanker(10)
	var candidates []models.CandidateSlot
	for i := 0; i < 15; i++ {
		candidates = append(candidates, models.CandidateSlot{
			OwnerID:   fmt.Sprintf("owner-%02d", i%4),
			StartTime: at(8+i%6, 0),
			Score:     40 + (i*7)%50,
		})
	}

	ranked := ranker.Rank(candidates)
	require.Len(t, ranked, 10)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestSlotRankerRankTieBreak(t *testing.T) {
	ranker := NewSlotRanker(0)
	candidates := []models.CandidateSlot{
		{OwnerID: "b", StartTime: at(9, 0), Score: 85},
		{OwnerID: "a", StartTime: at(10, 0), Score: 85},
		{OwnerID: "a", StartTime: at(9, 0), Score: 85},
		{OwnerID: "c", StartTime: at(8, 0), Score: 90},
	}

	ranked := ranker.Rank(candidates)
	require.Len(t, ranked, 4)
	assert.Equal(t, "c", ranked[0].OwnerID)
	assert.Equal(t, "a", ranked[1].OwnerID)
	assert.Equal(t, at(9, 0), ranked[1].StartTime)
	assert.Equal(t, "a", ranked[2].OwnerID)
	assert.Equal(t, "b", ranked[3].OwnerID)
}
