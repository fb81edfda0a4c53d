package rating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"toiletmap/pkg/model"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		likes    int
		dislikes int
		want     float64
	}{
		{name: "no votes", likes: 0, dislikes: 0, want: 0},
		{name: "all likes", likes: 3, dislikes: 0, want: 5},
		{name: "all dislikes", likes: 0, dislikes: 2, want: 1},
		{name: "mixed", likes: 3, dislikes: 1, want: 4},
		{name: "rounded to one decimal", likes: 2, dislikes: 1, want: 3.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.likes, tt.dislikes))
		})
	}
}

func TestApplyVoteFirstVote(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &model.Toilet{}
	changed := ApplyVote(rec, model.VoteLike, model.VoteNone, now)
	assert.True(t, changed)
	assert.Equal(t, 1, rec.Likes)
	assert.Equal(t, 0, rec.Dislikes)
	assert.Equal(t, 1, rec.TotalRatings)
	assert.Equal(t, 5.0, rec.Rating)
	assert.Equal(t, "2024-05-01T12:00:00Z", rec.UpdatedAt)
}

func TestApplyVoteSwitch(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &model.Toilet{Likes: 1, TotalRatings: 1, Rating: 5.0}
	changed := ApplyVote(rec, model.VoteDislike, model.VoteLike, now)
	assert.True(t, changed)
	assert.Equal(t, 0, rec.Likes)
	assert.Equal(t, 1, rec.Dislikes)
	// A switch moves a unit between counters, the total stays put.
	assert.Equal(t, 1, rec.TotalRatings)
	assert.Equal(t, 1.0, rec.Rating)
}

func TestApplyVoteRevoteIsNoop(t *testing.T) {
	rec := &model.Toilet{Likes: 2, Dislikes: 1, TotalRatings: 3, Rating: 3.7, UpdatedAt: "2024-01-01T00:00:00Z"}
	before := *rec
	changed := ApplyVote(rec, model.VoteLike, model.VoteLike, time.Now())
	assert.False(t, changed)
	assert.Equal(t, before, *rec)
}

func TestApplyVoteSwitchFloorsAtZero(t *testing.T) {
	// A prior vote the counters never recorded must not push a counter
	// below zero.
	rec := &model.Toilet{}
	changed := ApplyVote(rec, model.VoteLike, model.VoteDislike, time.Now())
	assert.True(t, changed)
	assert.Equal(t, 1, rec.Likes)
	assert.Equal(t, 0, rec.Dislikes)
	assert.Equal(t, 1, rec.TotalRatings)
}

func TestApplyVoteInvalidKind(t *testing.T) {
	rec := &model.Toilet{}
	assert.False(t, ApplyVote(rec, model.VoteNone, model.VoteNone, time.Now()))
	assert.Equal(t, 0, rec.TotalRatings)
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		want     int
	}{
		{name: "empty", existing: nil, want: 1},
		{name: "contiguous", existing: []int{1, 2, 3}, want: 4},
		{name: "gap in the middle", existing: []int{1, 3}, want: 2},
		{name: "gap at the front", existing: []int{2, 3}, want: 1},
		{name: "unsorted input", existing: []int{3, 1, 2}, want: 4},
		{name: "duplicates ignored", existing: []int{1, 1, 3}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextID(tt.existing))
		})
	}
}
