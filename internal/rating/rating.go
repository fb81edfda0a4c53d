// Package rating holds the pure record-arithmetic of the service: the
// like/dislike aggregate formula, single-vote transitions and gap-filling
// id allocation. Nothing here performs I/O.
package rating

import (
	"math"
	"sort"
	"time"

	"toiletmap/pkg/model"
)

// Compute returns the aggregate rating for the given counters:
// (likes*5 + dislikes*1) / (likes+dislikes), 0 when there are no votes,
// rounded to one decimal place for display and storage parity.
func Compute(likes, dislikes int) float64 {
	total := likes + dislikes
	if total == 0 {
		return 0
	}
	r := float64(likes*5+dislikes*1) / float64(total)
	return math.Round(r*10) / 10
}

// ApplyVote applies a single vote transition to t and reports whether the
// record changed. prior is the caller's previous vote for this record in
// the current session, VoteNone when absent.
//
// Re-casting the same vote is a no-op. A first vote increments the
// matching counter. A vote switch moves one unit from the previous
// counter (floored at zero) to the new one, so the vote total stays
// constant. TotalRatings is always re-derived as likes+dislikes.
func ApplyVote(t *model.Toilet, vote, prior model.VoteKind, now time.Time) bool {
	if !vote.Valid() || prior == vote {
		return false
	}
	switch vote {
	case model.VoteLike:
		t.Likes++
		if prior == model.VoteDislike && t.Dislikes > 0 {
			t.Dislikes--
		}
	case model.VoteDislike:
		t.Dislikes++
		if prior == model.VoteLike && t.Likes > 0 {
			t.Likes--
		}
	}
	t.TotalRatings = t.Likes + t.Dislikes
	t.Rating = Compute(t.Likes, t.Dislikes)
	t.UpdatedAt = now.UTC().Format(time.RFC3339)
	return true
}

// NextID returns the smallest positive integer not present in existing.
// Deleted ids are reused; this is deliberately not a count+1 counter.
func NextID(existing []int) int {
	ids := append([]int(nil), existing...)
	sort.Ints(ids)
	next := 1
	for _, id := range ids {
		if id == next {
			next++
		} else if id > next {
			break
		}
	}
	return next
}
