package model

import "fmt"

// ToiletID defines a toilet record id. Ids are numeric-looking strings,
// allocated as the smallest positive integer not currently in use.
type ToiletID string

// VoteKind defines the direction of a user vote.
type VoteKind string

// Existing vote kinds. VoteNone marks the absence of a prior vote.
const (
	VoteNone    = VoteKind("")
	VoteLike    = VoteKind("like")
	VoteDislike = VoteKind("dislike")
)

// Valid reports whether v is a castable vote.
func (v VoteKind) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

// Opposite returns the other castable vote kind.
func (v VoteKind) Opposite() VoteKind {
	switch v {
	case VoteLike:
		return VoteDislike
	case VoteDislike:
		return VoteLike
	}
	return VoteNone
}

// Toilet defines a single toilet record, serialized to one blob.
type Toilet struct {
	ID           ToiletID `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Description  string   `json:"description"`
	IsFree       bool     `json:"isFree"`
	Rating       float64  `json:"rating"`
	TotalRatings int      `json:"totalRatings"`
	Likes        int      `json:"likes"`
	Dislikes     int      `json:"dislikes"`
	Images       []string `json:"images"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func (t *Toilet) String() string {
	return fmt.Sprintf("Toilet{id=%s, name=%s, likes=%d, dislikes=%d, rating=%.1f}",
		t.ID, t.Name, t.Likes, t.Dislikes, t.Rating)
}

// CreateToiletRequest defines the input for creating a toilet record.
type CreateToiletRequest struct {
	Name        string  `json:"name" validate:"required"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Description string  `json:"description"`
	IsFree      bool    `json:"isFree"`
	ImageData   string  `json:"imageData"`
}

// ToiletUpdate enumerates exactly the mutable fields of a record.
// Nil pointers leave the stored value untouched. Coordinates and
// counters are deliberately absent: coordinates are immutable after
// creation and counters only change through votes.
type ToiletUpdate struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	Description   *string `json:"description"`
	IsFree        *bool   `json:"isFree"`
	ImageData     string  `json:"imageData"`
	RemovedImages []int   `json:"removedImages"`
}

// Apply merges the set fields of u over t. Image changes are handled
// separately by the controller.
func (u *ToiletUpdate) Apply(t *Toilet) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Address != nil {
		t.Address = *u.Address
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.IsFree != nil {
		t.IsFree = *u.IsFree
	}
}
