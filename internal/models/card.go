package models

import (
	"time"

	"github.com/dmoreira/flashdeck/internal/fsrs"
)

type Card struct {
	ID             int64      `json:"id"`
	DeckID         int64      `json:"deck_id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	Stage          fsrs.Stage `json:"stage"`
	Difficulty     float64    `json:"difficulty"`
	Stability      float64    `json:"stability"`
	Retrievability float64    `json:"retrievability"`
	DueAt          time.Time  `json:"due_at"`
	LastReviewAt   *time.Time `json:"last_review_at,omitempty"`
	IntervalDays   float64    `json:"interval_days"`
	Reps           int        `json:"reps"`
	Lapses         int        `json:"lapses"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsDue reports whether the card is due for review at the given time.
// New cards are created due, so they count as reviewable immediately.
func (c Card) IsDue(now time.Time) bool {
	return !c.DueAt.After(now)
}

// MemoryState extracts the scheduler's view of this card.
func (c Card) MemoryState() fsrs.MemoryState {
	st := fsrs.MemoryState{
		Stage:          c.Stage,
		Stability:      c.Stability,
		Difficulty:     c.Difficulty,
		Retrievability: c.Retrievability,
		IntervalDays:   c.IntervalDays,
		DueAt:          c.DueAt,
		Reps:           c.Reps,
		Lapses:         c.Lapses,
	}
	if c.LastReviewAt != nil {
		st.LastReviewedAt = *c.LastReviewAt
	}
	return st
}

// ApplyMemoryState writes a scheduler result back onto the card.
func (c *Card) ApplyMemoryState(st fsrs.MemoryState) {
	c.Stage = st.Stage
	c.Stability = st.Stability
	c.Difficulty = st.Difficulty
	c.Retrievability = st.Retrievability
	c.IntervalDays = st.IntervalDays
	c.DueAt = st.DueAt
	c.Reps = st.Reps
	c.Lapses = st.Lapses
	if !st.LastReviewedAt.IsZero() {
		t := st.LastReviewedAt
		c.LastReviewAt = &t
	}
}
