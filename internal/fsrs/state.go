package fsrs

import "time"

// MemoryState is the per-card learning record the scheduler reads and
// writes. It is a plain value: ScheduleReview never mutates its input and
// returns a freshly built state, so callers own persistence and ordering.
type MemoryState struct {
	Stage          Stage
	Stability      float64 // S: memory half-life in days, 0 before first review
	Difficulty     float64 // D: intrinsic item difficulty in [1,10]
	Retrievability float64 // R: recall probability at review time, in [0,1]
	IntervalDays   float64 // scheduled gap until the next due date
	DueAt          time.Time
	LastReviewedAt time.Time // zero value when the card has never been reviewed
	Reps           int       // total reviews performed
	Lapses         int       // reviews graded Again
}

// NewMemoryState returns the state of a card that has never been
// reviewed: due immediately, with no stability and baseline difficulty.
func NewMemoryState(now time.Time) MemoryState {
	return MemoryState{
		Stage:          StageNew,
		Stability:      0,
		Difficulty:     5.0,
		Retrievability: 1.0,
		DueAt:          now,
	}
}
