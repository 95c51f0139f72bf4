package models

import (
	"time"

	"github.com/dmoreira/flashdeck/internal/fsrs"
)

// Review is the immutable record of one graded review: the grade plus
// the memory state immediately before and after applying it. Rows are
// insert-only; the scheduler never touches them again.
type Review struct {
	ID     int64      `json:"id"`
	CardID int64      `json:"card_id"`
	Grade  fsrs.Grade `json:"grade"`

	StageBefore          fsrs.Stage `json:"stage_before"`
	DifficultyBefore     float64    `json:"difficulty_before"`
	StabilityBefore      float64    `json:"stability_before"`
	RetrievabilityBefore float64    `json:"retrievability_before"`

	DifficultyAfter float64 `json:"difficulty_after"`
	StabilityAfter  float64 `json:"stability_after"`
	IntervalAfter   float64 `json:"interval_after"`

	ReviewedAt time.Time `json:"reviewed_at"`
}

// ReviewStats summarizes review activity across a deck or the whole
// collection.
type ReviewStats struct {
	TotalReviews int            `json:"total_reviews"`
	ReviewsToday int            `json:"reviews_today"`
	ByGrade      map[string]int `json:"by_grade"`
}
