// Package fsrs implements the FSRS spaced-repetition scheduler: given a
// grade and a card's prior memory state it computes the new difficulty,
// stability and due date. The scheduler holds no mutable state between
// calls and is safe for concurrent use once constructed.
package fsrs

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultDesiredRetention is the recall probability the scheduler
	// targets when no explicit retention is configured.
	DefaultDesiredRetention = 0.9

	// decay is the fixed exponent of the power forgetting curve.
	decay = -0.5

	// meanReversion and hardPenalty are fixed algorithm constants,
	// deliberately separate from the 21 trained weights.
	meanReversion = 0.5
	hardPenalty   = 0.5

	minDifficulty = 1.0
	maxDifficulty = 10.0
	minStability  = 0.1
	minInterval   = 0.1
)

// Scheduler computes review transitions. Construct it once with New and
// share it; configuration is immutable after construction, so identical
// configurations produce bit-identical outputs for identical inputs.
type Scheduler struct {
	w                Weights
	desiredRetention float64
	factor           float64 // 0.9^(1/decay) - 1, derived once from decay
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWeights replaces the default weight vector.
func WithWeights(w Weights) Option {
	return func(s *Scheduler) {
		s.w = w
	}
}

// WithDesiredRetention sets the target recall probability. Values outside
// (0, 1) are ignored and the default kept.
func WithDesiredRetention(r float64) Option {
	return func(s *Scheduler) {
		if r > 0 && r < 1 {
			s.desiredRetention = r
		}
	}
}

// New creates a Scheduler with the default weights and retention unless
// overridden by options.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		w:                DefaultWeights(),
		desiredRetention: DefaultDesiredRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.factor = math.Pow(0.9, 1/decay) - 1
	return s
}

// DesiredRetention returns the configured retention target.
func (s *Scheduler) DesiredRetention() float64 {
	return s.desiredRetention
}

// Retrievability returns the estimated recall probability after
// elapsedDays against the given stability, following the power forgetting
// curve R = (1 + factor*(t/S)^decay)^decay. A card with no stability or
// no elapsed time is assumed perfectly recallable.
func (s *Scheduler) Retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 || elapsedDays <= 0 {
		return 1.0
	}
	r := math.Pow(1+s.factor*math.Pow(elapsedDays/stability, decay), decay)
	return clamp(r, 0, 1)
}

// Interval returns the next interval in days for the given stability at
// the configured desired retention. With retention 0.9 the interval
// equals the stability.
func (s *Scheduler) Interval(stability float64) float64 {
	return s.IntervalAt(stability, s.desiredRetention)
}

// IntervalAt is Interval with a per-call retention override. The result
// is floored at 0.1 day, the minimum schedulable gap.
func (s *Scheduler) IntervalAt(stability, retention float64) float64 {
	interval := stability / s.factor * (math.Pow(retention, 1/decay) - 1)
	return math.Max(minInterval, interval)
}

// InitialDifficulty returns the difficulty assigned on a card's first
// review: D0 = w4 - w5*(G-3), clamped to [1,10]. Good lands exactly on
// the w4 baseline.
func (s *Scheduler) InitialDifficulty(g Grade) float64 {
	return clamp(s.w[4]-s.w[5]*float64(g-3), minDifficulty, maxDifficulty)
}

// InitialStability returns the calibrated anchor stability for a card's
// first review. No interpolation between grades.
func (s *Scheduler) InitialStability(g Grade) float64 {
	switch g {
	case Again:
		return s.w[0]
	case Hard:
		return s.w[1]
	case Good:
		return s.w[2]
	default:
		return s.w[3]
	}
}

// NextDifficulty updates difficulty for a review: a grade-dependent delta
// with linear damping toward the ceiling, then mean reversion toward the
// w4 baseline, clamped to [1,10].
func (s *Scheduler) NextDifficulty(d float64, g Grade) float64 {
	var delta float64
	switch g {
	case Again, Hard:
		// Again and Hard share w6; only the (G-3) term differs.
		delta = -s.w[6] * float64(g-3)
	case Easy:
		delta = -s.w[7] * float64(g-3)
	default: // Good
		delta = 0
	}

	damped := d + delta*(maxDifficulty-d)/9
	reverted := meanReversion*damped + (1-meanReversion)*s.w[4]
	return clamp(reverted, minDifficulty, maxDifficulty)
}

// NextStability updates stability for a review of a card with history.
// Again takes the lapse branch, which can never increase stability past
// its pre-lapse value except to lift a sub-floor input up to the 0.1
// minimum; the success branch grows stability by a factor
// built from difficulty, current stability and retrievability.
func (s *Scheduler) NextStability(stability, difficulty, retrievability float64, g Grade) float64 {
	if g == Again {
		raw := s.w[11] *
			math.Pow(difficulty, -s.w[12]) *
			(math.Pow(stability+1, s.w[13]) - 1) *
			math.Exp(s.w[10]*(1-retrievability))
		// The result is capped at the pre-lapse stability and then
		// floored, so a card that somehow arrives here below the floor
		// (stability < 0.1 is not a valid reviewed state) is lifted to
		// 0.1 rather than returned as-is.
		lapse := math.Min(stability, math.Max(minStability, raw))
		return math.Max(minStability, lapse)
	}

	fD := 11 - difficulty
	fS := 1.0
	if stability > 0 {
		fS = math.Pow(stability, -s.w[9])
	}
	fR := math.Exp(s.w[10]*(1-retrievability)) - 1

	mult := 1.0
	switch g {
	case Hard:
		mult = hardPenalty
	case Easy:
		mult = s.w[16]
	}

	inc := 1 + math.Exp(s.w[8])*fD*fS*fR*mult
	return math.Max(minStability, stability*inc)
}

// ScheduleReview applies a graded review to a prior memory state at the
// given time and returns the next state. The input is never mutated; the
// caller persists the result. The only failure mode is an invalid grade,
// rejected before any formula runs.
func (s *Scheduler) ScheduleReview(g Grade, prior MemoryState, now time.Time) (MemoryState, error) {
	if !g.IsValid() {
		return MemoryState{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}

	next := prior

	if prior.Stage == StageNew || prior.Reps == 0 {
		next.Stability = s.InitialStability(g)
		next.Difficulty = s.InitialDifficulty(g)
		// Nothing has had time to decay before a first review.
		next.Retrievability = 1.0
		if g == Again {
			next.Stage = StageLearning
			next.Lapses = prior.Lapses + 1
		} else {
			next.Stage = StageReview
		}
	} else {
		var elapsed float64
		if !prior.LastReviewedAt.IsZero() {
			elapsed = now.Sub(prior.LastReviewedAt).Hours() / 24
		}
		r := s.Retrievability(elapsed, prior.Stability)

		next.Retrievability = r
		next.Difficulty = s.NextDifficulty(prior.Difficulty, g)
		next.Stability = s.NextStability(prior.Stability, prior.Difficulty, r, g)
		if g == Again {
			next.Stage = StageRelearning
			next.Lapses = prior.Lapses + 1
		} else {
			next.Stage = StageReview
		}
	}

	next.IntervalDays = s.Interval(next.Stability)
	next.DueAt = now.Add(time.Duration(next.IntervalDays * 24 * float64(time.Hour)))
	next.Reps = prior.Reps + 1
	next.LastReviewedAt = now
	return next, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
