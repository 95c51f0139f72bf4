package fsrs

import "errors"

// ErrInvalidGrade is returned by ScheduleReview when the grade is outside
// {Again, Hard, Good, Easy}. It is the only condition the scheduler
// rejects; every formula is total over its clamped domain.
var ErrInvalidGrade = errors.New("fsrs: invalid grade")
