package fsrs

import "fmt"

// Grade is the learner's self-reported recall quality for one review.
// The numeric value participates directly in the difficulty and stability
// formulas, so the 1-4 encoding is part of the algorithm, not just an ID.
type Grade int

const (
	Again Grade = iota + 1 // complete failure to recall
	Hard                   // recalled with significant difficulty
	Good                   // recalled with some effort
	Easy                   // recalled effortlessly
)

var gradeNames = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}

// IsValid reports whether g is one of the four defined grades.
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}
