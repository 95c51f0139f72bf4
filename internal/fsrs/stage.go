package fsrs

import "fmt"

// Stage is the lifecycle phase of a card's memory state.
type Stage int

const (
	StageNew        Stage = iota // never reviewed
	StageLearning                // first review failed
	StageReview                  // in the long-term review cycle
	StageRelearning              // lapsed out of review
)

var stageNames = [...]string{
	StageNew:        "new",
	StageLearning:   "learning",
	StageReview:     "review",
	StageRelearning: "relearning",
}

// ParseStage parses the persisted text form of a stage. Unknown values
// map to StageNew so a card with a corrupt stage re-enters the pipeline
// at the safest point.
func ParseStage(s string) Stage {
	for st, name := range stageNames {
		if s == name {
			return Stage(st)
		}
	}
	return StageNew
}

func (s Stage) isValid() bool {
	return s >= StageNew && s <= StageRelearning
}

func (s Stage) String() string {
	if s.isValid() {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler. Stages serialize as
// their lowercase names, matching the database column values.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("fsrs: invalid stage: %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	for st, name := range stageNames {
		if string(text) == name {
			*s = Stage(st)
			return nil
		}
	}
	return fmt.Errorf("fsrs: invalid stage: %q", text)
}
