package fsrs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoreira/flashdeck/internal/fsrs"
)

func TestGrade_IsValid(t *testing.T) {
	assert.True(t, fsrs.Again.IsValid())
	assert.True(t, fsrs.Hard.IsValid())
	assert.True(t, fsrs.Good.IsValid())
	assert.True(t, fsrs.Easy.IsValid())
	assert.False(t, fsrs.Grade(0).IsValid())
	assert.False(t, fsrs.Grade(5).IsValid())
	assert.False(t, fsrs.Grade(-1).IsValid())
}

func TestGrade_String(t *testing.T) {
	assert.Equal(t, "again", fsrs.Again.String())
	assert.Equal(t, "easy", fsrs.Easy.String())
	assert.Equal(t, "Grade(7)", fsrs.Grade(7).String())
}

func TestGrade_NumericOrder(t *testing.T) {
	// The numeric values feed the formulas directly; the 1-4 encoding is
	// load-bearing.
	assert.Equal(t, 1, int(fsrs.Again))
	assert.Equal(t, 2, int(fsrs.Hard))
	assert.Equal(t, 3, int(fsrs.Good))
	assert.Equal(t, 4, int(fsrs.Easy))
}

func TestStage_TextRoundTrip(t *testing.T) {
	stages := []fsrs.Stage{fsrs.StageNew, fsrs.StageLearning, fsrs.StageReview, fsrs.StageRelearning}
	for _, st := range stages {
		text, err := st.MarshalText()
		require.NoError(t, err)

		var parsed fsrs.Stage
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, st, parsed)
	}
}

func TestStage_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Stage fsrs.Stage `json:"stage"`
	}{fsrs.StageRelearning})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"relearning"}`, string(out))
}

func TestStage_ParseUnknownFallsBackToNew(t *testing.T) {
	assert.Equal(t, fsrs.StageReview, fsrs.ParseStage("review"))
	assert.Equal(t, fsrs.StageNew, fsrs.ParseStage("garbage"))
	assert.Equal(t, fsrs.StageNew, fsrs.ParseStage(""))
}
