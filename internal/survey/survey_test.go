package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = []Question{
	{QuestionID: 1, Text: "How was it?", Type: TypeRating, Required: true},
	{QuestionID: 2, Text: "Comments", Type: TypeText},
	{QuestionID: 3, Text: "Track", Type: TypeMultipleChoice, Options: []string{"Wet lab", "Dry lab"}},
	{QuestionID: 4, Text: "Recommend?", Type: TypeYesNo},
}

func TestAnswers(t *testing.T) {
	got, err := Answers(day, map[uint64]any{
		1: "4",
		2: "  great  ",
		3: "Dry lab",
		4: "yes",
	})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{1: "4", 2: "great", 3: "Dry lab", 4: "Yes"}, got)
	assert.Equal(t, []uint64{1, 2, 3, 4}, SortedIDs(got))
}

func TestAnswersLooseJSONValues(t *testing.T) {
	// 数値や真偽値で送られてきても文字列にそろえる
	got, err := Answers(day, map[uint64]any{1: float64(5), 4: false, 2: nil})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{1: "5", 4: "No"}, got)
}

func TestAnswersRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  map[uint64]any
	}{
		{"required missing", map[uint64]any{2: "hi"}},
		{"required blank", map[uint64]any{1: "  "}},
		{"rating out of range", map[uint64]any{1: "6"}},
		{"rating not a number", map[uint64]any{1: "great"}},
		{"unknown option", map[uint64]any{1: "3", 3: "Field trip"}},
		{"yes/no garbage", map[uint64]any{1: "3", 4: "maybe"}},
		{"question of another day", map[uint64]any{1: "3", 99: "x"}},
		{"object answer", map[uint64]any{1: map[string]any{"a": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Answers(day, tt.raw)
			var se Error
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestAnswersNoQuestions(t *testing.T) {
	got, err := Answers(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuestionCheck(t *testing.T) {
	assert.NoError(t, Question{Text: "Q", Type: TypeText}.Check())
	assert.NoError(t, Question{Text: "Q", Type: TypeMultipleChoice, Options: []string{"a", "b"}}.Check())
	assert.Error(t, Question{Text: " ", Type: TypeText}.Check())
	assert.Error(t, Question{Text: "Q", Type: "essay"}.Check())
	assert.Error(t, Question{Text: "Q", Type: TypeMultipleChoice}.Check())
	assert.Error(t, Question{Text: "Q", Type: TypeMultipleChoice, Options: []string{"a", "a"}}.Check())
}

func TestOptionsRoundTrip(t *testing.T) {
	v, err := EncodeOptions(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = EncodeOptions([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	opts, err := DecodeOptions([]byte(`["a","b"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, opts)

	_, err = DecodeOptions([]byte(`{`))
	assert.Error(t, err)
}
