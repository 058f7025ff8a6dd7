package parser

import (
	"errors"
	"testing"

	"smartquiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParse_FencedBlockInsideProse(t *testing.T) {
	raw := "Here are your questions: ```json [{\"question\":\"Q1\",\"options\":[\"A\",\"B\"],\"correct_answer\":1}] ``` "

	questions, err := New(zap.NewNop()).Parse(raw)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Q1", questions[0].Question)
	assert.Equal(t, []string{"A", "B"}, questions[0].Options)
	assert.Equal(t, "B", questions[0].CorrectAnswer)
	assert.Equal(t, "", questions[0].Explanation)
}

func TestParse_SingleOptionRecordIsDropped(t *testing.T) {
	p := New(zap.NewNop())

	t.Run("only record", func(t *testing.T) {
		_, err := p.Parse(`[{"question":"Q1","options":["A"],"correct_answer":0}]`)
		require.Error(t, err)
		var malformed *domain.MalformedResponseError
		assert.True(t, errors.As(err, &malformed))
		assert.Equal(t, domain.ErrMalformedResponse, domain.CodeOf(err))
	})

	t.Run("alongside a valid record", func(t *testing.T) {
		questions, err := p.Parse(`[
			{"question":"Q1","options":["A"],"correct_answer":0},
			{"question":"Q2","options":["A","B","C"],"correct_answer":2}
		]`)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, "Q2", questions[0].Question)
		assert.Equal(t, "C", questions[0].CorrectAnswer)
	})
}

func TestParse_CorrectAnswerResolution(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"case-insensitive text match", `[{"question":"Q","options":["A","B"],"correct_answer":"a"}]`, "A", false},
		{"text match is trimmed", `[{"question":"Q","options":["Paris","Rome"],"correct_answer":"  rome "}]`, "Rome", false},
		{"zero index", `[{"question":"Q","options":["x","y"],"correct_answer":0}]`, "x", false},
		{"index out of range", `[{"question":"Q","options":["x","y"],"correct_answer":2}]`, "", true},
		{"negative index", `[{"question":"Q","options":["x","y"],"correct_answer":-1}]`, "", true},
		{"huge index", `[{"question":"Q","options":["x","y"],"correct_answer":1e20}]`, "", true},
		{"overflowing index", `[{"question":"Q","options":["x","y"],"correct_answer":1e300}]`, "", true},
		{"index counts blank options", `[{"question":"Q","options":["","A","B"],"correct_answer":1}]`, "A", false},
		{"index at a blank option", `[{"question":"Q","options":["A","","B","C"],"correct_answer":1}]`, "", true},
		{"index past a non-scalar option", `[{"question":"Q","options":[{"x":1},"A","B"],"correct_answer":2}]`, "B", false},
		{"index over lettered gap", `[{"question":"Q","option_a":"A","option_c":"C","correct_answer":2}]`, "C", false},
		{"fractional index", `[{"question":"Q","options":["x","y"],"correct_answer":0.5}]`, "", true},
		{"no matching text", `[{"question":"Q","options":["x","y"],"correct_answer":"z"}]`, "", true},
		{"boolean answer", `[{"question":"Q","options":["x","y"],"correct_answer":true}]`, "", true},
		{"missing answer", `[{"question":"Q","options":["x","y"]}]`, "", true},
		{"answer alias", `[{"question":"Q","options":["x","y"],"answer":"Y"}]`, "y", false},
	}

	p := New(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := p.Parse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, questions, 1)
			assert.Equal(t, tt.want, questions[0].CorrectAnswer)
		})
	}
}

func TestParse_CitationBeforeQuestionList(t *testing.T) {
	raw := `As noted in [1], here you go: [{"question":"Q","options":["A","B"],"correct_answer":"B"}]`

	questions, err := New(zap.NewNop()).Parse(raw)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Q", questions[0].Question)
	assert.Equal(t, "B", questions[0].CorrectAnswer)
}

func TestParse_HugeIndexDoesNotPanic(t *testing.T) {
	raw := `[
		{"question":"Q1","options":["A","B"],"correct_answer":1e20},
		{"question":"Q2","options":["A","B"],"correct_answer":-1e300},
		{"question":"Q3","options":["A","B"],"correct_answer":1}
	]`

	var questions []domain.QuizQuestion
	var err error
	require.NotPanics(t, func() { questions, err = New(nil).Parse(raw) })

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Q3", questions[0].Question)
}

func TestParse_MissingQuestionTextIsDropped(t *testing.T) {
	questions, err := New(nil).Parse(`[
		{"question":"","options":["A","B"],"correct_answer":0},
		{"options":["A","B"],"correct_answer":0},
		{"question":"kept","options":["A","B"],"correct_answer":0}
	]`)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "kept", questions[0].Question)
}

func TestParse_ExplanationDefaults(t *testing.T) {
	questions, err := New(nil).Parse(`[
		{"question":"Q1","options":["A","B"],"correct_answer":0,"explanation":"because"},
		{"question":"Q2","options":["A","B"],"correct_answer":0,"explanation":42},
		{"question":"Q3","options":["A","B"],"correct_answer":0,"explanation":null}
	]`)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "because", questions[0].Explanation)
	assert.Equal(t, "", questions[1].Explanation)
	assert.Equal(t, "", questions[2].Explanation)
}

func TestParse_PreservesOrderAndDuplicateOptions(t *testing.T) {
	questions, err := New(nil).Parse(`{"questions":[
		{"question":"first","options":["same","same"],"correct_answer":"same"},
		{"question":"second","options":["1","2"],"correct_answer":1},
		{"question":"third","options":[3,4],"correct_answer":"4"}
	]}`)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "first", questions[0].Question)
	assert.Equal(t, "second", questions[1].Question)
	assert.Equal(t, "2", questions[1].CorrectAnswer)
	assert.Equal(t, []string{"3", "4"}, questions[2].Options)
	assert.Equal(t, "4", questions[2].CorrectAnswer)
}

func TestParse_LegacyLetterRecords(t *testing.T) {
	raw := `[{"text":"Capital of France?","option_a":"Berlin","option_b":"Paris","option_c":"Rome","option_d":"Madrid","correct_option":"b","explanation":" Paris is the capital. "}]`

	questions, err := New(nil).Parse(raw)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	q := questions[0]
	assert.Equal(t, "Capital of France?", q.Question)
	assert.Equal(t, []string{"Berlin", "Paris", "Rome", "Madrid"}, q.Options)
	assert.Equal(t, "Paris", q.CorrectAnswer)
	assert.Equal(t, "Paris is the capital.", q.Explanation)
}

func TestParse_LetteredOptionsObject(t *testing.T) {
	raw := `{"question":"2+2?","options":{"A":"3","B":"4"},"correct_answer":"B)"}`

	questions, err := New(nil).Parse(raw)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, []string{"3", "4"}, questions[0].Options)
	assert.Equal(t, "4", questions[0].CorrectAnswer)
}

func TestParse_NoStructuredBlock(t *testing.T) {
	_, err := New(nil).Parse("Sorry, I cannot help with that.")
	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
}

func TestValidate_RejectsUnexpectedShapes(t *testing.T) {
	p := New(nil)
	for _, block := range []string{`{"title":"no questions here"}`, `"just a string"`, `[1, 2, 3]`, `not json`} {
		_, err := p.Validate([]byte(block))
		var malformed *domain.MalformedResponseError
		assert.True(t, errors.As(err, &malformed), "block %s", block)
	}
}

func TestValidate_EveryQuestionSatisfiesInvariants(t *testing.T) {
	questions, err := New(nil).Validate([]byte(`[
		{"question":"Q1","options":["A","B"],"correct_answer":"b"},
		{"question":"Q2","choices":["yes","no"],"correct":0},
		{"prompt":"Q3","answers":["x","y","z"],"correct_index":2}
	]`))
	require.NoError(t, err)
	require.Len(t, questions, 3)
	for _, q := range questions {
		assert.NoError(t, q.Validate())
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}
}
