package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	fenced := "```json\n{\"questions\":[]}\n```"
	require.Equal(t, `{"questions":[]}`, StripCodeFences(fenced))

	plain := `{"questions":[]}`
	require.Equal(t, plain, StripCodeFences(plain))

	noLang := "```\n{\"a\":1}\n```"
	require.Equal(t, `{"a":1}`, StripCodeFences(noLang))
}

func TestExtractJSONObjectIgnoresProse(t *testing.T) {
	body := `Sure! Here are your questions: {"questions":[{"text":"Q {with braces}"}]} Hope that helps.`
	object, err := ExtractJSONObject(body)
	require.NoError(t, err)
	require.Equal(t, `{"questions":[{"text":"Q {with braces}"}]}`, object)
}

func TestExtractJSONObjectErrors(t *testing.T) {
	_, err := ExtractJSONObject("no json here")
	require.Error(t, err)

	_, err = ExtractJSONObject(`{"unterminated": true`)
	require.Error(t, err)
}

func TestRepairResponseNormalizesTypography(t *testing.T) {
	body := "```json\n{\u201cquestions\u201d:[{\u201ctext\u201d:\u201cWhat is H2O?\u201d,\u201coptions\u201d:[{\u201ctext\u201d:\u201cWater\u201d,\u201cis_correct\u201d:true}]}]}\n```"

	questions, err := RepairResponse(body, GenerateRequest{Count: 5, Difficulty: "medium"})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, "What is H2O?", questions[0].Text)
}

func TestRepairResponseCapsAtRequestedCount(t *testing.T) {
	body := `{"questions":[{"text":"A"},{"text":"B"},{"text":"C"}]}`

	questions, err := RepairResponse(body, GenerateRequest{Count: 2, Difficulty: "easy"})
	require.NoError(t, err)
	require.Len(t, questions, 2)
}

func TestNormalizeQuestionPadsAndTruncatesOptions(t *testing.T) {
	req := GenerateRequest{Difficulty: "hard"}

	short := NormalizeQuestion(looseQuestion{Text: "Q", Options: []looseOption{{Text: "only", Correct: true}}}, req)
	require.Len(t, short.Options, OptionCount)
	require.True(t, short.Options[0].IsCorrect)

	long := NormalizeQuestion(looseQuestion{
		Text: "Q",
		Options: []looseOption{
			{Text: "a"}, {Text: "b", IsCorrect: true}, {Text: "c"}, {Text: "d"}, {Text: "e"}, {Text: "f"},
		},
	}, req)
	require.Len(t, long.Options, OptionCount)
}

func TestNormalizeQuestionForcesSingleCorrectOption(t *testing.T) {
	req := GenerateRequest{Difficulty: "easy"}

	none := NormalizeQuestion(looseQuestion{Text: "Q", Options: []looseOption{{Text: "a"}, {Text: "b"}}}, req)
	require.True(t, none.Options[0].IsCorrect)
	for _, opt := range none.Options[1:] {
		require.False(t, opt.IsCorrect)
	}

	many := NormalizeQuestion(looseQuestion{Text: "Q", Options: []looseOption{
		{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}, {Text: "c"}, {Text: "d"},
	}}, req)
	correct := 0
	for _, opt := range many.Options {
		if opt.IsCorrect {
			correct++
		}
	}
	require.Equal(t, 1, correct)
	require.True(t, many.Options[0].IsCorrect)
}

func TestNormalizeQuestionFillsDefaults(t *testing.T) {
	req := GenerateRequest{Difficulty: "hard"}

	question := NormalizeQuestion(looseQuestion{Question: "alias field"}, req)
	require.Equal(t, "alias field", question.Text)
	require.Equal(t, "hard", question.Difficulty)
	require.Equal(t, 3, question.Marks)
	require.NotEmpty(t, question.Explanation)

	medium := NormalizeQuestion(looseQuestion{Text: "Q", Difficulty: "medium"}, req)
	require.Equal(t, 2, medium.Marks)
}
