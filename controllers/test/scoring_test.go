package testController

import (
	"testing"

	"quizapp/models/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func sampleQuestions() map[uint]scoredQuestion {
	return map[uint]scoredQuestion{
		1: {ID: 1, Type: quiz.SingleMCQ, Points: 2, Correct: map[uint]bool{11: true}},
		2: {ID: 2, Type: quiz.FillBlank, Points: 1},
		3: {ID: 3, Type: quiz.MultipleMCQ, Points: 3, Correct: map[uint]bool{31: true, 33: true}},
		4: {ID: 4, Type: quiz.YesNo, Points: 1, Correct: map[uint]bool{41: true}},
	}
}

func TestGradeAnswer(t *testing.T) {
	questions := sampleQuestions()

	tests := []struct {
		name       string
		questionID uint
		answer     quiz.Answer
		want       *bool
	}{
		{"single correct", 1, quiz.SingleAnswer(11), boolPtr(true)},
		{"single wrong", 1, quiz.SingleAnswer(12), boolPtr(false)},
		{"fill blank never graded", 2, quiz.TextAnswer("anything"), nil},
		{"multi exact set", 3, quiz.MultiAnswer([]uint{33, 31}), boolPtr(true)},
		{"multi subset fails", 3, quiz.MultiAnswer([]uint{31}), boolPtr(false)},
		{"multi superset fails", 3, quiz.MultiAnswer([]uint{31, 33, 32}), boolPtr(false)},
		{"multi duplicate ids count once", 3, quiz.MultiAnswer([]uint{31, 31, 33}), boolPtr(true)},
		{"yes_no correct", 4, quiz.SingleAnswer(41), boolPtr(true)},
		{"yes_no wrong", 4, quiz.SingleAnswer(42), boolPtr(false)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := gradeAnswer(questions[tc.questionID], tc.answer)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestScoreAnswers_WorkedExample(t *testing.T) {
	questions := sampleQuestions()

	answers := quiz.AnswerMap{
		1: quiz.SingleAnswer(11),        // correct, 2 pts
		2: quiz.TextAnswer("photosynthesis"), // ungraded, still counts in total
	}

	outcome := scoreAnswers(questions, answers)

	assert.Equal(t, 3.0, outcome.TotalPoints)
	assert.Equal(t, 2.0, outcome.EarnedPoints)
	assert.InDelta(t, 66.666, outcome.Percentage, 0.01)

	require.NotNil(t, outcome.Verdicts[1])
	assert.True(t, *outcome.Verdicts[1])
	assert.Nil(t, outcome.Verdicts[2])
}

func TestScoreAnswers_OnlyAnsweredCount(t *testing.T) {
	questions := sampleQuestions()

	// Question 3 and 4 unanswered: their points must not appear in the total.
	outcome := scoreAnswers(questions, quiz.AnswerMap{1: quiz.SingleAnswer(12)})

	assert.Equal(t, 2.0, outcome.TotalPoints)
	assert.Equal(t, 0.0, outcome.EarnedPoints)
	assert.Equal(t, 0.0, outcome.Percentage)
}

func TestScoreAnswers_EmptyMap(t *testing.T) {
	outcome := scoreAnswers(sampleQuestions(), quiz.AnswerMap{})

	assert.Equal(t, 0.0, outcome.TotalPoints)
	assert.Equal(t, 0.0, outcome.EarnedPoints)
	assert.Equal(t, 0.0, outcome.Percentage)
	assert.Empty(t, outcome.Verdicts)
}

func TestScoreAnswers_UnknownQuestionSkipped(t *testing.T) {
	outcome := scoreAnswers(sampleQuestions(), quiz.AnswerMap{
		999: quiz.SingleAnswer(11),
		1:   quiz.SingleAnswer(11),
	})

	assert.Equal(t, 2.0, outcome.TotalPoints)
	assert.Equal(t, 2.0, outcome.EarnedPoints)
	assert.NotContains(t, outcome.Verdicts, uint(999))
}

func TestScoreAnswers_Bounds(t *testing.T) {
	questions := sampleQuestions()

	answerSets := []quiz.AnswerMap{
		{1: quiz.SingleAnswer(11), 3: quiz.MultiAnswer([]uint{31, 33}), 4: quiz.SingleAnswer(41)},
		{1: quiz.SingleAnswer(12), 3: quiz.MultiAnswer([]uint{32}), 4: quiz.SingleAnswer(42)},
		{2: quiz.TextAnswer("foo")},
	}

	for _, answers := range answerSets {
		outcome := scoreAnswers(questions, answers)
		assert.GreaterOrEqual(t, outcome.EarnedPoints, 0.0)
		assert.LessOrEqual(t, outcome.EarnedPoints, outcome.TotalPoints)
		assert.GreaterOrEqual(t, outcome.Percentage, 0.0)
		assert.LessOrEqual(t, outcome.Percentage, 100.0)
	}
}

func TestScoreAnswers_MultiOrderIndependent(t *testing.T) {
	questions := sampleQuestions()

	first := scoreAnswers(questions, quiz.AnswerMap{3: quiz.MultiAnswer([]uint{31, 33})})
	second := scoreAnswers(questions, quiz.AnswerMap{3: quiz.MultiAnswer([]uint{33, 31})})

	assert.Equal(t, first.EarnedPoints, second.EarnedPoints)
	assert.Equal(t, first.Percentage, second.Percentage)
}

func TestScoreAnswers_MultiNoCorrectOptionsNeverCorrect(t *testing.T) {
	questions := map[uint]scoredQuestion{
		7: {ID: 7, Type: quiz.MultipleMCQ, Points: 2, Correct: map[uint]bool{}},
	}

	outcome := scoreAnswers(questions, quiz.AnswerMap{7: quiz.MultiAnswer(nil)})

	require.NotNil(t, outcome.Verdicts[7])
	assert.False(t, *outcome.Verdicts[7])
}
