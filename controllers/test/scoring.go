package testController

import (
	"quizapp/models/quiz"

	"gorm.io/gorm"
)

// scoredQuestion is the slice of a question the scoring engine needs:
// identity, type, weight and the correct-option set.
type scoredQuestion struct {
	ID      uint
	Type    quiz.QuestionType
	Points  float64
	Correct map[uint]bool
}

// scoreOutcome is the result of scoring one answer map against a test.
type scoreOutcome struct {
	TotalPoints  float64
	EarnedPoints float64
	Percentage   float64
	// Verdicts holds per-question correctness keyed by question id.
	// nil means ungraded (fill_blank awaits manual grading).
	Verdicts map[uint]*bool
}

// gradeAnswer decides correctness of one answer. Returns nil for
// fill_blank: free-text answers are never auto-graded. For single-choice
// types the submitted option must be in the correct set; for multi-choice
// the submitted set must equal the correct set exactly, no partial credit.
func gradeAnswer(q scoredQuestion, ans quiz.Answer) *bool {
	if q.Type == quiz.FillBlank {
		return nil
	}

	var correct bool
	switch q.Type {
	case quiz.SingleMCQ, quiz.YesNo:
		correct = len(ans.OptionIDs) == 1 && q.Correct[ans.OptionIDs[0]]
	case quiz.MultipleMCQ:
		correct = optionSetEquals(ans.OptionIDs, q.Correct)
	}
	return &correct
}

// optionSetEquals reports whether selected, as a set, equals the correct set
func optionSetEquals(selected []uint, correct map[uint]bool) bool {
	set := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if !correct[id] {
			return false
		}
		set[id] = true
	}
	return len(set) == len(correct) && len(correct) > 0
}

// scoreAnswers computes the aggregate outcome for an answer map. Only
// questions present in the map count toward the total, so unanswered
// questions are neither rewarded nor penalized. Question ids that do not
// belong to the test are skipped. The computation reads nothing but its
// arguments, so a score is always re-derivable from persisted responses.
func scoreAnswers(questions map[uint]scoredQuestion, answers quiz.AnswerMap) scoreOutcome {
	outcome := scoreOutcome{Verdicts: make(map[uint]*bool, len(answers))}

	for questionID, answer := range answers {
		q, ok := questions[questionID]
		if !ok {
			continue
		}

		verdict := gradeAnswer(q, answer)
		outcome.Verdicts[questionID] = verdict

		outcome.TotalPoints += q.Points
		if verdict != nil && *verdict {
			outcome.EarnedPoints += q.Points
		}
	}

	if outcome.TotalPoints > 0 {
		outcome.Percentage = outcome.EarnedPoints / outcome.TotalPoints * 100
	}
	return outcome
}

// loadScoredQuestions fetches the scoring view of every question of a test
func loadScoredQuestions(db *gorm.DB, testID uint) (map[uint]scoredQuestion, error) {
	var questions []quiz.Question
	if err := db.Where("test_id = ?", testID).Find(&questions).Error; err != nil {
		return nil, err
	}

	questionIDs := make([]uint, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	var correctOptions []quiz.QuestionOption
	if len(questionIDs) > 0 {
		if err := db.Where("question_id IN ? AND is_correct = ?", questionIDs, true).
			Find(&correctOptions).Error; err != nil {
			return nil, err
		}
	}

	correctByQuestion := make(map[uint]map[uint]bool, len(questions))
	for _, opt := range correctOptions {
		if correctByQuestion[opt.QuestionID] == nil {
			correctByQuestion[opt.QuestionID] = make(map[uint]bool)
		}
		correctByQuestion[opt.QuestionID][opt.ID] = true
	}

	scored := make(map[uint]scoredQuestion, len(questions))
	for _, q := range questions {
		scored[q.ID] = scoredQuestion{
			ID:      q.ID,
			Type:    q.QuestionType,
			Points:  q.Points,
			Correct: correctByQuestion[q.ID],
		}
	}
	return scored, nil
}
