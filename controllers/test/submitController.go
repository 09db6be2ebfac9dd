package testController

import (
	"errors"
	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models"
	"quizapp/models/quiz"
	"quizapp/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SubmitTest finalizes the caller's active session: answers are persisted
// through the same ledger path as autosave, the score is derived from the
// persisted responses, and the session transitions to completed exactly
// once. Submitting again after completion returns the stored outcome
// instead of recomputing or duplicating responses.
func SubmitTest(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	testID := c.Locals("testID").(int)

	reqData := new(struct {
		Answers   quiz.AnswerMap `json:"answers"`
		TimeSpent int            `json:"timeSpent"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var test quiz.Test
	if err := db.First(&test, testID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test not found!", nil)
	}

	lockKey := sessionLockKey(testID, userID)
	utils.SessionLocks.Lock(lockKey)
	defer utils.SessionLocks.Unlock(lockKey)

	session, err := findActiveSession(db, testID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondWithCompletedSession(c, db, testID, userID)
	} else if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test session!", nil)
	}

	var outcome scoreOutcome
	var passed bool

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := saveAnswers(tx, session, reqData.Answers); err != nil {
			return err
		}

		// Score from persisted state, not the request payload, so the
		// stored result is always re-derivable from the ledger.
		savedAnswers, err := loadSavedAnswers(tx, session.ID)
		if err != nil {
			return err
		}
		questions, err := loadScoredQuestions(tx, session.TestID)
		if err != nil {
			return err
		}
		outcome = scoreAnswers(questions, savedAnswers)
		passed = outcome.Percentage >= test.PassingScore

		var responses []quiz.QuestionResponse
		if err := tx.Where("session_id = ?", session.ID).Find(&responses).Error; err != nil {
			return err
		}
		for i := range responses {
			verdict := outcome.Verdicts[responses[i].QuestionID]
			if err := tx.Model(&responses[i]).Update("is_correct", verdict).Error; err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		return tx.Model(session).Updates(map[string]interface{}{
			"end_time":   now,
			"status":     quiz.SessionCompleted,
			"score":      outcome.Percentage,
			"passed":     passed,
			"time_spent": reqData.TimeSpent,
		}).Error
	})
	if err != nil {
		var validationErr *answerValidationError
		if errors.As(err, &validationErr) {
			return middleware.ValidationErrorResponse(c, map[string]string{"answers": validationErr.Error()})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit test!", nil)
	}

	if passed {
		var user models.User
		if err := db.First(&user, userID).Error; err == nil {
			go utils.SendResultEmail(user.FirstName+" "+user.LastName, user.Email, test.Title, outcome.Percentage)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test submitted successfully!", fiber.Map{
		"session_id":    session.ID,
		"score":         outcome.Percentage,
		"passed":        passed,
		"total_points":  outcome.TotalPoints,
		"earned_points": outcome.EarnedPoints,
		"time_spent":    reqData.TimeSpent,
	})
}

// respondWithCompletedSession serves a re-submission: the most recent
// completed session's stored score together with a breakdown recomputed
// from its persisted responses. Nothing is written.
func respondWithCompletedSession(c *fiber.Ctx, db *gorm.DB, testID int, userID uint) error {
	var session quiz.TestSession
	err := db.Where("test_id = ? AND user_id = ? AND status = ?", testID, userID, quiz.SessionCompleted).
		Order("end_time desc").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No active test session found!", nil)
	} else if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test session!", nil)
	}

	savedAnswers, err := loadSavedAnswers(db, session.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test session!", nil)
	}
	questions, err := loadScoredQuestions(db, session.TestID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test session!", nil)
	}
	outcome := scoreAnswers(questions, savedAnswers)

	score := outcome.Percentage
	if session.Score != nil {
		score = *session.Score
	}
	passed := false
	if session.Passed != nil {
		passed = *session.Passed
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test already submitted.", fiber.Map{
		"session_id":    session.ID,
		"score":         score,
		"passed":        passed,
		"total_points":  outcome.TotalPoints,
		"earned_points": outcome.EarnedPoints,
		"time_spent":    session.TimeSpent,
	})
}

type resultOptionView struct {
	ID           uint   `json:"id"`
	Text         string `json:"text"`
	IsCorrect    bool   `json:"is_correct"`
	UserSelected bool   `json:"user_selected"`
}

type resultQuestionView struct {
	ID           uint               `json:"id"`
	QuestionText string             `json:"question_text"`
	QuestionType quiz.QuestionType  `json:"question_type"`
	Points       float64            `json:"points"`
	Explanation  string             `json:"explanation"`
	Options      []resultOptionView `json:"options"`
	UserAnswer   *quiz.Answer       `json:"user_answer"`
	IsCorrect    *bool              `json:"is_correct"`
}

// GetTestResults compiles the full review of a completed session from the
// persisted responses. The breakdown is recomputed at read time through the
// scoring engine, which by construction matches the score stored at submit;
// this endpoint never writes.
func GetTestResults(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	testID := c.Locals("testID").(int)
	sessionID := c.Locals("sessionID").(int)

	db := database.Database.Db

	var session quiz.TestSession
	err := db.Where("id = ? AND test_id = ? AND user_id = ? AND status = ?",
		sessionID, testID, userID, quiz.SessionCompleted).
		First(&session).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test session not found or not completed!", nil)
	}

	var test quiz.Test
	if err := db.First(&test, testID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test not found!", nil)
	}

	var questions []quiz.Question
	if err := db.Where("test_id = ?", testID).Order("question_order asc").Find(&questions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test results!", nil)
	}

	var responses []quiz.QuestionResponse
	if err := db.Preload("SelectedOptions").
		Where("session_id = ?", session.ID).
		Find(&responses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test results!", nil)
	}
	responseByQuestion := make(map[uint]*quiz.QuestionResponse, len(responses))
	for i := range responses {
		responseByQuestion[responses[i].QuestionID] = &responses[i]
	}

	savedAnswers := make(quiz.AnswerMap, len(responses))
	for _, response := range responses {
		optionIDs := make([]uint, len(response.SelectedOptions))
		for i, selected := range response.SelectedOptions {
			optionIDs[i] = selected.OptionID
		}
		savedAnswers[response.QuestionID] = quiz.ReconstructAnswer(response.TextResponse, optionIDs)
	}

	scoredQuestions, err := loadScoredQuestions(db, uint(testID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test results!", nil)
	}
	outcome := scoreAnswers(scoredQuestions, savedAnswers)
	passed := outcome.Percentage >= test.PassingScore

	correctCount := 0
	incorrectCount := 0
	unansweredCount := 0

	questionResults := make([]resultQuestionView, len(questions))
	for i, question := range questions {
		response := responseByQuestion[question.ID]

		view := resultQuestionView{
			ID:           question.ID,
			QuestionText: question.QuestionText,
			QuestionType: question.QuestionType,
			Points:       question.Points,
			Explanation:  question.Explanation,
			Options:      []resultOptionView{},
		}

		selected := make(map[uint]bool)
		if response != nil {
			for _, sel := range response.SelectedOptions {
				selected[sel.OptionID] = true
			}
		}

		var options []quiz.QuestionOption
		db.Where("question_id = ?", question.ID).Order("option_order asc").Find(&options)
		for _, opt := range options {
			view.Options = append(view.Options, resultOptionView{
				ID:           opt.ID,
				Text:         opt.OptionText,
				IsCorrect:    opt.IsCorrect,
				UserSelected: selected[opt.ID],
			})
		}

		answer, hasAnswer := savedAnswers[question.ID]
		answered := hasAnswer && answer.Answered()
		if answered {
			view.UserAnswer = &answer
		}

		// An unanswered question stays unresolved: it is neither correct
		// nor incorrect.
		switch {
		case !answered:
			unansweredCount++
			view.IsCorrect = nil
		case response.IsCorrect != nil && *response.IsCorrect:
			correctCount++
			view.IsCorrect = response.IsCorrect
		default:
			incorrectCount++
			view.IsCorrect = response.IsCorrect
		}

		questionResults[i] = view
	}

	timeTaken := session.TimeSpent
	if timeTaken == 0 && session.EndTime != nil {
		timeTaken = int(session.EndTime.Sub(session.StartTime).Seconds())
	}

	var endTime interface{}
	if session.EndTime != nil {
		endTime = session.EndTime.Format(time.RFC3339)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test results fetched successfully!", fiber.Map{
		"test_id":           test.ID,
		"test_title":        test.Title,
		"session_id":        session.ID,
		"start_time":        session.StartTime.Format(time.RFC3339),
		"end_time":          endTime,
		"time_taken":        timeTaken,
		"total_points":      outcome.TotalPoints,
		"earned_points":     outcome.EarnedPoints,
		"score_percentage":  outcome.Percentage,
		"passing_score":     test.PassingScore,
		"passed":            passed,
		"questions":         questionResults,
		"total_questions":   len(questionResults),
		"correct_answers":   correctCount,
		"incorrect_answers": incorrectCount,
		"unanswered":        unansweredCount,
	})
}
