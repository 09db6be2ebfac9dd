package testController

import (
	"errors"
	"fmt"
	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models"
	"quizapp/models/quiz"
	"quizapp/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// sessionLockKey serializes session mutations per (test, user) pair
func sessionLockKey(testID int, userID uint) string {
	return fmt.Sprintf("session:%d:%d", testID, userID)
}

type optionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type questionView struct {
	ID           uint              `json:"id"`
	QuestionText string            `json:"question_text"`
	QuestionType quiz.QuestionType `json:"question_type"`
	Points       float64           `json:"points"`
	Order        int               `json:"order"`
	Explanation  string            `json:"explanation"`
	Options      []optionView      `json:"options"`
}

// findActiveSession returns the in_progress session for a (test, user) pair
func findActiveSession(db *gorm.DB, testID int, userID uint) (*quiz.TestSession, error) {
	var session quiz.TestSession
	err := db.Where("test_id = ? AND user_id = ? AND status = ?", testID, userID, quiz.SessionInProgress).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetTestQuestions returns the questions of a test together with the
// caller's session. A session is created lazily on first fetch; a later
// fetch resumes the existing one with its saved answers.
func GetTestQuestions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	testID := c.Locals("testID").(int)

	var test quiz.Test
	if err := db.First(&test, testID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test not found!", nil)
	}

	// One in_progress session per (test, user): the lock closes the
	// query-then-insert race between concurrent first fetches.
	lockKey := sessionLockKey(testID, userID)
	utils.SessionLocks.Lock(lockKey)
	defer utils.SessionLocks.Unlock(lockKey)

	session, err := findActiveSession(db, testID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		session = &quiz.TestSession{
			TestID:               test.ID,
			UserID:               userID,
			StartTime:            time.Now().UTC(),
			Status:               quiz.SessionInProgress,
			RemainingTime:        test.DurationMinutes * 60,
			CurrentQuestionIndex: 0,
		}
		if err := db.Create(session).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start test session!", nil)
		}
	} else if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test session!", nil)
	}

	var questions []quiz.Question
	if err := db.Where("test_id = ?", testID).Order("question_order asc").Find(&questions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test questions!", nil)
	}

	questionViews := make([]questionView, len(questions))
	for i, question := range questions {
		view := questionView{
			ID:           question.ID,
			QuestionText: question.QuestionText,
			QuestionType: question.QuestionType,
			Points:       question.Points,
			Order:        question.Order,
			Explanation:  question.Explanation,
			Options:      []optionView{},
		}

		if question.QuestionType.Choice() {
			var options []quiz.QuestionOption
			db.Where("question_id = ?", question.ID).Order("option_order asc").Find(&options)
			for _, opt := range options {
				view.Options = append(view.Options, optionView{ID: opt.ID, Text: opt.OptionText, IsCorrect: opt.IsCorrect})
			}
		}
		questionViews[i] = view
	}

	savedAnswers, err := loadSavedAnswers(db, session.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch saved answers!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test questions fetched successfully!", fiber.Map{
		"questions":              questionViews,
		"session_id":             session.ID,
		"current_question_index": session.CurrentQuestionIndex,
		"remaining_time":         session.RemainingTime,
		"saved_answers":          savedAnswers,
	})
}

// UpdateProgress autosaves the caller's answers and timer position. The
// whole call is one transaction: either every answer in the batch is
// persisted or none.
func UpdateProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	testID := c.Locals("testID").(int)

	reqData := new(struct {
		RemainingTime        *int           `json:"remaining_time"`
		CurrentQuestionIndex *int           `json:"current_question_index"`
		Answers              quiz.AnswerMap `json:"answers"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	lockKey := sessionLockKey(testID, userID)
	utils.SessionLocks.Lock(lockKey)
	defer utils.SessionLocks.Unlock(lockKey)

	session, err := findActiveSession(db, testID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No active session found!", nil)
	} else if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test session!", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if reqData.RemainingTime != nil {
			updates["remaining_time"] = *reqData.RemainingTime
		}
		if reqData.CurrentQuestionIndex != nil {
			updates["current_question_index"] = *reqData.CurrentQuestionIndex
		}
		if len(updates) > 0 {
			if err := tx.Model(session).Updates(updates).Error; err != nil {
				return err
			}
		}

		_, err := saveAnswers(tx, session, reqData.Answers)
		return err
	})
	if err != nil {
		var validationErr *answerValidationError
		if errors.As(err, &validationErr) {
			return middleware.ValidationErrorResponse(c, map[string]string{"answers": validationErr.Error()})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress saved successfully!", nil)
}

// UpdateSessionTime is the timer-only patch used between full autosaves
func UpdateSessionTime(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	testID := c.Locals("testID").(int)

	reqData := new(struct {
		RemainingTime *int `json:"remaining_time"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.RemainingTime == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	session, err := findActiveSession(db, testID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No active session found!", nil)
	} else if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test session!", nil)
	}

	if err := db.Model(session).Update("remaining_time", *reqData.RemainingTime).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update session time!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session time updated!", nil)
}

// GetSessionStatus reports whether the caller has a live session on a test
func GetSessionStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	testID := c.Locals("testID").(int)

	session, err := findActiveSession(database.Database.Db, testID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "No active session.", fiber.Map{
			"status": "no_active_session",
		})
	} else if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch session status!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session status fetched successfully!", fiber.Map{
		"session_id":     session.ID,
		"status":         session.Status,
		"remaining_time": session.RemainingTime,
		"start_time":     session.StartTime.Format(time.RFC3339),
	})
}
