package testController

import (
	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models"
	"quizapp/models/quiz"
	"quizapp/services/questiongen"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateTest returns the handler for authoring a test with generated
// questions. The generator is injected so its lifetime is owned by main,
// and the generation call completes before the transaction opens.
func CreateTest(gen *questiongen.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		db := database.Database.Db

		var user models.User
		if err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		reqData := new(struct {
			Title           string  `json:"title"`
			Description     string  `json:"description"`
			Topic           string  `json:"topic"`
			DurationMinutes int     `json:"duration"`
			PassingScore    float64 `json:"passing_score"`
			NumQuestions    int     `json:"num_questions"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		// Generate first, write after: the slow external call must not
		// hold a transaction open.
		generated, rawPayload, err := gen.Generate(c.Context(), reqData.Topic, reqData.NumQuestions)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate questions. Please try again.", nil)
		}

		var test quiz.Test
		err = db.Transaction(func(tx *gorm.DB) error {
			test = quiz.Test{
				Title:           reqData.Title,
				Description:     reqData.Description,
				DurationMinutes: reqData.DurationMinutes,
				PassingScore:    reqData.PassingScore,
				CreatorID:       userID,
			}
			if err := tx.Create(&test).Error; err != nil {
				return err
			}

			for idx, genQuestion := range generated {
				question := quiz.Question{
					TestID:       test.ID,
					QuestionText: genQuestion.QuestionText,
					QuestionType: quiz.QuestionType(genQuestion.QuestionType),
					Points:       genQuestion.Points,
					Order:        idx + 1,
					Explanation:  genQuestion.Explanation,
				}
				if err := tx.Create(&question).Error; err != nil {
					return err
				}

				for optIdx, genOption := range genQuestion.Options {
					option := quiz.QuestionOption{
						QuestionID: question.ID,
						OptionText: genOption.Text,
						IsCorrect:  genOption.IsCorrect,
						Order:      optIdx + 1,
					}
					if err := tx.Create(&option).Error; err != nil {
						return err
					}
				}
			}

			generationLog := quiz.TestGenerationLog{
				TestID:       test.ID,
				Topic:        reqData.Topic,
				NumQuestions: len(generated),
				Payload:      datatypes.JSON(rawPayload),
			}
			return tx.Create(&generationLog).Error
		})
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create test!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Test created successfully!", fiber.Map{
			"test_id": test.ID,
		})
	}
}

// DeleteTest removes a test and everything hanging off it. The route is
// gated to admins by middleware.
func DeleteTest(c *fiber.Ctx) error {
	db := database.Database.Db

	testID := c.Locals("testID").(int)

	var test quiz.Test
	if err := db.First(&test, testID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test not found!", nil)
	}

	// Cascade bottom-up so no orphan rows survive a partial failure
	err := db.Transaction(func(tx *gorm.DB) error {
		sessionIDs := tx.Model(&quiz.TestSession{}).Select("id").Where("test_id = ?", test.ID)
		responseIDs := tx.Model(&quiz.QuestionResponse{}).Select("id").Where("session_id IN (?)", sessionIDs)
		questionIDs := tx.Model(&quiz.Question{}).Select("id").Where("test_id = ?", test.ID)

		if err := tx.Unscoped().Where("response_id IN (?)", responseIDs).Delete(&quiz.ResponseOption{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("session_id IN (?)", sessionIDs).Delete(&quiz.QuestionResponse{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("test_id = ?", test.ID).Delete(&quiz.TestSession{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("question_id IN (?)", questionIDs).Delete(&quiz.QuestionOption{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("test_id = ?", test.ID).Delete(&quiz.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("test_id = ?", test.ID).Delete(&quiz.TestGenerationLog{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&test).Error
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete test!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test deleted successfully!", nil)
}

// GetTest returns a test definition with its questions and options
func GetTest(c *fiber.Ctx) error {
	testID := c.Locals("testID").(int)

	db := database.Database.Db

	var test quiz.Test
	if err := db.First(&test, testID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test not found!", nil)
	}

	var questions []quiz.Question
	if err := db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("option_order asc")
	}).Where("test_id = ?", testID).Order("question_order asc").Find(&questions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch test!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test fetched successfully!", fiber.Map{
		"id":               test.ID,
		"title":            test.Title,
		"description":      test.Description,
		"duration_minutes": test.DurationMinutes,
		"passing_score":    test.PassingScore,
		"created_at":       test.CreatedAt,
		"questions":        questions,
	})
}

// ListTests returns the paginated catalogue decorated with the caller's
// attempt status per test.
func ListTests(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 10)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	db := database.Database.Db

	var total int64
	db.Model(&quiz.Test{}).Count(&total)

	var tests []quiz.Test
	if err := db.Preload("Questions").
		Order("created_at desc").
		Offset(offset).Limit(perPage).
		Find(&tests).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch tests!", nil)
	}

	testIDs := make([]uint, len(tests))
	for i, test := range tests {
		testIDs[i] = test.ID
	}

	// Latest session per test for the caller, one query
	sessionByTest := make(map[uint]quiz.TestSession, len(tests))
	if len(testIDs) > 0 {
		var sessions []quiz.TestSession
		db.Where("user_id = ? AND test_id IN ?", userID, testIDs).
			Order("start_time asc").
			Find(&sessions)
		for _, session := range sessions {
			sessionByTest[session.TestID] = session
		}
	}

	type testListEntry struct {
		ID              uint     `json:"id"`
		Title           string   `json:"title"`
		Description     string   `json:"description"`
		DurationMinutes int      `json:"duration_minutes"`
		PassingScore    float64  `json:"passing_score"`
		CreatedAt       string   `json:"created_at"`
		QuestionCount   int      `json:"question_count"`
		Status          string   `json:"status"`
		LastScore       *float64 `json:"last_score"`
		LastAttemptDate *string  `json:"last_attempt_date"`
		SessionID       *uint    `json:"session_id"`
		RemainingTime   *int     `json:"remaining_time"`
	}

	entries := make([]testListEntry, len(tests))
	for i, test := range tests {
		entry := testListEntry{
			ID:              test.ID,
			Title:           test.Title,
			Description:     test.Description,
			DurationMinutes: test.DurationMinutes,
			PassingScore:    test.PassingScore,
			CreatedAt:       test.CreatedAt.UTC().Format(time.RFC3339),
			QuestionCount:   len(test.Questions),
			Status:          "not_started",
		}

		if session, found := sessionByTest[test.ID]; found {
			sessionID := session.ID
			entry.SessionID = &sessionID

			startTime := session.StartTime.Format(time.RFC3339)
			entry.LastAttemptDate = &startTime

			switch session.Status {
			case quiz.SessionCompleted:
				entry.Status = "completed"
				entry.LastScore = session.Score
			case quiz.SessionInProgress:
				entry.Status = "in_progress"
				remaining := session.RemainingTime
				entry.RemainingTime = &remaining
			}
		}
		entries[i] = entry
	}

	totalPages := (total + int64(perPage) - 1) / int64(perPage)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tests fetched successfully!", fiber.Map{
		"tests":        entries,
		"total":        total,
		"pages":        totalPages,
		"current_page": page,
	})
}
