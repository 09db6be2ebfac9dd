package testValidator

import (
	"strconv"

	"quizapp/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ParseTestID parses the :id path param into Locals("testID").
func ParseTestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid test ID!", nil)
		}
		c.Locals("testID", id)
		return c.Next()
	}
}

// ParseSessionID parses the :sessionId path param into Locals("sessionID").
func ParseSessionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("sessionId"))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid session ID!", nil)
		}
		c.Locals("sessionID", id)
		return c.Next()
	}
}

type createTestRequest struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Topic        string  `json:"topic" validate:"required,min=3"`
	Description  string  `json:"description"`
	Duration     int     `json:"duration" validate:"required,gt=0"`
	PassingScore float64 `json:"passing_score" validate:"gte=0,lte=100"`
	NumQuestions int     `json:"num_questions" validate:"required,gt=0,lte=50"`
}

// CreateTest validator middleware
func CreateTest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(createTestRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Title":
					errors["title"] = "Title must be at least 3 characters long!"
				case "Topic":
					errors["topic"] = "Topic must be at least 3 characters long!"
				case "Duration":
					errors["duration"] = "Duration must be a positive number of minutes!"
				case "PassingScore":
					errors["passing_score"] = "Passing score must be between 0 and 100!"
				case "NumQuestions":
					errors["num_questions"] = "Number of questions must be between 1 and 50!"
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// UpdateProgress validator middleware. Answer shapes are validated when
// the controller decodes them, this only rejects malformed JSON early.
func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			RemainingTime        *int `json:"remaining_time"`
			CurrentQuestionIndex *int `json:"current_question_index"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.RemainingTime != nil && *reqData.RemainingTime < 0 {
			errors["remaining_time"] = "Remaining time cannot be negative!"
		}

		if reqData.CurrentQuestionIndex != nil && *reqData.CurrentQuestionIndex < 0 {
			errors["current_question_index"] = "Question index cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// UpdateSessionTime validator middleware
func UpdateSessionTime() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			RemainingTime *int `json:"remaining_time"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.RemainingTime == nil || *reqData.RemainingTime < 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"remaining_time": "Remaining time is required and cannot be negative!",
			})
		}

		return c.Next()
	}
}
