package userValidator

import (
	"regexp"
	"strconv"
	"strings"

	"quizapp/middleware"

	"github.com/gofiber/fiber/v2"
)

func isValidEmail(email string) bool {
	re := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return re.MatchString(email)
}

// ParseUserID parses the :id path param into Locals("targetUserID").
func ParseUserID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user ID!", nil)
		}
		c.Locals("targetUserID", id)
		return c.Next()
	}
}

// CreateUser validator middleware
func CreateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"first_name"`
			Role      string `json:"role"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Email == "" || !isValidEmail(reqData.Email) {
			errors["email"] = "Invalid email!"
		}

		if len(strings.TrimSpace(reqData.Password)) < 8 {
			errors["password"] = "Password must be at least 8 characters long!"
		}

		if strings.TrimSpace(reqData.FirstName) == "" {
			errors["first_name"] = "First name is required!"
		}

		if reqData.Role != "" && reqData.Role != "user" && reqData.Role != "admin" {
			errors["role"] = "Role must be either user or admin!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// UpdateUser validator middleware. All fields are optional but must be
// well formed when present.
func UpdateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Email    *string `json:"email"`
			Password *string `json:"password"`
			Role     *string `json:"role"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Email != nil && !isValidEmail(*reqData.Email) {
			errors["email"] = "Invalid email!"
		}

		if reqData.Password != nil && len(strings.TrimSpace(*reqData.Password)) < 8 {
			errors["password"] = "Password must be at least 8 characters long!"
		}

		if reqData.Role != nil && *reqData.Role != "user" && *reqData.Role != "admin" {
			errors["role"] = "Role must be either user or admin!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}
