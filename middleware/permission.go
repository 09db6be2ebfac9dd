package middleware

import (
	"quizapp/database"
	"quizapp/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole returns a middleware that only lets active users with the
// given role through. Runs after JWTMiddleware.
func RequireRole(requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		err := database.Database.Db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}

		if user.Role != requiredRole {
			return JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
		}

		return c.Next()
	}
}
