package leaderboardRoutes

import (
	leaderboardControllers "quizapp/controllers/leaderboard"
	"quizapp/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App) {
	leaderboardGroup := app.Group("/api/leaderboard", middleware.JWTMiddleware)

	leaderboardGroup.Get("/list", leaderboardControllers.GetLeaderboard)
}
