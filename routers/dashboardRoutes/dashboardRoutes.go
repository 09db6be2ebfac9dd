package dashboardRoutes

import (
	dashboardControllers "quizapp/controllers/dashboard"
	"quizapp/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App) {
	dashboardGroup := app.Group("/api/dashboard", middleware.JWTMiddleware)

	dashboardGroup.Get("/stats", dashboardControllers.GetDashboardStats)
}
