package authRoutes

import (
	authControllers "quizapp/controllers/auth"
	"quizapp/middleware"
	authValidators "quizapp/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/api/auth")

	authGroup.Post("/register", authValidators.Register(), authControllers.Register)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Get("/me", middleware.JWTMiddleware, authControllers.Me)
	authGroup.Post("/logout", middleware.JWTMiddleware, authControllers.Logout)
}
