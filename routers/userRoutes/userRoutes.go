package userRoutes

import (
	userControllers "quizapp/controllers/user"
	"quizapp/middleware"
	userValidators "quizapp/validators/user"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/api/users", middleware.JWTMiddleware, middleware.RequireRole("admin"))

	userGroup.Get("/list", userControllers.GetUsers)
	userGroup.Post("/create", userValidators.CreateUser(), userControllers.CreateUser)
	userGroup.Get("/:id", userValidators.ParseUserID(), userControllers.GetUser)
	userGroup.Put("/:id", userValidators.ParseUserID(), userValidators.UpdateUser(), userControllers.UpdateUser)
	userGroup.Delete("/:id", userValidators.ParseUserID(), userControllers.DeleteUser)
}
