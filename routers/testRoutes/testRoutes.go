package testRoutes

import (
	testControllers "quizapp/controllers/test"
	"quizapp/middleware"
	"quizapp/services/questiongen"
	testValidators "quizapp/validators/test"

	"github.com/gofiber/fiber/v2"
)

func SetupTestRoutes(app *fiber.App, gen *questiongen.Client) {
	testGroup := app.Group("/api/tests", middleware.JWTMiddleware)

	testGroup.Post("/create", testValidators.CreateTest(), testControllers.CreateTest(gen))
	testGroup.Get("/list", testControllers.ListTests)
	testGroup.Delete("/delete/:id", middleware.RequireRole("admin"), testValidators.ParseTestID(), testControllers.DeleteTest)
	testGroup.Get("/:id", testValidators.ParseTestID(), testControllers.GetTest)
	testGroup.Get("/:id/questions", testValidators.ParseTestID(), testControllers.GetTestQuestions)
	testGroup.Post("/:id/progress", testValidators.ParseTestID(), testValidators.UpdateProgress(), testControllers.UpdateProgress)
	testGroup.Post("/:id/submit", testValidators.ParseTestID(), testControllers.SubmitTest)
	testGroup.Get("/:id/session/status", testValidators.ParseTestID(), testControllers.GetSessionStatus)
	testGroup.Post("/:id/session/update-time", testValidators.ParseTestID(), testValidators.UpdateSessionTime(), testControllers.UpdateSessionTime)
	testGroup.Get("/:id/results/:sessionId", testValidators.ParseTestID(), testValidators.ParseSessionID(), testControllers.GetTestResults)
}
