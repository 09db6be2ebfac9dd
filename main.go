package main

import (
	"log"

	"quizapp/config"
	"quizapp/database"
	authRoutes "quizapp/routers/authRoutes"
	dashboardRoutes "quizapp/routers/dashboardRoutes"
	leaderboardRoutes "quizapp/routers/leaderboardRoutes"
	testRoutes "quizapp/routers/testRoutes"
	userRoutes "quizapp/routers/userRoutes"
	"quizapp/services/questiongen"
	"quizapp/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	utils.InitializeBlocklistScheduler()

	gen := questiongen.New(config.AppConfig.GeminiApiUrl, config.AppConfig.GeminiApiKey)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	userRoutes.SetupUserRoutes(app)
	testRoutes.SetupTestRoutes(app, gen)
	dashboardRoutes.SetupDashboardRoutes(app)
	leaderboardRoutes.SetupLeaderboardRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
