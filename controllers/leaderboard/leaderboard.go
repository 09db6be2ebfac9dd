package leaderboardController

import (
	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models/quiz"

	"github.com/gofiber/fiber/v2"
)

type leaderboardRow struct {
	UserID         uint    `json:"user_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	TestsCompleted int64   `json:"tests_completed"`
	TestsPassed    int64   `json:"tests_passed"`
	AverageScore   float64 `json:"average_score"`
	HighestScore   float64 `json:"highest_score"`
}

// GetLeaderboard ranks users by their average score across completed
// sessions, best average first.
func GetLeaderboard(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var rows []leaderboardRow
	err := db.Table("test_sessions").
		Select(`users.id as user_id,
			users.first_name,
			users.last_name,
			users.email,
			COUNT(test_sessions.id) as tests_completed,
			SUM(CASE WHEN test_sessions.passed THEN 1 ELSE 0 END) as tests_passed,
			COALESCE(AVG(test_sessions.score), 0) as average_score,
			COALESCE(MAX(test_sessions.score), 0) as highest_score`).
		Joins("JOIN users ON users.id = test_sessions.user_id").
		Where("test_sessions.status = ?", quiz.SessionCompleted).
		Where("test_sessions.deleted_at IS NULL AND users.deleted_at IS NULL").
		Group("users.id, users.first_name, users.last_name, users.email").
		Order("average_score DESC").
		Limit(100).
		Scan(&rows).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch leaderboard!", nil)
	}

	type rankedRow struct {
		Rank int `json:"rank"`
		leaderboardRow
	}
	ranked := make([]rankedRow, len(rows))
	for i, row := range rows {
		ranked[i] = rankedRow{Rank: i + 1, leaderboardRow: row}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Leaderboard fetched successfully!", fiber.Map{
		"leaderboard": ranked,
		"total":       len(ranked),
	})
}
