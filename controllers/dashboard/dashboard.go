package dashboardController

import (
	"database/sql"

	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models"
	"quizapp/models/quiz"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetDashboardStats routes to the admin or per-user statistics view
// depending on the caller's role.
func GetDashboardStats(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if user.Role == "admin" {
		return adminStats(c, db)
	}
	return userStats(c, db, userID)
}

func adminStats(c *fiber.Ctx, db *gorm.DB) error {
	var totalUsers, totalTests, totalAttempts, passedAttempts, recentAttempts int64

	db.Model(&models.User{}).Count(&totalUsers)
	db.Model(&quiz.Test{}).Count(&totalTests)

	completed := db.Model(&quiz.TestSession{}).Where("status = ?", quiz.SessionCompleted)
	completed.Count(&totalAttempts)

	db.Model(&quiz.TestSession{}).
		Where("status = ? AND passed = ?", quiz.SessionCompleted, true).
		Count(&passedAttempts)

	db.Model(&quiz.TestSession{}).
		Where("status = ? AND start_time >= ?", quiz.SessionCompleted, time.Now().Add(-24*time.Hour)).
		Count(&recentAttempts)

	var aggregates struct {
		AverageScore    float64
		HighestScore    float64
		AverageDuration float64 // minutes, from time_spent
	}
	db.Model(&quiz.TestSession{}).
		Where("status = ?", quiz.SessionCompleted).
		Select("COALESCE(AVG(score), 0) as average_score, COALESCE(MAX(score), 0) as highest_score, COALESCE(AVG(time_spent), 0) / 60.0 as average_duration").
		Scan(&aggregates)

	passRate := 0.0
	if totalAttempts > 0 {
		passRate = float64(passedAttempts) / float64(totalAttempts) * 100
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", fiber.Map{
		"totalUsers":          totalUsers,
		"totalTests":          totalTests,
		"totalAttempts":       totalAttempts,
		"averageScore":        aggregates.AverageScore,
		"passRate":            passRate,
		"recentTestAttempts":  recentAttempts,
		"highestScore":        aggregates.HighestScore,
		"averageTestDuration": aggregates.AverageDuration,
	})
}

func userStats(c *fiber.Ctx, db *gorm.DB, userID uint) error {
	var attempted, completedCount, passedCount int64

	db.Model(&quiz.TestSession{}).Where("user_id = ?", userID).Count(&attempted)
	db.Model(&quiz.TestSession{}).
		Where("user_id = ? AND status = ?", userID, quiz.SessionCompleted).
		Count(&completedCount)
	db.Model(&quiz.TestSession{}).
		Where("user_id = ? AND status = ? AND passed = ?", userID, quiz.SessionCompleted, true).
		Count(&passedCount)

	var aggregates struct {
		AverageScore float64
		BestScore    float64
		TimeSpent    float64 // minutes
	}
	db.Model(&quiz.TestSession{}).
		Where("user_id = ? AND status = ?", userID, quiz.SessionCompleted).
		Select("COALESCE(AVG(score), 0) as average_score, COALESCE(MAX(score), 0) as best_score, COALESCE(SUM(time_spent), 0) / 60.0 as time_spent").
		Scan(&aggregates)

	var lastAttempt sql.NullTime
	db.Model(&quiz.TestSession{}).
		Where("user_id = ? AND status = ?", userID, quiz.SessionCompleted).
		Select("MAX(end_time)").
		Scan(&lastAttempt)

	// Rank: 1 + number of users with a strictly better completed average
	var rank int64
	db.Raw(`
		SELECT COUNT(*) + 1 FROM (
			SELECT user_id, AVG(score) AS avg_score
			FROM test_sessions
			WHERE status = ? AND deleted_at IS NULL
			GROUP BY user_id
		) ranked WHERE ranked.avg_score > ?`,
		quiz.SessionCompleted, aggregates.AverageScore).Scan(&rank)

	// Active tests the user has not completed yet
	var upcomingTests int64
	db.Model(&quiz.Test{}).
		Where("is_active = ?", true).
		Where("id NOT IN (?)", db.Model(&quiz.TestSession{}).
			Select("test_id").
			Where("user_id = ? AND status = ?", userID, quiz.SessionCompleted)).
		Count(&upcomingTests)

	var lastAttemptDate interface{}
	if lastAttempt.Valid {
		lastAttemptDate = lastAttempt.Time.Format(time.RFC3339)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", fiber.Map{
		"testsAttempted":   attempted,
		"testsCompleted":   completedCount,
		"averageUserScore": aggregates.AverageScore,
		"bestScore":        aggregates.BestScore,
		"lastAttemptDate":  lastAttemptDate,
		"upcomingTests":    upcomingTests,
		"timeSpentTotal":   aggregates.TimeSpent,
		"passedTests":      passedCount,
		"rank":             rank,
	})
}
