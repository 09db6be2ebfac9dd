package utils

import (
	"log"
	"quizapp/database"
	"quizapp/models"
	"time"

	"github.com/robfig/cron/v3"
)

// InitializeBlocklistScheduler starts the daily cleanup of revoked-token
// rows whose tokens have expired on their own.
func InitializeBlocklistScheduler() {
	log.Println("[BLOCKLIST-SCHEDULER] Initializing token blocklist scheduler...")

	c := cron.New()

	// Run daily at 3 AM
	c.AddFunc("0 3 * * *", func() {
		PurgeExpiredBlocklistTokens()
	})

	c.Start()
	log.Println("[BLOCKLIST-SCHEDULER] Token blocklist scheduler started - runs daily at 3 AM")
}

// PurgeExpiredBlocklistTokens deletes blocklist entries for tokens that are
// past their expiry. An expired token is rejected by signature validation
// anyway, so the row no longer serves a purpose.
func PurgeExpiredBlocklistTokens() {
	db := database.Database.Db

	result := db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&models.TokenBlocklist{})
	if result.Error != nil {
		log.Printf("[BLOCKLIST-SCHEDULER] Error purging expired tokens: %v", result.Error)
		return
	}

	log.Printf("[BLOCKLIST-SCHEDULER] Purged %d expired blocklist tokens", result.RowsAffected)
}
