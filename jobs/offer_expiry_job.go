package jobs

import (
	"log"
	"time"

	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
)

// ExpireStaleOffers flips pending offers past their window to expired. The
// accept path re-checks expiry itself, so this sweep is best-effort cleanup
// that keeps technician offer lists and reporting honest.
func ExpireStaleOffers() {
	log.Println("Running job: ExpireStaleOffers...")

	res := database.DB.Model(&models.JobOffer{}).
		Where("status = ? AND expires_at < ?", "pending", time.Now()).
		Update("status", "expired")
	if res.Error != nil {
		log.Printf("Error expiring stale offers: %v", res.Error)
		return
	}

	if res.RowsAffected > 0 {
		log.Printf("Expired %d stale job offers", res.RowsAffected)
	}
}
