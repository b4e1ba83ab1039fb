package notifications

import (
	"log"

	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
	"github.com/google/uuid"
)

// Notify writes an in-app notification row. Fire-and-forget: a write failure
// is logged and never rolls back the operation that triggered it. A nil
// recipient with role "admin" targets the admin dashboard feed.
func Notify(recipientID *uuid.UUID, recipientRole, title, message, refType string, refID uuid.UUID) {
	notification := models.Notification{
		RecipientID:   recipientID,
		RecipientRole: recipientRole,
		Title:         title,
		Message:       message,
		RefType:       &refType,
		RefID:         &refID,
	}

	if err := database.DB.Create(&notification).Error; err != nil {
		log.Printf("🔥 Failed to store notification %q: %v", title, err)
	}
}
