package handlers

import (
	"log"

	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
	"github.com/wambuidev/repair_hub/notifications"
	"github.com/wambuidev/repair_hub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentWebhookPayload struct {
	BookingID     string `json:"booking_id" validate:"required,uuid"`
	Amount        int64  `json:"amount" validate:"required"`
	PaymentStatus string `json:"payment_status" validate:"required,oneof=paid failed refunded"`
	ProviderTxnID string `json:"provider_txn_id"`
}

// HandlePaymentWebhook is the payment confirmation event from the gateway.
// Signature verification happens upstream at the gateway integration layer.
// A successful payment confirms the booking and triggers offer dispatch;
// dispatch problems are logged, never surfaced back to the gateway.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	var payload PaymentWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}
	if err := validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	bookingID, _ := uuid.Parse(payload.BookingID)

	var booking models.Booking
	if err := database.DB.Preload("Customer").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	if booking.PaymentStatus == "paid" && payload.PaymentStatus == "paid" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook already processed"})
	}

	if payload.PaymentStatus != "paid" {
		err := database.DB.Model(&models.Booking{}).
			Where("id = ? AND payment_status = ?", bookingID, "pending").
			Update("payment_status", payload.PaymentStatus).Error
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record payment status"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Acknowledged " + payload.PaymentStatus + " payment"})
	}

	if payload.Amount != booking.Amount {
		log.Printf("🔥 Webhook amount mismatch for booking %s: got %d, want %d", booking.Reference, payload.Amount, booking.Amount)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment amount does not match booking amount"})
	}

	alreadyProcessed := false
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// The conditional update makes replayed webhooks harmless: only the
		// first confirmation moves the booking forward.
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND payment_status = ?", bookingID, "pending").
			Updates(map[string]interface{}{"payment_status": "paid", "status": "confirmed"})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			alreadyProcessed = true
			return nil
		}

		updates := map[string]interface{}{"status": "succeeded"}
		if payload.ProviderTxnID != "" {
			updates["provider_txn_id"] = payload.ProviderTxnID
		}
		return tx.Model(&models.Payment{}).
			Where("booking_id = ?", bookingID).
			Updates(updates).Error
	})
	if err != nil {
		log.Printf("🔥 CRITICAL: Error processing payment webhook for booking %s: %v", booking.Reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	// A concurrent delivery of the same event won the conditional update; do
	// not dispatch or notify a second time.
	if alreadyProcessed {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook already processed"})
	}

	go notifications.SendEmail(booking.Customer.FullName, booking.Customer.Email,
		"Your Booking is Confirmed!",
		"<h1>Booking Confirmed</h1><p>Your payment was received. We are finding a technician for your repair now.</p>")

	// Dispatch must never fail the payment confirmation that triggered it.
	if _, err := services.NewDispatcher(database.DB).DispatchOffers(bookingID); err != nil {
		log.Printf("🔥 Failed to dispatch offers for booking %s: %v", booking.Reference, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
}
