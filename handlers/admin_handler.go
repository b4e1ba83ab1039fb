package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
	"github.com/wambuidev/repair_hub/notifications"
	"github.com/wambuidev/repair_hub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ListPendingApplications(c *fiber.Ctx) error {
	var applications []models.Technician
	database.DB.Preload("User").Preload("Specializations").
		Where("status = ?", "pending").
		Order("created_at asc").
		Find(&applications)

	return c.JSON(applications)
}

type ManageApplicationRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

func ManageApplication(c *fiber.Ctx) error {
	applicantID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req ManageApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	newStatus := "active"
	if req.Decision == "reject" {
		newStatus = "rejected"
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Technician{}).
			Where("user_id = ? AND status = ?", applicantID, "pending").
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if req.Decision == "approve" {
			return tx.Model(&models.User{}).Where("id = ?", applicantID).Update("role", "technician").Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pending application not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process application"})
	}

	title := "Application Approved"
	message := "Congratulations! Your technician application has been approved. You can now receive job offers."
	if req.Decision == "reject" {
		title = "Application Update"
		message = "Unfortunately your technician application was not approved at this time."
	}
	go notifications.Notify(&applicantID, "technician", title, message, "application", applicantID)

	return c.JSON(fiber.Map{"status": newStatus})
}

func ListPayoutRequests(c *fiber.Ctx) error {
	query := database.DB.Preload("Technician.User").Order("requested_at asc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.PayoutRequest
	query.Find(&requests)

	return c.JSON(requests)
}

type ProcessPayoutBody struct {
	Decision   string `json:"decision" validate:"required,oneof=approve paid reject"`
	AdminNotes string `json:"admin_notes"`
}

func ProcessPayoutRequest(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout request ID"})
	}

	var req ProcessPayoutBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	request, err := services.NewPayoutService(database.DB).ProcessPayout(requestID, req.Decision, req.AdminNotes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutRequestNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
		case errors.Is(err, services.ErrInvalidPayoutTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payout request is not in a state that allows this decision"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payout request"})
	}

	return c.JSON(request)
}

// GetPayoutStatement streams a PDF statement for a processed payout request.
func GetPayoutStatement(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout request ID"})
	}

	var request models.PayoutRequest
	if err := database.DB.Preload("Technician.User").Preload("Bookings").
		First(&request, "id = ?", requestID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
	}

	pdfBytes, filename, err := services.BuildPayoutStatementPDF(request, request.Technician.User, request.Bookings)
	if err != nil {
		log.Printf("🔥 Failed to build payout statement for %s: %v", requestID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate statement"})
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdfBytes)
}

func GetCommissionSetting(c *fiber.Ctx) error {
	var setting models.CommissionSetting
	if err := database.DB.First(&setting).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Commission setting not found"})
	}
	return c.JSON(setting)
}

type UpdateCommissionRequest struct {
	Percentage *int `json:"percentage" validate:"required,min=0,max=100"`
}

// UpdateCommissionSetting changes the platform rate. Only future
// completions are affected; earnings already settled keep the rate that
// was snapshotted onto their booking.
func UpdateCommissionSetting(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	adminID, _ := uuid.Parse(claims["user_id"].(string))

	var req UpdateCommissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var setting models.CommissionSetting
	if err := database.DB.First(&setting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Commission setting not found"})
	}

	setting.Percentage = *req.Percentage
	setting.UpdatedBy = &adminID
	if err := database.DB.Save(&setting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update commission"})
	}

	log.Printf("✅ Platform commission updated to %d%% by admin %s", setting.Percentage, adminID)
	return c.JSON(setting)
}

// RedispatchBooking expires any pending offers for a stuck booking and
// fans out a fresh round.
func RedispatchBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	offers, err := services.NewDispatcher(database.DB).Redispatch(bookingID)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotEligible) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Booking is not awaiting a technician"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to redispatch booking"})
	}

	return c.JSON(fiber.Map{"offers_sent": len(offers)})
}

func ListAllBookings(c *fiber.Ctx) error {
	query := database.DB.Preload("Service").Preload("Customer").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	query.Find(&bookings)

	return c.JSON(bookings)
}
