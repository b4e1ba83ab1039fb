package handlers

import (
	"errors"
	"time"

	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
	"github.com/wambuidev/repair_hub/notifications"
	"github.com/wambuidev/repair_hub/services"
	"github.com/wambuidev/repair_hub/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateBookingRequest struct {
	ServiceID   string   `json:"service_id" validate:"required,uuid"`
	Address     string   `json:"address" validate:"required,min=5"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	ScheduledAt string   `json:"scheduled_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Notes       *string  `json:"notes,omitempty"`
}

func CreateBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	serviceID, _ := uuid.Parse(req.ServiceID)

	var service models.Service
	if err := database.DB.First(&service, "id = ? AND is_active = ?", serviceID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}

	scheduledAt, _ := time.Parse(time.RFC3339, req.ScheduledAt)
	if scheduledAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Scheduled time cannot be in the past"})
	}

	var booking models.Booking
	var payment models.Payment
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		reference, err := utils.GenerateUniqueBookingReference(tx)
		if err != nil {
			return err
		}

		booking = models.Booking{
			Reference:   reference,
			CustomerID:  customerID,
			ServiceID:   serviceID,
			Status:      "pending",
			Amount:      service.Price,
			Currency:    service.Currency,
			Address:     req.Address,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			ScheduledAt: &scheduledAt,
			Notes:       req.Notes,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		payment = models.Payment{
			BookingID: &booking.ID,
			Amount:    booking.Amount,
			Currency:  booking.Currency,
			Provider:  "gateway",
			Status:    "pending",
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create booking"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking":    booking,
		"payment_id": payment.ID,
	})
}

func CancelBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	dispatcher := services.NewDispatcher(database.DB)
	if err := dispatcher.CancelBooking(customerID, bookingID); err != nil {
		if errors.Is(err, services.ErrBookingNotEligible) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Booking can no longer be cancelled"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel booking"})
	}

	return c.JSON(fiber.Map{"message": "Booking cancelled"})
}

type RatingRequest struct {
	TechnicianID string `json:"technician_id" validate:"required,uuid"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment"`
}

func SubmitRating(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	technicianID, _ := uuid.Parse(req.TechnicianID)

	rating, err := services.NewRatingService(database.DB).
		SubmitRating(customerID, bookingID, technicianID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		case errors.Is(err, services.ErrTechnicianMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This booking was not handled by that technician"})
		case errors.Is(err, services.ErrBookingNotEligible):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ratings can only be submitted for completed bookings"})
		case errors.Is(err, services.ErrAlreadyRated):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already rated this booking"})
		case errors.Is(err, services.ErrInvalidRating):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit rating"})
	}

	go notifications.Notify(&technicianID, "technician", "New Rating Received",
		"A customer rated a completed job. Your average has been updated.", "rating", rating.ID)

	return c.Status(fiber.StatusCreated).JSON(rating)
}

func GetMyBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Service").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}
