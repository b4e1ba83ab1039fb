package handlers

import (
	"errors"
	"log"
	"time"

	config "github.com/wambuidev/repair_hub/configs"
	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
	"github.com/wambuidev/repair_hub/notifications"
	"github.com/wambuidev/repair_hub/services"
	"github.com/wambuidev/repair_hub/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TechnicianApplicationRequest struct {
	Headline        string   `json:"headline" validate:"required"`
	Bio             string   `json:"bio" validate:"required"`
	Specializations []string `json:"specializations" validate:"required,min=1,dive,uuid"`
	BaseLatitude    *float64 `json:"base_latitude,omitempty"`
	BaseLongitude   *float64 `json:"base_longitude,omitempty"`
}

func ApplyToBeATechnician(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var req TechnicianApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.Technician
	err := database.DB.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already submitted an application."})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	application := models.Technician{
		UserID:        userID,
		Headline:      &req.Headline,
		Bio:           &req.Bio,
		BaseLatitude:  req.BaseLatitude,
		BaseLongitude: req.BaseLongitude,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&application).Error; err != nil {
			return err
		}
		for _, rawID := range req.Specializations {
			specializationID, err := uuid.Parse(rawID)
			if err != nil {
				continue
			}
			link := models.TechnicianSpecialization{
				TechnicianUserID: userID,
				SpecializationID: specializationID,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create application"})
	}

	return c.Status(fiber.StatusCreated).JSON(application)
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

func SetAvailability(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	var req AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res := database.DB.Model(&models.Technician{}).
		Where("user_id = ? AND status = ?", technicianID, "active").
		Update("is_available", *req.IsAvailable)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update availability"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Active technician profile not found"})
	}

	return c.JSON(fiber.Map{"is_available": *req.IsAvailable})
}

// GetMyOffers lists the technician's pending offers. Offers past their
// window are filtered out here (lazy expiry) even if the sweep has not
// flipped their rows yet.
func GetMyOffers(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	var offers []models.JobOffer
	database.DB.
		Where("technician_id = ? AND status = ? AND expires_at > ?", technicianID, "pending", time.Now()).
		Order("created_at desc").
		Find(&offers)

	return c.JSON(offers)
}

func AcceptOffer(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	offerID, err := uuid.Parse(c.Params("offerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid offer ID"})
	}

	bookingID, err := services.NewDispatcher(database.DB).AcceptOffer(technicianID, offerID)
	if err != nil {
		if errors.Is(err, services.ErrOfferNoLongerAvailable) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This offer is no longer available"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to accept offer"})
	}

	return c.JSON(fiber.Map{"booking_id": bookingID})
}

func DeclineOffer(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	offerID, err := uuid.Parse(c.Params("offerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid offer ID"})
	}

	if err := services.NewDispatcher(database.DB).DeclineOffer(technicianID, offerID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to decline offer"})
	}

	return c.JSON(fiber.Map{"message": "Offer declined"})
}

type CompleteBookingRequest struct {
	CompletionPhotoURL *string `json:"completion_photo_url,omitempty"`
}

func CompleteBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var req CompleteBookingRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		}
	}

	booking, err := services.NewLedger(database.DB).SettleCompletion(bookingID, technicianID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		case errors.Is(err, services.ErrTechnicianMismatch):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the technician for this booking"})
		case errors.Is(err, services.ErrBookingNotEligible):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only in-progress bookings can be completed"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete booking"})
	}

	if req.CompletionPhotoURL != nil {
		if err := database.DB.Model(&models.Booking{}).Where("id = ?", bookingID).
			Update("completion_photo_url", *req.CompletionPhotoURL).Error; err != nil {
			log.Printf("Failed to attach completion photo for booking %s: %v", booking.Reference, err)
		}
	}

	go notifications.Notify(&booking.CustomerID, "customer", "Repair Completed",
		"Your technician marked the job as completed. You can now rate the service.", "booking", booking.ID)

	return c.JSON(fiber.Map{
		"message": "Booking marked as complete and earnings have been credited.",
		"booking": booking,
	})
}

func GetMyEarnings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	summary, err := services.NewLedger(database.DB).Summary(technicianID)
	if err != nil {
		if errors.Is(err, services.ErrTechnicianNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Technician profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load earnings"})
	}

	return c.JSON(summary)
}

type PayoutRequestBody struct {
	PaymentMethod  string `json:"payment_method" validate:"required,oneof=mpesa bank_transfer paypal"`
	AccountDetails string `json:"account_details" validate:"required,min=4"`
}

func RequestPayout(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	var req PayoutRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	payoutService := services.NewPayoutService(database.DB)
	request, err := payoutService.RequestPayout(technicianID, req.PaymentMethod, req.AccountDetails)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTechnicianNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Technician profile not found"})
		case errors.Is(err, services.ErrBelowMinimumPayout):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":          "Your pending earnings are below the minimum payout amount",
				"minimum_payout": payoutService.Minimum,
			})
		case errors.Is(err, services.ErrNoUnpaidBookings):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You have no unpaid completed bookings"})
		case errors.Is(err, services.ErrBookingAlreadyClaimed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A concurrent payout request is already claiming these bookings"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payout request"})
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

func GetMyPayoutRequests(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	var requests []models.PayoutRequest
	database.DB.Where("technician_id = ?", technicianID).Order("requested_at desc").Find(&requests)

	return c.JSON(requests)
}

func GetMyRatings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	var ratings []models.Rating
	database.DB.Preload("Customer").Where("technician_id = ?", technicianID).Order("created_at desc").Find(&ratings)

	return c.JSON(ratings)
}

func GetMyTechnicianBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	technicianID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Service").
		Where("technician_id = ?", technicianID).
		Order("created_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}

// ServeWs upgrades a technician connection for realtime offer pushes. The
// JWT travels as a query parameter because browsers cannot set headers on
// websocket upgrades.
func ServeWs(c *websocketcontrib.Conn) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.Close()
		return
	}

	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.Close()
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.Close()
		return
	}
	technicianID, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		c.Close()
		return
	}

	client := &websocket.Client{TechnicianID: technicianID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
