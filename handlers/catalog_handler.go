package handlers

import (
	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// GetServices lists the bookable repair services.
func GetServices(c *fiber.Ctx) error {
	var services []models.Service
	database.DB.Where("is_active = ?", true).Order("name asc").Find(&services)
	return c.JSON(services)
}

func GetSpecializations(c *fiber.Ctx) error {
	var specializations []models.Specialization
	database.DB.Order("name asc").Find(&specializations)
	return c.JSON(specializations)
}

func GetMyNotifications(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var items []models.Notification
	database.DB.Where("recipient_id = ?", userID).Order("created_at desc").Limit(50).Find(&items)
	return c.JSON(items)
}
