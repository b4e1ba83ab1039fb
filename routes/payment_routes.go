package routes

import (
	"github.com/wambuidev/repair_hub/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Gateway callback, no user JWT on this one.
	api.Post("/payments/webhook", handlers.HandlePaymentWebhook)
}
