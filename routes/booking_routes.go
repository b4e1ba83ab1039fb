package routes

import (
	"github.com/wambuidev/repair_hub/handlers"
	"github.com/wambuidev/repair_hub/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/services", handlers.GetServices)
	api.Get("/specializations", handlers.GetSpecializations)

	bookings := api.Group("/bookings", middleware.Protected())
	bookings.Post("", handlers.CreateBooking)
	bookings.Get("/me", handlers.GetMyBookings)
	bookings.Post("/:bookingId/cancel", handlers.CancelBooking)
	bookings.Post("/:bookingId/rating", handlers.SubmitRating)

	api.Get("/notifications/me", middleware.Protected(), handlers.GetMyNotifications)
}
