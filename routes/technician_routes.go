package routes

import (
	"github.com/wambuidev/repair_hub/handlers"
	"github.com/wambuidev/repair_hub/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func TechnicianRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	technician := api.Group("/technician", middleware.Protected())
	technician.Post("/apply", handlers.ApplyToBeATechnician)

	offers := technician.Group("/offers", middleware.TechnicianRequired())
	offers.Get("", handlers.GetMyOffers)
	offers.Post("/:offerId/accept", handlers.AcceptOffer)
	offers.Post("/:offerId/decline", handlers.DeclineOffer)

	technician.Get("/bookings", middleware.TechnicianRequired(), handlers.GetMyTechnicianBookings)
	technician.Post("/bookings/:bookingId/complete", middleware.TechnicianRequired(), handlers.CompleteBooking)

	technician.Get("/earnings", middleware.TechnicianRequired(), handlers.GetMyEarnings)
	technician.Get("/ratings/me", middleware.TechnicianRequired(), handlers.GetMyRatings)
	technician.Put("/availability", middleware.TechnicianRequired(), handlers.SetAvailability)
	technician.Get("/uploads/signature", middleware.TechnicianRequired(), handlers.GenerateUploadSignature)

	payouts := technician.Group("/payouts", middleware.TechnicianRequired())
	payouts.Post("", handlers.RequestPayout)
	payouts.Get("", handlers.GetMyPayoutRequests)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws/technician", websocket.New(handlers.ServeWs))
}
