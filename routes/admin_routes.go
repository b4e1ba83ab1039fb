package routes

import (
	"github.com/wambuidev/repair_hub/handlers"
	"github.com/wambuidev/repair_hub/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/applications/pending", handlers.ListPendingApplications)
	admin.Put("/applications/:userId", handlers.ManageApplication)

	admin.Get("/payout-requests", handlers.ListPayoutRequests)
	admin.Post("/payout-requests/:requestId/process", handlers.ProcessPayoutRequest)
	admin.Get("/payout-requests/:requestId/statement", handlers.GetPayoutStatement)

	admin.Get("/settings/commission", handlers.GetCommissionSetting)
	admin.Put("/settings/commission", handlers.UpdateCommissionSetting)

	admin.Get("/bookings", handlers.ListAllBookings)
	admin.Post("/bookings/:bookingId/redispatch", handlers.RedispatchBooking)
}
