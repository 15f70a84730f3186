package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hoangvu1204/consult_care/handlers"
	"github.com/hoangvu1204/consult_care/middleware"
)

func BookingRoutes(app *fiber.App, h *handlers.BookingHandler) {
	api := app.Group("/api/v1")

	appointments := api.Group("/appointments", middleware.Protected())
	appointments.Get("/me", h.GetMyAppointments)
	appointments.Post("", h.CreateAppointment)
	appointments.Post("/:appointmentId/cancel", h.CancelAppointment)
	appointments.Post("/:appointmentId/reschedule", h.RescheduleAppointment)
}
