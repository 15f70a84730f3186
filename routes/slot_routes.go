package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hoangvu1204/consult_care/handlers"
	"github.com/hoangvu1204/consult_care/middleware"
)

func SlotRoutes(app *fiber.App, h *handlers.SlotHandler) {
	api := app.Group("/api/v1")

	api.Get("/slots", h.ListAvailableSlots)

	consultant := api.Group("/consultant/slots", middleware.Protected(), middleware.ConsultantRequired())
	consultant.Post("", h.RegisterSlots)
}
