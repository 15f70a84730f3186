package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hoangvu1204/consult_care/handlers"
	"github.com/hoangvu1204/consult_care/middleware"
)

func PaymentRoutes(app *fiber.App, h *handlers.PaymentHandler) {
	api := app.Group("/api/v1")

	// Gateways call the IPN endpoints directly; no auth.
	api.Get("/payments/vnpay/ipn", h.HandleVNPayIPN)
	api.Post("/payments/momo/ipn", h.HandleMoMoIPN)

	pay := api.Group("/payments", middleware.Protected())
	pay.Post("/vnpay/create/:appointmentId", h.CreateVNPayPayment)
	pay.Post("/momo/create/:appointmentId", h.CreateMoMoPayment)
}
