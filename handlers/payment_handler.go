package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
	"github.com/hoangvu1204/consult_care/payments"
	"github.com/hoangvu1204/consult_care/repository"
	"github.com/hoangvu1204/consult_care/services"
)

type PaymentHandler struct {
	reconciler *services.PaymentReconciler
	appts      *repository.AppointmentRepo
	catalog    *repository.ServiceRepo
	vnpay      *payments.VNPayGateway
	momo       *payments.MoMoGateway
}

func NewPaymentHandler(reconciler *services.PaymentReconciler, appts *repository.AppointmentRepo, catalog *repository.ServiceRepo, vnpay *payments.VNPayGateway, momo *payments.MoMoGateway) *PaymentHandler {
	return &PaymentHandler{
		reconciler: reconciler,
		appts:      appts,
		catalog:    catalog,
		vnpay:      vnpay,
		momo:       momo,
	}
}

// loadPayable resolves the caller's appointment and its price, refusing
// appointments that are already settled.
func (h *PaymentHandler) loadPayable(ctx context.Context, c *fiber.Ctx) (*models.Appointment, float64, error) {
	userID := currentUserID(c)
	apptID, err := uuid.Parse(c.Params("appointmentId"))
	if err != nil {
		return nil, 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	appt, err := h.appts.Get(ctx, apptID)
	if err != nil {
		if errors.Is(err, services.ErrAppointmentNotFound) {
			return nil, 0, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		}
		return nil, 0, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load appointment"})
	}
	if appt.UserID != userID {
		return nil, 0, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your appointment"})
	}
	if appt.Status != models.AppointmentPending && appt.Status != models.AppointmentConfirmed {
		return nil, 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Appointment is not payable in its current status"})
	}

	price, err := h.catalog.Price(ctx, appt.ServiceID)
	if err != nil {
		if errors.Is(err, services.ErrServiceNotFound) {
			return nil, 0, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Consultation service not found"})
		}
		return nil, 0, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up service price"})
	}
	return appt, price, nil
}

func (h *PaymentHandler) CreateVNPayPayment(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	appt, price, err := h.loadPayable(ctx, c)
	if appt == nil {
		return err
	}

	payURL := h.vnpay.BuildPaymentURL(appt.ID.String(), price, c.IP())
	return c.JSON(fiber.Map{"payment_url": payURL})
}

func (h *PaymentHandler) CreateMoMoPayment(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	appt, price, err := h.loadPayable(ctx, c)
	if appt == nil {
		return err
	}

	resp, err := h.momo.CreatePayment(appt.ID.String(), price)
	if err != nil {
		log.Printf("🔥 MoMo create payment failed for appointment %s: %v", appt.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}
	return c.JSON(fiber.Map{"payment_url": resp.PayURL})
}

// HandleVNPayIPN answers with VNPay's RspCode contract; the gateway
// stops retrying only on an HTTP 200 with a recognized code.
func (h *PaymentHandler) HandleVNPayIPN(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	result, err := h.reconciler.HandleCallback(ctx, "vnpay", c.Queries())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadSignature):
			return c.JSON(fiber.Map{"RspCode": "97", "Message": "Invalid signature"})
		case errors.Is(err, services.ErrAppointmentNotFound):
			return c.JSON(fiber.Map{"RspCode": "01", "Message": "Order not found"})
		case errors.Is(err, services.ErrInvalidState):
			return c.JSON(fiber.Map{"RspCode": "02", "Message": "Order already confirmed"})
		default:
			log.Printf("🔥 VNPay IPN processing failed: %v", err)
			return c.JSON(fiber.Map{"RspCode": "99", "Message": "Unknown error"})
		}
	}

	if result.Outcome == services.ReconcileAlreadyProcessed {
		return c.JSON(fiber.Map{"RspCode": "02", "Message": "Order already confirmed"})
	}
	return c.JSON(fiber.Map{"RspCode": "00", "Message": "Confirm success"})
}

// HandleMoMoIPN acknowledges with 204 as MoMo requires; only a bad
// signature is refused outright.
func (h *PaymentHandler) HandleMoMoIPN(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	payload, err := payments.ParseMoMoIPN(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse IPN body"})
	}

	_, err = h.reconciler.HandleCallback(ctx, "momo", payload)
	if err != nil {
		if errors.Is(err, services.ErrBadSignature) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid signature"})
		}
		// Acknowledge anyway so the gateway stops redelivering; the
		// appointment state is unchanged and safe to reconcile later.
		log.Printf("🔥 MoMo IPN processing failed: %v", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
