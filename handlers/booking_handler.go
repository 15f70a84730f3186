package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/repository"
	"github.com/hoangvu1204/consult_care/services"
)

var validate = validator.New()

const requestTimeout = 5 * time.Second

func currentUserID(c *fiber.Ctx) uuid.UUID {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	id, _ := uuid.Parse(claims["user_id"].(string))
	return id
}

type BookingHandler struct {
	booking *services.BookingService
	appts   *repository.AppointmentRepo
}

func NewBookingHandler(booking *services.BookingService, appts *repository.AppointmentRepo) *BookingHandler {
	return &BookingHandler{booking: booking, appts: appts}
}

type CreateAppointmentRequest struct {
	ServiceID    string `json:"service_id" validate:"required,uuid"`
	ConsultantID string `json:"consultant_id" validate:"required,uuid"`
	SlotID       string `json:"slot_id" validate:"required,uuid"`
	Reason       string `json:"reason" validate:"required"`
	Note         string `json:"note"`
}

func (h *BookingHandler) CreateAppointment(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	serviceID, _ := uuid.Parse(req.ServiceID)
	consultantID, _ := uuid.Parse(req.ConsultantID)
	slotID, _ := uuid.Parse(req.SlotID)

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	appt, err := h.booking.Reserve(ctx, serviceID, consultantID, slotID, userID, req.Reason, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlotTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "slot no longer available"})
		case errors.Is(err, services.ErrSlotNotFound),
			errors.Is(err, services.ErrServiceNotFound),
			errors.Is(err, services.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrConsultantMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "booking timed out, check appointment status before retrying"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create appointment"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(appt)
}

func (h *BookingHandler) CancelAppointment(c *fiber.Ctx) error {
	userID := currentUserID(c)
	apptID, err := uuid.Parse(c.Params("appointmentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	appt, err := h.appts.Get(ctx, apptID)
	if err != nil {
		if errors.Is(err, services.ErrAppointmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load appointment"})
	}
	if appt.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your appointment"})
	}

	if err := h.booking.Cancel(ctx, apptID); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidState):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only pending appointments may be cancelled"})
		case errors.Is(err, services.ErrTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "cancel timed out, check appointment status before retrying"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel appointment"})
		}
	}

	return c.JSON(fiber.Map{"message": "Appointment cancelled and slot released"})
}

type RescheduleAppointmentRequest struct {
	NewSlotID       string `json:"new_slot_id" validate:"required,uuid"`
	NewConsultantID string `json:"new_consultant_id" validate:"omitempty,uuid"`
}

func (h *BookingHandler) RescheduleAppointment(c *fiber.Ctx) error {
	userID := currentUserID(c)
	apptID, err := uuid.Parse(c.Params("appointmentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	var req RescheduleAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	newSlotID, _ := uuid.Parse(req.NewSlotID)
	var newConsultantID *uuid.UUID
	if req.NewConsultantID != "" {
		id, _ := uuid.Parse(req.NewConsultantID)
		newConsultantID = &id
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	appt, err := h.appts.Get(ctx, apptID)
	if err != nil {
		if errors.Is(err, services.ErrAppointmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load appointment"})
	}
	if appt.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your appointment"})
	}

	successor, err := h.booking.Reschedule(ctx, apptID, newSlotID, newConsultantID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidState):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only confirmed appointments may be rescheduled"})
		case errors.Is(err, services.ErrAlreadyRescheduled):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "this appointment has already been rescheduled once"})
		case errors.Is(err, services.ErrTooLate):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reschedule window closed"})
		case errors.Is(err, services.ErrSlotTaken), errors.Is(err, services.ErrSlotNotFound):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "new slot no longer available"})
		case errors.Is(err, services.ErrConsultantMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "reschedule timed out, check appointment status before retrying"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reschedule appointment"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(successor)
}

func (h *BookingHandler) GetMyAppointments(c *fiber.Ctx) error {
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	appts, err := h.appts.ListByUser(ctx, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load appointments"})
	}
	return c.JSON(appts)
}
