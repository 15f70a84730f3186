package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
	"github.com/hoangvu1204/consult_care/repository"
)

type SlotHandler struct {
	slots *repository.SlotRepo
}

func NewSlotHandler(slots *repository.SlotRepo) *SlotHandler {
	return &SlotHandler{slots: slots}
}

type RegisterSlotsRequest struct {
	Slots []SlotWindow `json:"slots" validate:"required,min=1,dive"`
}

type SlotWindow struct {
	StartTime string `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime   string `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func (h *SlotHandler) RegisterSlots(c *fiber.Ctx) error {
	consultantID := currentUserID(c)

	var req RegisterSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	created := make([]models.SlotTime, 0, len(req.Slots))
	for _, w := range req.Slots {
		start, _ := time.Parse(time.RFC3339, w.StartTime)
		end, _ := time.Parse(time.RFC3339, w.EndTime)
		if !end.After(start) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "slot end time must be after start time"})
		}
		if start.Before(time.Now()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "slot start time cannot be in the past"})
		}

		slot := models.SlotTime{
			ConsultantID: consultantID,
			StartTime:    start,
			EndTime:      end,
			Status:       models.SlotAvailable,
		}
		if err := h.slots.Create(ctx, &slot); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register slots"})
		}
		created = append(created, slot)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *SlotHandler) ListAvailableSlots(c *fiber.Ctx) error {
	var consultantID *uuid.UUID
	if raw := c.Query("consultant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid consultant ID"})
		}
		consultantID = &id
	}

	from := time.Now()
	to := from.AddDate(0, 0, 14)
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from time"})
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to time"})
		}
		to = t
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	slots, err := h.slots.ListAvailable(ctx, consultantID, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load slots"})
	}
	return c.JSON(slots)
}
