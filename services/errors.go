package services

import (
	"context"
	"errors"
	"fmt"
)

// Business-rule errors. Callers can rely on errors.Is against these;
// anything wrapping ErrStore means the store itself failed and a retry
// may help, while the rest mean the rules forbid the operation.
var (
	ErrSlotTaken           = errors.New("slot no longer available")
	ErrSlotUnavailable     = errors.New("slot is not available")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrInvalidState        = errors.New("operation not valid for current status")
	ErrInvalidTransition   = errors.New("status transition not permitted")
	ErrAlreadyRescheduled  = errors.New("appointment has already been rescheduled")
	ErrTooLate             = errors.New("reschedule window closed")
	ErrConsultantMismatch  = errors.New("slot does not belong to the requested consultant")
	ErrBadSignature        = errors.New("invalid gateway signature")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrServiceNotFound     = errors.New("consultation service not found")
	ErrUnknownGateway      = errors.New("unknown payment gateway")
	ErrTimeout             = errors.New("operation timed out")
	ErrStore               = errors.New("store failure")
)

// wrapStore normalizes a store error for the caller: context deadlines
// become ErrTimeout, known sentinels pass through, everything else is
// tagged as a store failure.
func wrapStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout):
		return ErrTimeout
	case errors.Is(err, ErrStore),
		errors.Is(err, ErrSlotNotFound),
		errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrAppointmentNotFound),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidState):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
}
