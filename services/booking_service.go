package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
)

// rescheduleWindow is how long before the booked start time a
// reschedule must arrive. At exactly the boundary the request is
// rejected.
const rescheduleWindow = 3 * time.Hour

type BookingService struct {
	slots    SlotStore
	appts    AppointmentStore
	accounts AccountDirectory
	catalog  ServiceCatalog
	now      func() time.Time
}

func NewBookingService(slots SlotStore, appts AppointmentStore, accounts AccountDirectory, catalog ServiceCatalog) *BookingService {
	return &BookingService{
		slots:    slots,
		appts:    appts,
		accounts: accounts,
		catalog:  catalog,
		now:      time.Now,
	}
}

// Reserve books a slot for a customer and creates the pending
// appointment. The slot reservation is the race arbiter: losing it
// surfaces ErrSlotTaken, and any failure after winning it releases the
// slot again so no booked slot is left orphaned.
func (s *BookingService) Reserve(ctx context.Context, serviceID, consultantID, slotID, userID uuid.UUID, reason, note string) (*models.Appointment, error) {
	slot, err := s.slots.Get(ctx, slotID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if slot.ConsultantID != consultantID {
		return nil, ErrConsultantMismatch
	}

	ok, err := s.accounts.Exists(ctx, userID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if !ok {
		return nil, ErrAccountNotFound
	}
	if _, err := s.catalog.Price(ctx, serviceID); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, wrapStore(err)
	}

	if err := s.slots.Reserve(ctx, slotID); err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			return nil, ErrSlotTaken
		}
		return nil, wrapStore(err)
	}

	appt := &models.Appointment{
		SlotID:       slot.ID,
		UserID:       userID,
		ConsultantID: slot.ConsultantID,
		ServiceID:    serviceID,
		DateBooking:  slot.StartTime,
		Reason:       reason,
		Note:         note,
		Status:       models.AppointmentPending,
	}
	if err := s.appts.Create(ctx, appt); err != nil {
		if relErr := s.slots.Release(context.WithoutCancel(ctx), slotID); relErr != nil {
			log.Printf("failed to release slot %s after appointment create error: %v", slotID, relErr)
		}
		return nil, wrapStore(err)
	}

	return appt, nil
}

// Cancel removes a pending appointment and frees its slot. The slot is
// released before the record is deleted: a crash in between leaves a
// harmless pending row with no booked slot, which the expiry job
// collects, instead of a permanently locked slot.
func (s *BookingService) Cancel(ctx context.Context, appointmentID uuid.UUID) error {
	appt, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		return wrapStore(err)
	}
	if appt.Status != models.AppointmentPending {
		return ErrInvalidState
	}

	if err := s.slots.Release(ctx, appt.SlotID); err != nil {
		if !errors.Is(err, ErrSlotNotFound) {
			return wrapStore(err)
		}
		log.Printf("cancel: slot %s for appointment %s no longer exists", appt.SlotID, appt.ID)
	}

	if err := s.appts.Delete(ctx, appointmentID); err != nil {
		return wrapStore(err)
	}
	return nil
}

// Reschedule moves a confirmed appointment to a new slot, once ever.
// Guards run in a fixed order and the first failure wins. The mutation
// itself is a saga: the new slot is reserved first so the customer is
// never left holding no slot, and each later step compensates on
// failure.
func (s *BookingService) Reschedule(ctx context.Context, appointmentID, newSlotID uuid.UUID, newConsultantID *uuid.UUID) (*models.Appointment, error) {
	old, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if old.Status != models.AppointmentConfirmed {
		return nil, ErrInvalidState
	}
	if old.IsRescheduled {
		return nil, ErrAlreadyRescheduled
	}
	if !s.now().Before(old.DateBooking.Add(-rescheduleWindow)) {
		return nil, ErrTooLate
	}

	newSlot, err := s.slots.Get(ctx, newSlotID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if newSlot.Status != models.SlotAvailable {
		return nil, ErrSlotTaken
	}
	if newConsultantID != nil && *newConsultantID != newSlot.ConsultantID {
		return nil, ErrConsultantMismatch
	}

	if err := s.slots.Reserve(ctx, newSlotID); err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			return nil, ErrSlotTaken
		}
		return nil, wrapStore(err)
	}

	// Retire the old appointment. A concurrent reschedule that won the
	// race leaves it out of the confirmed state, so the guarded update
	// doubles as the commit point.
	err = s.appts.TransitionStatus(ctx, old.ID,
		[]string{models.AppointmentConfirmed}, models.AppointmentRescheduled,
		map[string]any{"is_rescheduled": true})
	if err != nil {
		s.release(ctx, newSlotID)
		if errors.Is(err, ErrInvalidTransition) {
			if cur, getErr := s.appts.Get(ctx, old.ID); getErr == nil &&
				(cur.IsRescheduled || cur.Status == models.AppointmentRescheduled) {
				return nil, ErrAlreadyRescheduled
			}
			return nil, ErrInvalidState
		}
		return nil, wrapStore(err)
	}

	if err := s.slots.Release(ctx, old.SlotID); err != nil && !errors.Is(err, ErrSlotNotFound) {
		s.revertReschedule(ctx, old.ID)
		s.release(ctx, newSlotID)
		return nil, wrapStore(err)
	}

	// is_rescheduled is pre-set on the successor: the rule is one
	// reschedule per original booking, and setting it at creation
	// closes the race where a second request could slip in before the
	// first one commits.
	successor := &models.Appointment{
		SlotID:        newSlot.ID,
		UserID:        old.UserID,
		ConsultantID:  newSlot.ConsultantID,
		ServiceID:     old.ServiceID,
		DateBooking:   newSlot.StartTime,
		Reason:        old.Reason,
		Note:          old.Note,
		Status:        models.AppointmentConfirmed,
		IsRescheduled: true,
		TransactionNo: old.TransactionNo,
		PaymentAmount: old.PaymentAmount,
		PaymentTime:   old.PaymentTime,
		PaymentMethod: old.PaymentMethod,
	}
	if err := s.appts.Create(ctx, successor); err != nil {
		if resErr := s.slots.Reserve(context.WithoutCancel(ctx), old.SlotID); resErr != nil {
			log.Printf("reschedule: failed to re-reserve slot %s during rollback: %v", old.SlotID, resErr)
		}
		s.revertReschedule(ctx, old.ID)
		s.release(ctx, newSlotID)
		return nil, wrapStore(err)
	}

	return successor, nil
}

func (s *BookingService) release(ctx context.Context, slotID uuid.UUID) {
	if err := s.slots.Release(context.WithoutCancel(ctx), slotID); err != nil {
		log.Printf("failed to release slot %s during rollback: %v", slotID, err)
	}
}

func (s *BookingService) revertReschedule(ctx context.Context, appointmentID uuid.UUID) {
	err := s.appts.TransitionStatus(context.WithoutCancel(ctx), appointmentID,
		[]string{models.AppointmentRescheduled}, models.AppointmentConfirmed,
		map[string]any{"is_rescheduled": false})
	if err != nil {
		log.Printf("failed to revert appointment %s during rollback: %v", appointmentID, err)
	}
}
