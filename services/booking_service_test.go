package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
)

type bookingFixture struct {
	svc   *BookingService
	slots *memSlotStore
	appts *memApptStore
}

func newBookingFixture() *bookingFixture {
	slots := newMemSlotStore()
	appts := newMemApptStore()
	svc := NewBookingService(slots, appts, &memDirectory{}, &memCatalog{price: 500000})
	return &bookingFixture{svc: svc, slots: slots, appts: appts}
}

func TestReserveCreatesPendingAppointment(t *testing.T) {
	f := newBookingFixture()
	consultantID := uuid.New()
	userID := uuid.New()
	serviceID := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	slot := f.slots.add(models.SlotTime{ConsultantID: consultantID, StartTime: start, EndTime: start.Add(time.Hour)})

	appt, err := f.svc.Reserve(context.Background(), serviceID, consultantID, slot.ID, userID, "annual checkup", "prefers morning")
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	if appt.Status != models.AppointmentPending {
		t.Errorf("expected pending status, got %q", appt.Status)
	}
	if !appt.DateBooking.Equal(start) {
		t.Errorf("date_booking not copied from slot start time")
	}
	if appt.ConsultantID != consultantID || appt.UserID != userID || appt.ServiceID != serviceID {
		t.Error("appointment identifiers not set from request")
	}
	if f.slots.status(slot.ID) != models.SlotBooked {
		t.Errorf("slot should be booked after reserve, got %q", f.slots.status(slot.ID))
	}
}

func TestReserveNoDoubleBooking(t *testing.T) {
	f := newBookingFixture()
	consultantID := uuid.New()
	serviceID := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	slot := f.slots.add(models.SlotTime{ConsultantID: consultantID, StartTime: start, EndTime: start.Add(time.Hour)})

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Reserve(context.Background(), serviceID, consultantID, slot.ID, uuid.New(), "checkup", "")
		}(i)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
			losses++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != n-1 {
		t.Errorf("expected exactly 1 winner and %d ErrSlotTaken, got %d and %d", n-1, wins, losses)
	}
	if f.appts.count() != 1 {
		t.Errorf("expected exactly 1 appointment, got %d", f.appts.count())
	}
}

func TestReserveConsultantMismatch(t *testing.T) {
	f := newBookingFixture()
	start := time.Now().Add(24 * time.Hour)
	slot := f.slots.add(models.SlotTime{ConsultantID: uuid.New(), StartTime: start, EndTime: start.Add(time.Hour)})

	_, err := f.svc.Reserve(context.Background(), uuid.New(), uuid.New(), slot.ID, uuid.New(), "checkup", "")
	if !errors.Is(err, ErrConsultantMismatch) {
		t.Fatalf("expected ErrConsultantMismatch, got %v", err)
	}
	if f.slots.status(slot.ID) != models.SlotAvailable {
		t.Error("slot must stay available after a failed guard")
	}
}

func TestReserveUnknownSlot(t *testing.T) {
	f := newBookingFixture()
	_, err := f.svc.Reserve(context.Background(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), "checkup", "")
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestReserveReleasesSlotWhenCreateFails(t *testing.T) {
	f := newBookingFixture()
	consultantID := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	slot := f.slots.add(models.SlotTime{ConsultantID: consultantID, StartTime: start, EndTime: start.Add(time.Hour)})
	f.appts.createErr = errors.New("insert failed")

	_, err := f.svc.Reserve(context.Background(), uuid.New(), consultantID, slot.ID, uuid.New(), "checkup", "")
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if f.slots.status(slot.ID) != models.SlotAvailable {
		t.Errorf("slot must be released after create failure, got %q", f.slots.status(slot.ID))
	}
}

func TestCancelPendingReleasesSlotAndDeletes(t *testing.T) {
	f := newBookingFixture()
	start := time.Now().Add(24 * time.Hour)
	slot := f.slots.add(models.SlotTime{ConsultantID: uuid.New(), StartTime: start, EndTime: start.Add(time.Hour), Status: models.SlotBooked})
	appt := f.appts.add(models.Appointment{SlotID: slot.ID, UserID: uuid.New(), Status: models.AppointmentPending})

	if err := f.svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if f.slots.status(slot.ID) != models.SlotAvailable {
		t.Error("slot not released on cancel")
	}
	if _, err := f.appts.Get(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Error("appointment should be hard-deleted on cancel")
	}
}

func TestCancelRejectsNonPending(t *testing.T) {
	statuses := []string{
		models.AppointmentConfirmed,
		models.AppointmentCompleted,
		models.AppointmentCancelled,
		models.AppointmentRescheduled,
	}
	for _, status := range statuses {
		t.Run(status, func(t *testing.T) {
			f := newBookingFixture()
			start := time.Now().Add(24 * time.Hour)
			slot := f.slots.add(models.SlotTime{ConsultantID: uuid.New(), StartTime: start, EndTime: start.Add(time.Hour), Status: models.SlotBooked})
			appt := f.appts.add(models.Appointment{SlotID: slot.ID, UserID: uuid.New(), Status: status})

			if err := f.svc.Cancel(context.Background(), appt.ID); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState, got %v", err)
			}
			if f.slots.status(slot.ID) != models.SlotBooked {
				t.Error("slot must not change on a rejected cancel")
			}
			if got, err := f.appts.Get(context.Background(), appt.ID); err != nil || got.Status != status {
				t.Error("appointment must not change on a rejected cancel")
			}
		})
	}
}

func confirmedAppointment(f *bookingFixture, start time.Time) (*models.Appointment, *models.SlotTime) {
	slot := f.slots.add(models.SlotTime{ConsultantID: uuid.New(), StartTime: start, EndTime: start.Add(time.Hour), Status: models.SlotBooked})
	txn := "VNP123456"
	amount := 500000.0
	paidAt := time.Now().Add(-time.Hour)
	method := models.PaymentMethodVNPay
	appt := f.appts.add(models.Appointment{
		SlotID:        slot.ID,
		UserID:        uuid.New(),
		ConsultantID:  slot.ConsultantID,
		ServiceID:     uuid.New(),
		DateBooking:   start,
		Reason:        "follow-up",
		Note:          "bring previous results",
		Status:        models.AppointmentConfirmed,
		TransactionNo: &txn,
		PaymentAmount: &amount,
		PaymentTime:   &paidAt,
		PaymentMethod: &method,
	})
	return appt, slot
}

func TestRescheduleMovesAppointment(t *testing.T) {
	f := newBookingFixture()
	start := time.Now().Add(24 * time.Hour)
	old, oldSlot := confirmedAppointment(f, start)
	newStart := start.Add(4 * time.Hour)
	newSlot := f.slots.add(models.SlotTime{ConsultantID: old.ConsultantID, StartTime: newStart, EndTime: newStart.Add(time.Hour)})

	f.svc.now = func() time.Time { return start.Add(-4 * time.Hour) }

	successor, err := f.svc.Reschedule(context.Background(), old.ID, newSlot.ID, nil)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}

	if successor.Status != models.AppointmentConfirmed {
		t.Errorf("successor should be confirmed, got %q", successor.Status)
	}
	if !successor.IsRescheduled {
		t.Error("successor must be created with is_rescheduled=true")
	}
	if !successor.DateBooking.Equal(newStart) {
		t.Error("successor date_booking must come from the new slot")
	}
	if successor.UserID != old.UserID || successor.ServiceID != old.ServiceID ||
		successor.Reason != old.Reason || successor.Note != old.Note {
		t.Error("successor must copy user, service, reason and note from the original")
	}
	if successor.TransactionNo == nil || *successor.TransactionNo != *old.TransactionNo {
		t.Error("successor must carry the original payment details")
	}

	retired, _ := f.appts.Get(context.Background(), old.ID)
	if retired.Status != models.AppointmentRescheduled || !retired.IsRescheduled {
		t.Errorf("original should be rescheduled with is_rescheduled=true, got %q/%v", retired.Status, retired.IsRescheduled)
	}
	if f.slots.status(oldSlot.ID) != models.SlotAvailable {
		t.Error("old slot must be released")
	}
	if f.slots.status(newSlot.ID) != models.SlotBooked {
		t.Error("new slot must be booked")
	}
}

func TestRescheduleExactlyOnce(t *testing.T) {
	f := newBookingFixture()
	start := time.Now().Add(24 * time.Hour)
	old, _ := confirmedAppointment(f, start)
	newStart := start.Add(4 * time.Hour)
	newSlot := f.slots.add(models.SlotTime{ConsultantID: old.ConsultantID, StartTime: newStart, EndTime: newStart.Add(time.Hour)})
	f.svc.now = func() time.Time { return start.Add(-4 * time.Hour) }

	successor, err := f.svc.Reschedule(context.Background(), old.ID, newSlot.ID, nil)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}

	thirdStart := start.Add(6 * time.Hour)
	thirdSlot := f.slots.add(models.SlotTime{ConsultantID: old.ConsultantID, StartTime: thirdStart, EndTime: thirdStart.Add(time.Hour)})

	if _, err := f.svc.Reschedule(context.Background(), successor.ID, thirdSlot.ID, nil); !errors.Is(err, ErrAlreadyRescheduled) {
		t.Errorf("successor reschedule: expected ErrAlreadyRescheduled, got %v", err)
	}
	// The retired original fails on state, which is checked first.
	if _, err := f.svc.Reschedule(context.Background(), old.ID, thirdSlot.ID, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("original reschedule: expected ErrInvalidState, got %v", err)
	}
	if f.slots.status(thirdSlot.ID) != models.SlotAvailable {
		t.Error("third slot must stay available after rejected reschedules")
	}
}

func TestRescheduleWindowBoundary(t *testing.T) {
	cases := []struct {
		name      string
		remaining time.Duration
		wantErr   error
	}{
		{"2h59m before start", 2*time.Hour + 59*time.Minute, ErrTooLate},
		{"exactly 3h before start", 3 * time.Hour, ErrTooLate},
		{"3h01m before start", 3*time.Hour + time.Minute, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture()
			start := time.Now().Add(24 * time.Hour)
			old, _ := confirmedAppointment(f, start)
			newStart := start.Add(4 * time.Hour)
			newSlot := f.slots.add(models.SlotTime{ConsultantID: old.ConsultantID, StartTime: newStart, EndTime: newStart.Add(time.Hour)})
			f.svc.now = func() time.Time { return start.Add(-tc.remaining) }

			_, err := f.svc.Reschedule(context.Background(), old.ID, newSlot.ID, nil)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRescheduleGuards(t *testing.T) {
	f := newBookingFixture()
	start := time.Now().Add(24 * time.Hour)
	old, _ := confirmedAppointment(f, start)
	f.svc.now = func() time.Time { return start.Add(-4 * time.Hour) }

	t.Run("pending appointment", func(t *testing.T) {
		pending := f.appts.add(models.Appointment{SlotID: uuid.New(), Status: models.AppointmentPending, DateBooking: start})
		if _, err := f.svc.Reschedule(context.Background(), pending.ID, uuid.New(), nil); !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("new slot already booked", func(t *testing.T) {
		booked := f.slots.add(models.SlotTime{ConsultantID: old.ConsultantID, StartTime: start, EndTime: start.Add(time.Hour), Status: models.SlotBooked})
		if _, err := f.svc.Reschedule(context.Background(), old.ID, booked.ID, nil); !errors.Is(err, ErrSlotTaken) {
			t.Errorf("expected ErrSlotTaken, got %v", err)
		}
	})

	t.Run("consultant mismatch", func(t *testing.T) {
		free := f.slots.add(models.SlotTime{ConsultantID: uuid.New(), StartTime: start, EndTime: start.Add(time.Hour)})
		other := uuid.New()
		if _, err := f.svc.Reschedule(context.Background(), old.ID, free.ID, &other); !errors.Is(err, ErrConsultantMismatch) {
			t.Errorf("expected ErrConsultantMismatch, got %v", err)
		}
	})
}

func TestRescheduleRollsBackWhenCreateFails(t *testing.T) {
	f := newBookingFixture()
	start := time.Now().Add(24 * time.Hour)
	old, oldSlot := confirmedAppointment(f, start)
	newStart := start.Add(4 * time.Hour)
	newSlot := f.slots.add(models.SlotTime{ConsultantID: old.ConsultantID, StartTime: newStart, EndTime: newStart.Add(time.Hour)})
	f.svc.now = func() time.Time { return start.Add(-4 * time.Hour) }
	f.appts.createErr = errors.New("insert failed")

	if _, err := f.svc.Reschedule(context.Background(), old.ID, newSlot.ID, nil); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}

	reverted, _ := f.appts.Get(context.Background(), old.ID)
	if reverted.Status != models.AppointmentConfirmed || reverted.IsRescheduled {
		t.Errorf("original must be reverted to confirmed, got %q/%v", reverted.Status, reverted.IsRescheduled)
	}
	if f.slots.status(oldSlot.ID) != models.SlotBooked {
		t.Error("old slot must be re-reserved on rollback")
	}
	if f.slots.status(newSlot.ID) != models.SlotAvailable {
		t.Error("new slot must be released on rollback")
	}
}
