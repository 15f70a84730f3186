package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
)

// In-memory stores for exercising the services without a database. The
// mutex-guarded conditional updates mirror the repository's
// compare-and-swap semantics.

type memSlotStore struct {
	mu         sync.Mutex
	slots      map[uuid.UUID]*models.SlotTime
	reserveErr error
	releaseErr error
}

func newMemSlotStore() *memSlotStore {
	return &memSlotStore{slots: map[uuid.UUID]*models.SlotTime{}}
}

func (s *memSlotStore) add(slot models.SlotTime) *models.SlotTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if slot.Status == "" {
		slot.Status = models.SlotAvailable
	}
	s.slots[slot.ID] = &slot
	return &slot
}

func (s *memSlotStore) status(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id].Status
}

func (s *memSlotStore) Get(ctx context.Context, id uuid.UUID) (*models.SlotTime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

func (s *memSlotStore) Reserve(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return s.reserveErr
	}
	slot, ok := s.slots[id]
	if !ok {
		return ErrSlotNotFound
	}
	if slot.Status != models.SlotAvailable {
		return ErrSlotUnavailable
	}
	slot.Status = models.SlotBooked
	return nil
}

func (s *memSlotStore) Release(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.releaseErr != nil {
		return s.releaseErr
	}
	slot, ok := s.slots[id]
	if !ok {
		return ErrSlotNotFound
	}
	if slot.Status == models.SlotBooked {
		slot.Status = models.SlotAvailable
	}
	return nil
}

type memApptStore struct {
	mu        sync.Mutex
	appts     map[uuid.UUID]*models.Appointment
	createErr error
}

func newMemApptStore() *memApptStore {
	return &memApptStore{appts: map[uuid.UUID]*models.Appointment{}}
}

func (s *memApptStore) add(appt models.Appointment) *models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	s.appts[appt.ID] = &appt
	return &appt
}

func (s *memApptStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appts)
}

func (s *memApptStore) Create(ctx context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.CreatedAt = time.Now()
	cp := *appt
	s.appts[appt.ID] = &cp
	return nil
}

func (s *memApptStore) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *appt
	return &cp, nil
}

func (s *memApptStore) TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, extra map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}

	allowed := false
	for _, f := range from {
		if appt.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	appt.Status = to
	for k, v := range extra {
		switch k {
		case "is_rescheduled":
			appt.IsRescheduled = v.(bool)
		case "transaction_no":
			val := v.(string)
			appt.TransactionNo = &val
		case "payment_amount":
			val := v.(float64)
			appt.PaymentAmount = &val
		case "payment_time":
			val := v.(time.Time)
			appt.PaymentTime = &val
		case "payment_method":
			val := v.(string)
			appt.PaymentMethod = &val
		case "failure_reason":
			val := v.(string)
			appt.FailureReason = &val
		}
	}
	return nil
}

func (s *memApptStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if appt.Status != models.AppointmentPending {
		return ErrInvalidState
	}
	delete(s.appts, id)
	return nil
}

func (s *memApptStore) ListStalePending(ctx context.Context, before time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, appt := range s.appts {
		if appt.Status == models.AppointmentPending && appt.CreatedAt.Before(before) {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (s *memApptStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, appt := range s.appts {
		if appt.UserID == userID {
			out = append(out, *appt)
		}
	}
	return out, nil
}

type memDirectory struct {
	missing map[uuid.UUID]bool
}

func (d *memDirectory) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return !d.missing[id], nil
}

type memCatalog struct {
	price float64
	err   error
}

func (c *memCatalog) Price(ctx context.Context, id uuid.UUID) (float64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.price, nil
}
