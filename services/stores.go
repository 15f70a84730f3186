package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
	"github.com/hoangvu1204/consult_care/payments"
)

// SlotStore owns slot availability. Reserve and Release must be atomic
// conditional updates at the store, never read-modify-write in the
// application; that single compare-and-swap is what prevents
// double-booking under concurrent requests.
type SlotStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.SlotTime, error)
	// Reserve transitions available -> booked only if the slot is
	// currently available, otherwise ErrSlotUnavailable with no side
	// effects.
	Reserve(ctx context.Context, id uuid.UUID) error
	// Release transitions booked -> available; releasing an already
	// available slot is a no-op.
	Release(ctx context.Context, id uuid.UUID) error
}

// AppointmentStore owns appointment records. TransitionStatus applies a
// single guarded update: the write happens only if the current status
// is in from, and extra columns land in the same write.
type AppointmentStore interface {
	Create(ctx context.Context, appt *models.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, extra map[string]any) error
	// Delete removes the record only while it is still pending.
	Delete(ctx context.Context, id uuid.UUID) error
	ListStalePending(ctx context.Context, before time.Time) ([]models.Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Appointment, error)
}

// AccountDirectory and ServiceCatalog are read-only collaborators; the
// booking core checks existence and pricing but does not own them.
type AccountDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type ServiceCatalog interface {
	Price(ctx context.Context, id uuid.UUID) (float64, error)
}

// GatewayAdapter abstracts one payment gateway's callback handling:
// signature verification first, outcome extraction second. One concrete
// implementation per gateway lives in the payments package.
type GatewayAdapter interface {
	Name() string
	VerifySignature(payload map[string]string) bool
	ExtractOutcome(payload map[string]string) (payments.Outcome, error)
}
