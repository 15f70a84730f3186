package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
)

const (
	ReconcileCompleted        = "completed"
	ReconcileCancelled        = "cancelled"
	ReconcileAlreadyProcessed = "already_processed"
)

// ReconcileResult is what a successfully handled callback yields.
// AlreadyProcessed is an outcome, not an error: gateways redeliver and
// a duplicate must be acknowledged without touching state.
type ReconcileResult struct {
	Outcome     string
	Appointment *models.Appointment
}

// PaymentReconciler applies gateway callback outcomes to appointments.
// It never touches slots: a slot consumed at booking time stays
// consumed even when the payment fails, pending consultant review.
type PaymentReconciler struct {
	appts    AppointmentStore
	gateways map[string]GatewayAdapter
	now      func() time.Time
}

func NewPaymentReconciler(appts AppointmentStore, gateways ...GatewayAdapter) *PaymentReconciler {
	byName := make(map[string]GatewayAdapter, len(gateways))
	for _, gw := range gateways {
		byName[gw.Name()] = gw
	}
	return &PaymentReconciler{appts: appts, gateways: byName, now: time.Now}
}

// HandleCallback verifies and applies one gateway callback. The
// signature check runs before the payload is interpreted, so a forged
// payload gets the same ErrBadSignature whether or not its embedded
// reference exists.
func (r *PaymentReconciler) HandleCallback(ctx context.Context, gatewayName string, payload map[string]string) (*ReconcileResult, error) {
	gw, ok := r.gateways[gatewayName]
	if !ok {
		return nil, ErrUnknownGateway
	}

	if !gw.VerifySignature(payload) {
		return nil, ErrBadSignature
	}

	outcome, err := gw.ExtractOutcome(payload)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	apptID, err := uuid.Parse(outcome.AppointmentRef)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	appt, err := r.appts.Get(ctx, apptID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if appt.Terminal() {
		return &ReconcileResult{Outcome: ReconcileAlreadyProcessed, Appointment: appt}, nil
	}

	from := []string{models.AppointmentPending, models.AppointmentConfirmed}
	var to string
	var extra map[string]any
	if outcome.Succeeded {
		to = models.AppointmentCompleted
		extra = map[string]any{
			"transaction_no": outcome.TransactionNo,
			"payment_amount": outcome.Amount,
			"payment_time":   r.now(),
			"payment_method": gw.Name(),
		}
	} else {
		to = models.AppointmentCancelled
		extra = map[string]any{"failure_reason": outcome.FailureCode}
	}

	if err := r.appts.TransitionStatus(ctx, apptID, from, to, extra); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Lost the race against another delivery or a cancel; the
			// current state decides which.
			cur, getErr := r.appts.Get(ctx, apptID)
			if getErr == nil && cur.Terminal() {
				return &ReconcileResult{Outcome: ReconcileAlreadyProcessed, Appointment: cur}, nil
			}
			return nil, ErrInvalidState
		}
		return nil, wrapStore(err)
	}

	updated, err := r.appts.Get(ctx, apptID)
	if err != nil {
		log.Printf("reconciled appointment %s but failed to reload it: %v", apptID, err)
		updated = appt
	}

	result := &ReconcileResult{Outcome: ReconcileCompleted, Appointment: updated}
	if !outcome.Succeeded {
		result.Outcome = ReconcileCancelled
	}
	return result, nil
}
