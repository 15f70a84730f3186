package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentPending     = "pending"
	AppointmentConfirmed   = "confirmed"
	AppointmentCancelled   = "cancelled"
	AppointmentCompleted   = "completed"
	AppointmentRescheduled = "rescheduled"
)

const (
	PaymentMethodVNPay = "vnpay"
	PaymentMethodMoMo  = "momo"
)

type Appointment struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SlotID       uuid.UUID `gorm:"not null" json:"slot_id"`
	UserID       uuid.UUID `gorm:"not null;index" json:"user_id"`
	ConsultantID uuid.UUID `gorm:"not null" json:"consultant_id"`
	ServiceID    uuid.UUID `gorm:"not null" json:"service_id"`

	DateBooking time.Time `gorm:"not null" json:"date_booking"`
	Reason      string    `gorm:"type:text" json:"reason"`
	Note        string    `gorm:"type:text" json:"note"`

	Status        string `gorm:"size:20;not null;default:'pending'" json:"status"`
	IsRescheduled bool   `gorm:"not null;default:false" json:"is_rescheduled"`

	TransactionNo *string    `gorm:"size:255" json:"transaction_no,omitempty"`
	PaymentAmount *float64   `gorm:"type:numeric(12,2)" json:"payment_amount,omitempty"`
	PaymentTime   *time.Time `json:"payment_time,omitempty"`
	PaymentMethod *string    `gorm:"size:20" json:"payment_method,omitempty"`
	FailureReason *string    `gorm:"size:255" json:"failure_reason,omitempty"`

	Slot    SlotTime            `gorm:"foreignkey:SlotID" json:"slot,omitempty"`
	Service ConsultationService `gorm:"foreignkey:ServiceID" json:"service,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether no further status transition is permitted.
func (a *Appointment) Terminal() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentCancelled
}
