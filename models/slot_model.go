package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
	SlotCancelled = "cancelled"
	SlotDeleted   = "deleted"
)

// SlotTime is a fixed time window owned by one consultant. A booked slot
// hosts at most one active appointment; only the booking flow may change
// its status, and only through the conditional updates in repository.
type SlotTime struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ConsultantID uuid.UUID `gorm:"not null;index" json:"consultant_id"`
	StartTime    time.Time `gorm:"not null" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	Status       string    `gorm:"size:20;not null;default:'available'" json:"status"`

	Consultant User `gorm:"foreignkey:ConsultantID" json:"consultant,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
