package models

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationService is a catalog entry priced per session. The booking
// core only reads it (price, active flag); catalog management lives
// outside this service.
type ConsultationService struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"type:numeric(12,2);not null" json:"price"`
	Currency    string    `gorm:"size:3;not null;default:'VND'" json:"currency"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
