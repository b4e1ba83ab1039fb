package models

import (
	"time"

	"github.com/google/uuid"
)

type JobOffer struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID    uuid.UUID `gorm:"not null;index" json:"booking_id"`
	TechnicianID uuid.UUID `gorm:"not null;index" json:"technician_id"`
	Status       string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	// Snapshot of the booking so a technician can decide without a second
	// read, and so accepting carries everything the app screen needs.
	ServiceName string     `gorm:"size:255" json:"service_name"`
	Address     string     `gorm:"size:500" json:"address"`
	Amount      int64      `gorm:"type:bigint" json:"amount"`
	ScheduledAt *time.Time `json:"scheduled_at"`

	DistanceKm float64 `gorm:"default:0" json:"distance_km"`

	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
