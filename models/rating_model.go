package models

import (
	"time"

	"github.com/google/uuid"
)

type Rating struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID    uuid.UUID `gorm:"not null;uniqueIndex:idx_ratings_booking_customer" json:"booking_id"`
	CustomerID   uuid.UUID `gorm:"not null;uniqueIndex:idx_ratings_booking_customer" json:"customer_id"`
	TechnicianID uuid.UUID `gorm:"not null" json:"technician_id"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      string    `gorm:"type:text" json:"comment"`

	Booking  Booking `gorm:"foreignkey:BookingID" json:"-"`
	Customer User    `gorm:"foreignkey:CustomerID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
