package models

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Reference    string     `gorm:"size:12;unique" json:"reference"`
	CustomerID   uuid.UUID  `gorm:"not null" json:"customer_id"`
	ServiceID    uuid.UUID  `gorm:"not null" json:"service_id"`
	TechnicianID *uuid.UUID `json:"technician_id"`

	Status        string `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentStatus string `gorm:"size:20;not null;default:'pending'" json:"payment_status"`

	Amount   int64  `gorm:"type:bigint;not null" json:"amount"`
	Currency string `gorm:"size:3" json:"currency"`

	Address   string   `gorm:"size:500;not null" json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	ScheduledAt *time.Time `json:"scheduled_at"`
	Notes       *string    `gorm:"type:text" json:"notes"`

	// Earnings snapshot, written exactly once when the booking completes.
	// A later commission-setting change must never alter these.
	TechnicianEarnings   *int64 `gorm:"type:bigint" json:"technician_earnings"`
	CommissionPercentage *int   `json:"commission_percentage"`

	PayoutRequestID *uuid.UUID `json:"payout_request_id"`

	Rated              bool    `gorm:"default:false" json:"rated"`
	CompletionPhotoURL *string `gorm:"size:255" json:"completion_photo_url"`

	Customer User    `gorm:"foreignkey:CustomerID" json:"-"`
	Service  Service `gorm:"foreignkey:ServiceID" json:"service"`

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
