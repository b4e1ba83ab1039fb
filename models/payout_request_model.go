package models

import (
	"time"

	"github.com/google/uuid"
)

type PayoutRequest struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TechnicianID uuid.UUID `gorm:"not null" json:"technician_id"`
	Amount       int64     `gorm:"type:bigint;not null" json:"amount"`
	Status       string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	PaymentMethod  string `gorm:"size:30;not null" json:"payment_method"`
	AccountDetails string `gorm:"size:255;not null" json:"account_details"`

	AdminNotes  *string    `gorm:"type:text" json:"admin_notes"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	PaidAt      *time.Time `json:"paid_at"`

	// The claimed set: bookings carry this request's id in payout_request_id.
	Bookings   []Booking  `gorm:"foreignkey:PayoutRequestID" json:"bookings,omitempty"`
	Technician Technician `gorm:"foreignkey:TechnicianID" json:"technician,omitempty"`
}
