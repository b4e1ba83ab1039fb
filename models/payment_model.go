package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID *uuid.UUID `gorm:"unique" json:"booking_id"`

	Amount   int64  `gorm:"type:bigint;not null" json:"amount"`
	Currency string `gorm:"size:3" json:"currency"`

	Provider      string  `gorm:"size:50;not null" json:"provider"`
	ProviderTxnID *string `gorm:"size:255;unique" json:"provider_txn_id"`
	Status        string  `gorm:"size:20;not null" json:"status"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
