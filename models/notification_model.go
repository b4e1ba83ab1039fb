package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RecipientID   *uuid.UUID `json:"recipient_id"`
	RecipientRole string     `gorm:"size:20;not null" json:"recipient_role"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Message       string     `gorm:"type:text" json:"message"`

	RefType *string    `gorm:"size:30" json:"ref_type"`
	RefID   *uuid.UUID `json:"ref_id"`

	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}
