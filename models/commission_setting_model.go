package models

import (
	"time"

	"github.com/google/uuid"
)

// CommissionSetting is a single-row table; the provider in services reads it
// fresh on every calculation so admin changes apply to future completions only.
type CommissionSetting struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Percentage int        `gorm:"not null;default:30" json:"percentage"`
	UpdatedBy  *uuid.UUID `json:"updated_by"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
