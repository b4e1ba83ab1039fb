package models

import (
	"time"

	"github.com/google/uuid"
)

type Technician struct {
	UserID      uuid.UUID `gorm:"primary_key" json:"user_id"`
	Headline    *string   `gorm:"size:255" json:"headline"`
	Bio         *string   `gorm:"type:text" json:"bio"`
	Status      string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`

	AvgRating   float64 `gorm:"default:0" json:"avg_rating"`
	RatingCount int     `gorm:"default:0" json:"rating_count"`

	BaseLatitude  *float64 `json:"base_latitude"`
	BaseLongitude *float64 `json:"base_longitude"`

	// Running totals maintained at settlement time. The ledger prefers live
	// aggregation over bookings and falls back to these when booking rows
	// have been archived.
	TotalEarnings   int64 `gorm:"type:bigint;default:0" json:"-"`
	PendingEarnings int64 `gorm:"type:bigint;default:0" json:"-"`
	PaidEarnings    int64 `gorm:"type:bigint;default:0" json:"-"`

	Specializations []*Specialization `gorm:"many2many:technician_specializations;" json:"specializations"`
	User            User              `gorm:"foreignkey:UserID" json:"user"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
