package models

import "github.com/google/uuid"

type Specialization struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name string    `gorm:"size:100;not null;unique" json:"name"`
}

type TechnicianSpecialization struct {
	TechnicianUserID uuid.UUID `gorm:"primary_key"`
	SpecializationID uuid.UUID `gorm:"primary_key"`
}
