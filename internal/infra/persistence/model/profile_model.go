package model

import (
	"time"

	"github.com/google/uuid"
)

// ProfileModel mirrors the 'profiles' table. IDs are assigned by the application: a fresh UUID for
// shadow profiles, the auth user id for real accounts.
// It is an exported type so it can be used by the GORM Gen tool from other packages.
type ProfileModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Email     string    `gorm:"type:varchar(255);unique;not null;index:idx_profiles_email_lower,expression:lower(email)"`
	FullName  string    `gorm:"type:varchar(255)"`
	IsShadow  bool      `gorm:"not null;default:false;index"`
	IsStudent bool      `gorm:"not null;default:false"`
	IsTeacher bool      `gorm:"not null;default:false"`
	IsAdmin   bool      `gorm:"not null;default:false"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProfileModel) TableName() string {
	return "profiles"
}
