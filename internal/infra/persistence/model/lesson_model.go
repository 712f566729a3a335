package model

import (
	"time"

	"github.com/google/uuid"
)

// LessonModel mirrors the 'lessons' table. Both profile references cascade on primary key
// rewrites so that a merged shadow profile keeps its lesson history.
type LessonModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	StudentID       uuid.UUID `gorm:"type:uuid;not null;index"`
	TeacherID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Title           string    `gorm:"type:text"`
	ScheduledAt     time.Time `gorm:"not null;index"`
	Status          string    `gorm:"type:varchar(20);not null"`
	Source          string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_lessons_source_event"`
	ExternalEventID string    `gorm:"type:varchar(1024);not null;uniqueIndex:idx_lessons_source_event"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Student *ProfileModel `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Teacher *ProfileModel `gorm:"foreignKey:TeacherID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName explicitly sets the table name for GORM.
func (LessonModel) TableName() string {
	return "lessons"
}
