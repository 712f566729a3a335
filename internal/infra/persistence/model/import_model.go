package model

import (
	"time"

	"github.com/google/uuid"
)

// ImportRunModel mirrors the 'import_runs' table.
type ImportRunModel struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primary_key"`
	TeacherID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	RangeStart            time.Time           `gorm:"not null"`
	RangeEnd              time.Time           `gorm:"not null"`
	Status                string              `gorm:"type:varchar(20);not null"`
	LessonsCreated        int                 `gorm:"not null;default:0"`
	ShadowProfilesCreated int                 `gorm:"not null;default:0"`
	SkippedCount          int                 `gorm:"not null;default:0"`
	FailedEvents          []FailedEventRecord `gorm:"type:jsonb;serializer:json"`
	StartedAt             time.Time
	FinishedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Chunks []ImportChunkModel `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (ImportRunModel) TableName() string {
	return "import_runs"
}

// FailedEventRecord is the JSON shape of an event failure stored on the run row.
type FailedEventRecord struct {
	ChunkLabel string `json:"chunk_label"`
	EventID    string `json:"event_id"`
	Email      string `json:"email"`
	Error      string `json:"error"`
}

// ImportChunkModel mirrors the 'import_chunks' table. One row per (run, label).
type ImportChunkModel struct {
	RunID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Label     string    `gorm:"type:varchar(7);primaryKey"`
	Status    string    `gorm:"type:varchar(20);not null"`
	Attempts  int       `gorm:"not null;default:0"`
	Error     string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ImportChunkModel) TableName() string {
	return "import_chunks"
}

// ImportSkippedEventModel mirrors the 'import_skipped_events' table, the manual review queue.
type ImportSkippedEventModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	RunID        uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkLabel   string    `gorm:"type:varchar(7);not null"`
	EventID      string    `gorm:"type:varchar(1024);not null"`
	Title        string    `gorm:"type:text"`
	StartsAt     time.Time
	Email        string      `gorm:"type:varchar(255)"`
	Reason       string      `gorm:"type:varchar(32);not null;index"`
	CandidateIDs []uuid.UUID `gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (ImportSkippedEventModel) TableName() string {
	return "import_skipped_events"
}

// All lists every model, in dependency order, for migrations and code generation.
func All() []any {
	return []any{
		&ProfileModel{},
		&LessonModel{},
		&ImportRunModel{},
		&ImportChunkModel{},
		&ImportSkippedEventModel{},
	}
}
