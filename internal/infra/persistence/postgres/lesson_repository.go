package postgres

import (
	"context"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lessonRepository implements the repository.LessonRepository interface.
type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository is the constructor for lessonRepository.
func NewLessonRepository(db *gorm.DB) repository.LessonRepository {
	return &lessonRepository{
		db: db,
	}
}

// CreateIfAbsent inserts with ON CONFLICT (source, external_event_id) DO NOTHING.
func (repo *lessonRepository) CreateIfAbsent(ctx context.Context, lesson *entity.Lesson) (bool, error) {
	lessonM := fromLessonDomain(lesson)

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "external_event_id"}},
			DoNothing: true,
		}).
		Create(lessonM)
	if result.Error != nil {
		if isForeignKeyConstraintViolation(result.Error) {
			return false, domainerrors.ErrLessonCreationFailed.WrapMessage("invalid student or teacher reference")
		}
		if isNotNullConstraintViolation(result.Error) {
			return false, domainerrors.ErrLessonCreationFailed.WrapMessage("missing required lesson information")
		}

		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to create lesson")
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	lesson.ID = lessonM.ID
	lesson.CreatedAt = lessonM.CreatedAt
	lesson.UpdatedAt = lessonM.UpdatedAt

	return true, nil
}

// ExistsByExternalID reports whether the event was already imported.
func (repo *lessonRepository) ExistsByExternalID(ctx context.Context, source, externalEventID string) (bool, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.LessonModel{}).
		Where("source = ? AND external_event_id = ?", source, externalEventID).
		Count(&count).Error; err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "failed to check lesson existence")
	}

	return count > 0, nil
}

func fromLessonDomain(data *entity.Lesson) *model.LessonModel {
	if data == nil {
		return nil
	}

	id := data.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &model.LessonModel{
		ID:              id,
		StudentID:       data.StudentID,
		TeacherID:       data.TeacherID,
		Title:           data.Title,
		ScheduledAt:     data.ScheduledAt,
		Status:          string(data.Status),
		Source:          data.Source,
		ExternalEventID: data.ExternalEventID,
	}
}
