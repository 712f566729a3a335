package memory

import (
	"context"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"

	"github.com/google/uuid"
)

type lessonRepository struct {
	store *Store
	tx    *state
}

func (r *lessonRepository) CreateIfAbsent(_ context.Context, lesson *entity.Lesson) (bool, error) {
	created := false
	err := view(r.store, r.tx, func(st *state) error {
		if err := r.store.takeFault(OpLessonCreate); err != nil {
			return err
		}
		if lessonExists(st, lesson.Source, lesson.ExternalEventID) {
			return nil
		}
		if _, ok := st.profiles[lesson.StudentID]; !ok {
			return domainerrors.ErrLessonCreationFailed.WrapMessage("invalid student or teacher reference")
		}
		if _, ok := st.profiles[lesson.TeacherID]; !ok {
			return domainerrors.ErrLessonCreationFailed.WrapMessage("invalid student or teacher reference")
		}

		if lesson.ID == uuid.Nil {
			lesson.ID = uuid.New()
		}
		now := r.store.now()
		lesson.CreatedAt = now
		lesson.UpdatedAt = now
		cl := *lesson
		st.lessons[cl.ID] = &cl
		created = true

		return nil
	})

	return created, err
}

func (r *lessonRepository) ExistsByExternalID(_ context.Context, source, externalEventID string) (bool, error) {
	exists := false
	err := view(r.store, r.tx, func(st *state) error {
		exists = lessonExists(st, source, externalEventID)

		return nil
	})

	return exists, err
}

func lessonExists(st *state, source, externalEventID string) bool {
	for _, l := range st.lessons {
		if l.Source == source && l.ExternalEventID == externalEventID {
			return true
		}
	}

	return false
}
