package memory

import (
	"context"
	"testing"
	"time"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ExecuteRollsBackOnError(t *testing.T) {
	store := NewStore()
	txManager := NewTransactionManager(store)
	ctx := context.Background()

	err := txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		require.NoError(t, f.NewProfileRepository().Insert(ctx, &entity.Profile{Email: "a@x.com", IsShadow: true}))

		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Empty(t, store.Profiles())

	err = txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.NewProfileRepository().Insert(ctx, &entity.Profile{Email: "a@x.com", IsShadow: true})
	})
	require.NoError(t, err)
	assert.Len(t, store.Profiles(), 1)
}

func TestProfileRepository_UniqueEmail(t *testing.T) {
	store := NewStore()
	repo := NewProfileRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &entity.Profile{Email: "a@x.com"}))

	err := repo.Insert(ctx, &entity.Profile{Email: "a@x.com"})
	assert.True(t, errors.Is(err, domainerrors.ErrProfileAlreadyExists))

	inserted, err := repo.InsertIfAbsent(ctx, &entity.Profile{Email: "a@x.com"})
	require.NoError(t, err)
	assert.False(t, inserted)

	found, err := repo.FindByEmail(ctx, "  A@X.COM ")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestProfileRepository_UpdateIDCascadesToLessons(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	profiles := NewProfileRepository(store)
	lessons := NewLessonRepository(store)

	teacher := &entity.Profile{Email: "teacher@x.com", IsTeacher: true}
	shadow := &entity.Profile{Email: "s@x.com", IsShadow: true, IsStudent: true}
	require.NoError(t, profiles.Insert(ctx, teacher))
	require.NoError(t, profiles.Insert(ctx, shadow))

	created, err := lessons.CreateIfAbsent(ctx, &entity.Lesson{
		StudentID:       shadow.ID,
		TeacherID:       teacher.ID,
		ScheduledAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:          entity.LessonStatusCompleted,
		Source:          entity.LessonSourceCalendar,
		ExternalEventID: "evt-1",
	})
	require.NoError(t, err)
	require.True(t, created)

	newID := uuid.New()
	name := "Real Name"
	require.NoError(t, profiles.UpdateID(ctx, shadow.ID, newID, entity.ProfilePatch{FullName: &name}))

	merged, err := profiles.FindByID(ctx, newID)
	require.NoError(t, err)
	assert.False(t, merged.IsShadow)
	assert.True(t, merged.IsStudent)
	assert.Equal(t, "Real Name", merged.FullName)

	_, err = profiles.FindByID(ctx, shadow.ID)
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	assert.Len(t, store.LessonsOf(newID), 1)

	// A real profile cannot be rewritten again.
	err = profiles.UpdateID(ctx, newID, uuid.New(), entity.ProfilePatch{})
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
}

func TestLessonRepository_RequiresExistingProfiles(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := NewLessonRepository(store).CreateIfAbsent(ctx, &entity.Lesson{
		StudentID:       uuid.New(),
		TeacherID:       uuid.New(),
		Source:          entity.LessonSourceCalendar,
		ExternalEventID: "evt-1",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrLessonCreationFailed))
}

func TestStore_InjectFaultFiresOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := NewProfileRepository(store)

	store.InjectFault(OpProfileInsert, errors.New("connection reset"))

	require.Error(t, repo.Insert(ctx, &entity.Profile{Email: "a@x.com"}))
	require.NoError(t, repo.Insert(ctx, &entity.Profile{Email: "a@x.com"}))
}

func TestStore_InjectFaultAtSkipsEarlierCalls(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := NewProfileRepository(store)

	store.InjectFaultAt(OpProfileFind, 2, errors.New("connection reset"))

	_, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = repo.FindByEmail(ctx, "a@x.com")
	require.Error(t, err)
	_, err = repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
}
