package impl

import (
	"context"
	"testing"
	"time"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviewService_SuggestMatches(t *testing.T) {
	fx := createCoreFixtures(t)
	review := NewReviewService(fx.txManager, newTestLogger())

	closest := &entity.Profile{ID: uuid.New(), Email: "jane.doe@example.com", FullName: "Jane Doe", IsActive: true}
	far := &entity.Profile{ID: uuid.New(), Email: "zed@elsewhere.org", FullName: "Zed Zulu", IsActive: true}
	placeholderID := uuid.New()
	placeholder := &entity.Profile{ID: placeholderID, Email: entity.PlaceholderEmail(placeholderID), FullName: "Jane Do", IsShadow: true}
	fx.store.Seed(closest, far, placeholder)

	suggestions, err := review.SuggestMatches(context.Background(), &usecase.SuggestMatchesInput{
		Email: "Jane.Doe@Example.co",
		Name:  "$$$ Jane Doe",
	})
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	assert.Equal(t, closest.ID, suggestions[0].Profile.ID)
	assert.Equal(t, 1, suggestions[0].EmailDistance)
	assert.Equal(t, 0, suggestions[0].NameDistance)
	assert.Greater(t, suggestions[0].Score, suggestions[1].Score)

	assert.Equal(t, placeholder.ID, suggestions[1].Profile.ID)
	assert.Equal(t, -1, suggestions[1].EmailDistance)
	assert.Equal(t, 1, suggestions[1].NameDistance)

	// Suggestions never change the store.
	assert.Len(t, fx.store.Profiles(), 3)
}

func TestReviewService_SuggestMatchesLimit(t *testing.T) {
	fx := createCoreFixtures(t)
	review := NewReviewService(fx.txManager, newTestLogger())

	for _, email := range []string{"sam1@example.com", "sam2@example.com", "sam3@example.com"} {
		fx.store.Seed(&entity.Profile{ID: uuid.New(), Email: email, IsActive: true})
	}

	suggestions, err := review.SuggestMatches(context.Background(), &usecase.SuggestMatchesInput{Email: "sam@example.com", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestReviewService_SuggestMatchesRequiresEmail(t *testing.T) {
	fx := createCoreFixtures(t)
	review := NewReviewService(fx.txManager, newTestLogger())

	_, err := review.SuggestMatches(context.Background(), &usecase.SuggestMatchesInput{Name: "Jane"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestReviewService_ListSkipped(t *testing.T) {
	fx := createImportFixtures(t, 1)
	review := NewReviewService(fx.txManager, newTestLogger())
	ctx := context.Background()

	personal := lessonEvent("personal", at(2024, time.January, 5, 9), "friend@example.com", "Friend")
	personal.Description = nil
	fx.store.Seed(
		&entity.Profile{ID: uuid.New(), Email: "dup@example.com", IsShadow: true},
		&entity.Profile{ID: uuid.New(), Email: "DUP@example.com", IsShadow: true},
	)
	fx.calendar.EXPECT().
		ListEvents(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(serveEvents([]entity.CalendarEvent{
			personal,
			lessonEvent("dup", at(2024, time.January, 6, 9), "dup@example.com", "Dup"),
		}))

	run, err := fx.importer.RunImport(ctx, &usecase.StartImportInput{
		TeacherID: fx.teacher.ID,
		Start:     day(2024, time.January, 1),
		End:       day(2024, time.January, 31),
	})
	require.NoError(t, err)

	all, err := review.ListSkipped(ctx, run.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ambiguous, err := review.ListSkipped(ctx, run.ID, entity.SkipReasonAmbiguous)
	require.NoError(t, err)
	require.Len(t, ambiguous, 1)
	assert.Equal(t, "dup", ambiguous[0].EventID)
	assert.Equal(t, "dup@example.com", ambiguous[0].Email)
	assert.Len(t, ambiguous[0].CandidateIDs, 2)

	_, err = review.ListSkipped(ctx, uuid.New(), "")
	assert.True(t, errors.Is(err, domainerrors.ErrImportRunNotFound))
}
