package impl

import (
	"context"
	"sync"
	"testing"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/infra/persistence/memory"
	mockSvc "lessonsync/internal/mocks/service"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_ResolveAfterShadowCreation(t *testing.T) {
	fx := createCoreFixtures(t)
	ctx := context.Background()

	match, err := fx.identity.Resolve(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.NotFound{}, match)

	output, err := fx.identity.EnsureShadowProfile(ctx, &usecase.ShadowProfileInput{
		Email:     "new@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	assert.True(t, output.Created)

	match, err = fx.identity.Resolve(ctx, "  NEW@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, entity.Matched{ProfileID: output.ProfileID}, match)

	profiles := findProfileByEmail(fx.store, "new@example.com")
	require.Len(t, profiles, 1)
	assert.True(t, profiles[0].IsShadow)
	assert.Equal(t, "Jane Doe", profiles[0].FullName)
	assert.Equal(t, "new@example.com", profiles[0].Email)
}

func TestIdentityService_ResolveAmbiguous(t *testing.T) {
	fx := createCoreFixtures(t)
	first := &entity.Profile{ID: uuid.New(), Email: "dup@example.com", IsShadow: true}
	second := &entity.Profile{ID: uuid.New(), Email: "DUP@example.com", IsShadow: true}
	fx.store.Seed(first, second)

	match, err := fx.identity.Resolve(context.Background(), "dup@example.com")
	require.NoError(t, err)

	ambiguous, ok := match.(entity.Ambiguous)
	require.True(t, ok, "expected Ambiguous, got %T", match)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ambiguous.CandidateIDs)
}

func TestIdentityService_ResolveRequiresEmail(t *testing.T) {
	fx := createCoreFixtures(t)

	_, err := fx.identity.Resolve(context.Background(), "   ")
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestIdentityService_EnsureShadowProfileIsIdempotent(t *testing.T) {
	fx := createCoreFixtures(t)
	ctx := context.Background()
	input := &usecase.ShadowProfileInput{Email: "kim@example.com"}

	first, err := fx.identity.EnsureShadowProfile(ctx, input)
	require.NoError(t, err)
	second, err := fx.identity.EnsureShadowProfile(ctx, input)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.ProfileID, second.ProfileID)

	profiles := findProfileByEmail(fx.store, "kim@example.com")
	require.Len(t, profiles, 1)
	assert.Equal(t, "kim", profiles[0].FullName)
}

func TestIdentityService_EnsureShadowProfileConcurrent(t *testing.T) {
	fx := createCoreFixtures(t)
	ctx := context.Background()

	const callers = 16
	outputs := make([]*usecase.ShadowProfileOutput, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outputs[i], errs[i] = fx.identity.EnsureShadowProfile(ctx, &usecase.ShadowProfileInput{Email: "race@example.com"})
		}()
	}
	wg.Wait()

	created := 0
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, outputs[0].ProfileID, outputs[i].ProfileID)
		if outputs[i].Created {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Len(t, findProfileByEmail(fx.store, "race@example.com"), 1)
}

func TestIdentityService_EnsureShadowProfileRejectsDuplicates(t *testing.T) {
	fx := createCoreFixtures(t)
	fx.store.Seed(
		&entity.Profile{Email: "dup@example.com", IsShadow: true},
		&entity.Profile{Email: "dup@example.com", IsShadow: true},
	)

	_, err := fx.identity.EnsureShadowProfile(context.Background(), &usecase.ShadowProfileInput{Email: "dup@example.com"})
	assert.True(t, errors.Is(err, domainerrors.ErrAmbiguousIdentity))
	assert.Len(t, fx.store.Profiles(), 2)
}

func TestIdentityService_EnsureShadowProfileRollsBack(t *testing.T) {
	fx := createCoreFixtures(t)
	fx.store.InjectFault(memory.OpProfileInsert, domainerrors.NewDatabaseExecuteError(errors.New("connection reset"), "insert"))

	_, err := fx.identity.EnsureShadowProfile(context.Background(), &usecase.ShadowProfileInput{Email: "x@example.com"})
	require.Error(t, err)
	assert.True(t, domainerrors.IsTransient(err))
	assert.Empty(t, fx.store.Profiles())
}

func TestIdentityService_EnsureShadowProfileLockUnavailable(t *testing.T) {
	store := memory.NewStore()
	locker := mockSvc.NewMockKeyedLocker(t)
	locker.EXPECT().
		Lock(mock.Anything, "x@example.com").
		Return(nil, domainerrors.ErrLockUnavailable)

	identity := NewIdentityService(memory.NewTransactionManager(store), locker, newTestLogger())

	_, err := identity.EnsureShadowProfile(context.Background(), &usecase.ShadowProfileInput{Email: "X@example.com"})
	assert.True(t, errors.Is(err, domainerrors.ErrLockUnavailable))
	assert.Empty(t, store.Profiles())
}

func TestIdentityService_CreateShadowProfile(t *testing.T) {
	fx := createCoreFixtures(t)
	ctx := context.Background()

	t.Run("with email", func(t *testing.T) {
		profile, err := fx.identity.CreateShadowProfile(ctx, &usecase.CreateShadowProfileInput{
			Email:     "Staff.Added@example.com",
			FullName:  " Lee Park ",
			IsStudent: true,
		})
		require.NoError(t, err)

		assert.True(t, profile.IsShadow)
		assert.True(t, profile.IsStudent)
		assert.False(t, profile.IsTeacher)
		assert.Equal(t, "staff.added@example.com", profile.Email)
		assert.Equal(t, "Lee Park", profile.FullName)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := fx.identity.CreateShadowProfile(ctx, &usecase.CreateShadowProfileInput{
			Email:    "staff.added@example.com",
			FullName: "Someone Else",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrProfileAlreadyExists))
	})

	t.Run("without email", func(t *testing.T) {
		profile, err := fx.identity.CreateShadowProfile(ctx, &usecase.CreateShadowProfileInput{
			FullName:  "Walk In",
			IsTeacher: true,
		})
		require.NoError(t, err)

		assert.True(t, profile.HasPlaceholderEmail())
		assert.Equal(t, entity.PlaceholderEmail(profile.ID), profile.Email)
		assert.True(t, profile.IsTeacher)
	})

	t.Run("placeholder email is rejected", func(t *testing.T) {
		_, err := fx.identity.CreateShadowProfile(ctx, &usecase.CreateShadowProfileInput{
			Email:    entity.PlaceholderEmail(uuid.New()),
			FullName: "Fake",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
	})
}
