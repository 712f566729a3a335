package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "lessonsync/internal/delivery/context"
	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/domain/service"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// identityService implements the IdentityUsecase interface.
type identityService struct {
	txManager repository.TransactionManager
	locker    service.KeyedLocker
	logger    *slog.Logger
}

// NewIdentityService is the constructor for identityService.
func NewIdentityService(
	txManager repository.TransactionManager,
	locker service.KeyedLocker,
	logger *slog.Logger,
) usecase.IdentityUsecase {
	return &identityService{
		txManager: txManager,
		locker:    locker,
		logger:    logger,
	}
}

func (srv *identityService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Resolve performs a case-insensitive exact lookup.
func (srv *identityService) Resolve(ctx context.Context, email string) (entity.MatchResult, error) {
	key := entity.NormalizeEmail(email)
	if key == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email is required")
	}

	var result entity.MatchResult
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		profiles, err := repoFactory.NewProfileRepository().FindByEmail(ctx, key)
		if err != nil {
			return errors.Wrap(err, "failed to find profiles by email")
		}
		result = matchProfiles(profiles)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if ambiguous, ok := result.(entity.Ambiguous); ok {
		srv.log(ctx).Warn("Email matches several profiles",
			slog.String("email", key),
			slog.Int("candidates", len(ambiguous.CandidateIDs)),
		)
	}

	return result, nil
}

// EnsureShadowProfile is idempotent per email: concurrent callers for the same address are
// serialized by the keyed lock and the second one sees the first one's profile.
func (srv *identityService) EnsureShadowProfile(ctx context.Context, input *usecase.ShadowProfileInput) (*usecase.ShadowProfileOutput, error) {
	key := entity.NormalizeEmail(input.Email)
	if key == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email is required")
	}

	unlock, err := srv.locker.Lock(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock email")
	}
	defer unlock()

	var output *usecase.ShadowProfileOutput
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		profileRepo := repoFactory.NewProfileRepository()

		existing, err := profileRepo.FindByEmail(ctx, key)
		if err != nil {
			return errors.Wrap(err, "failed to find profiles by email")
		}
		if found, err := existingProfileID(existing); err != nil || found != uuid.Nil {
			output = &usecase.ShadowProfileOutput{ProfileID: found}

			return err
		}

		profile := newShadowProfile(key, shadowFullName(input))
		inserted, err := profileRepo.InsertIfAbsent(ctx, profile)
		if err != nil {
			return errors.Wrap(err, "failed to insert shadow profile")
		}
		if inserted {
			output = &usecase.ShadowProfileOutput{ProfileID: profile.ID, Created: true}

			return nil
		}

		// Another writer that does not take our lock got there first.
		existing, err = profileRepo.FindByEmail(ctx, key)
		if err != nil {
			return errors.Wrap(err, "failed to re-read profiles by email")
		}
		found, err := existingProfileID(existing)
		if err != nil {
			return err
		}
		if found == uuid.Nil {
			return domainerrors.ErrShadowCreationFailed.WrapMessage("profile vanished after conflicting insert")
		}
		output = &usecase.ShadowProfileOutput{ProfileID: found}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if output.Created {
		srv.log(ctx).Info("Shadow profile created", slog.String("email", key), slog.Any("profile_id", output.ProfileID))
	}

	return output, nil
}

// CreateShadowProfile creates a shadow profile with staff-chosen roles. Without an email the
// profile gets a placeholder address derived from its id.
func (srv *identityService) CreateShadowProfile(ctx context.Context, input *usecase.CreateShadowProfileInput) (*entity.Profile, error) {
	fullName := strings.TrimSpace(input.FullName)
	key := entity.NormalizeEmail(input.Email)

	profile := &entity.Profile{
		ID:        uuid.New(),
		FullName:  fullName,
		IsShadow:  true,
		IsStudent: input.IsStudent,
		IsTeacher: input.IsTeacher,
		IsAdmin:   input.IsAdmin,
		IsActive:  true,
	}

	if key == "" {
		profile.Email = entity.PlaceholderEmail(profile.ID)

		err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			return repoFactory.NewProfileRepository().Insert(ctx, profile)
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create shadow profile")
		}

		srv.log(ctx).Info("Shadow profile created with placeholder email", slog.Any("profile_id", profile.ID))

		return profile, nil
	}

	if entity.IsPlaceholderEmail(key) {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "placeholder emails are assigned automatically")
	}
	profile.Email = key

	unlock, err := srv.locker.Lock(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock email")
	}
	defer unlock()

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		profileRepo := repoFactory.NewProfileRepository()

		existing, err := profileRepo.FindByEmail(ctx, key)
		if err != nil {
			return errors.Wrap(err, "failed to find profiles by email")
		}
		switch len(existing) {
		case 0:
		case 1:
			return domainerrors.ErrProfileAlreadyExists.WrapMessage("email already has a profile")
		default:
			return domainerrors.ErrAmbiguousIdentity.WithDetails(candidateDetails(existing))
		}

		return profileRepo.Insert(ctx, profile)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create shadow profile")
	}

	srv.log(ctx).Info("Shadow profile created by staff",
		slog.String("email", key),
		slog.Any("profile_id", profile.ID),
		slog.Any("roles", profile.Roles().ToStrings()),
	)

	return profile, nil
}

// --- helpers shared with the merge and import services ---

func matchProfiles(profiles []*entity.Profile) entity.MatchResult {
	switch len(profiles) {
	case 0:
		return entity.NotFound{}
	case 1:
		return entity.Matched{ProfileID: profiles[0].ID}
	default:
		ids := make([]uuid.UUID, 0, len(profiles))
		for _, p := range profiles {
			ids = append(ids, p.ID)
		}

		return entity.Ambiguous{CandidateIDs: ids}
	}
}

// existingProfileID returns the single matching id, uuid.Nil for no match, or
// ErrAmbiguousIdentity when the store already holds duplicates.
func existingProfileID(profiles []*entity.Profile) (uuid.UUID, error) {
	switch match := matchProfiles(profiles).(type) {
	case entity.Matched:
		return match.ProfileID, nil
	case entity.Ambiguous:
		return uuid.Nil, domainerrors.ErrAmbiguousIdentity.WithDetails(candidateDetails(profiles))
	default:
		return uuid.Nil, nil
	}
}

func candidateDetails(profiles []*entity.Profile) string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID.String())
	}

	return "candidates: " + strings.Join(ids, ",")
}

func newShadowProfile(email, fullName string) *entity.Profile {
	return &entity.Profile{
		ID:       uuid.New(),
		Email:    email,
		FullName: fullName,
		IsShadow: true,
		IsActive: true,
	}
}

func shadowFullName(input *usecase.ShadowProfileInput) string {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" && last == "" {
		first = entity.EmailLocalPart(input.Email)
	}

	return strings.TrimSpace(first + " " + last)
}
