package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "lessonsync/internal/delivery/context"
	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/domain/service"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// mergeService implements the AccountUsecase interface. It is the only code path that turns a
// shadow profile into a real one.
type mergeService struct {
	txManager repository.TransactionManager
	locker    service.KeyedLocker
	publisher service.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewMergeService is the constructor for mergeService.
func NewMergeService(
	txManager repository.TransactionManager,
	locker service.KeyedLocker,
	publisher service.EventPublisher,
	logger *slog.Logger,
) usecase.AccountUsecase {
	return &mergeService{
		txManager: txManager,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (srv *mergeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// OnAccountCreated migrates a shadow profile onto the new account in one transaction:
// the primary key is rewritten in place, is_shadow is cleared, the signup name wins and
// role flags stay as staff set them. Any failure rolls the whole merge back.
func (srv *mergeService) OnAccountCreated(ctx context.Context, email string, metadata entity.AccountMetadata) (*usecase.MergeResult, error) {
	key := entity.NormalizeEmail(email)
	if key == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email is required")
	}
	if metadata.UserID == uuid.Nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "user id is required")
	}

	srv.log(ctx).Info("Account provisioned, checking for shadow profile",
		slog.String("email", key),
		slog.Any("user_id", metadata.UserID),
	)

	unlock, err := srv.locker.Lock(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock email")
	}
	defer unlock()

	var result *usecase.MergeResult
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		merged, err := srv.mergeLocked(ctx, repoFactory.NewProfileRepository(), key, metadata)
		result = merged

		return err
	})
	if err != nil {
		srv.log(ctx).Error("Shadow profile merge failed",
			slog.String("email", key),
			slog.Any("user_id", metadata.UserID),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to merge shadow profile")
	}

	switch result.Outcome {
	case entity.MergeOutcomeMerged:
		srv.log(ctx).Info("Shadow profile merged",
			slog.String("email", key),
			slog.Any("shadow_id", result.ShadowID),
			slog.Any("profile_id", result.Profile.ID),
		)
		srv.publishMerged(ctx, key, result)
	case entity.MergeOutcomeAlreadyReal:
		if result.Profile.ID != metadata.UserID {
			srv.log(ctx).Warn("Email already belongs to a different real profile",
				slog.String("email", key),
				slog.Any("profile_id", result.Profile.ID),
				slog.Any("user_id", metadata.UserID),
			)
		}
	default:
		srv.log(ctx).Debug("No shadow profile for email", slog.String("email", key))
	}

	return result, nil
}

// RegisterProfile creates a real profile through the same locked write path as merges.
func (srv *mergeService) RegisterProfile(ctx context.Context, input *usecase.RegisterProfileInput) (*usecase.MergeResult, error) {
	key := entity.NormalizeEmail(input.Email)
	if key == "" || input.UserID == uuid.Nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email and user id are required")
	}
	if entity.IsPlaceholderEmail(key) {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "placeholder emails cannot be registered")
	}

	unlock, err := srv.locker.Lock(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock email")
	}
	defer unlock()

	metadata := entity.AccountMetadata{UserID: input.UserID, FullName: input.FullName}

	var result *usecase.MergeResult
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		profileRepo := repoFactory.NewProfileRepository()

		merged, err := srv.mergeLocked(ctx, profileRepo, key, metadata)
		if err != nil {
			return err
		}

		switch merged.Outcome {
		case entity.MergeOutcomeAlreadyReal:
			return domainerrors.ErrProfileAlreadyExists.WrapMessage("email already has a real profile")
		case entity.MergeOutcomeMerged:
			result = merged

			return nil
		}

		profile := &entity.Profile{
			ID:        input.UserID,
			Email:     key,
			FullName:  strings.TrimSpace(input.FullName),
			IsStudent: input.IsStudent,
			IsTeacher: input.IsTeacher,
			IsAdmin:   input.IsAdmin,
			IsActive:  true,
		}
		if err := profileRepo.Insert(ctx, profile); err != nil {
			return errors.Wrap(err, "failed to insert profile")
		}
		result = &usecase.MergeResult{Outcome: entity.MergeOutcomeNoShadow, Profile: profile}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to register profile")
	}

	if result.Outcome == entity.MergeOutcomeMerged {
		srv.log(ctx).Info("Registered profile absorbed a shadow profile",
			slog.String("email", key),
			slog.Any("shadow_id", result.ShadowID),
		)
		srv.publishMerged(ctx, key, result)
	} else {
		srv.log(ctx).Info("Profile registered", slog.String("email", key), slog.Any("profile_id", result.Profile.ID))
	}

	return result, nil
}

// mergeLocked runs inside a transaction while the email lock is held.
func (srv *mergeService) mergeLocked(ctx context.Context, profileRepo repository.ProfileRepository, key string, metadata entity.AccountMetadata) (*usecase.MergeResult, error) {
	// 1. Lock the rows for the email
	candidates, err := profileRepo.LockByEmail(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock profiles by email")
	}

	// 2. Decide; duplicates are a pre-existing defect and are never tie-broken
	switch len(candidates) {
	case 0:
		return &usecase.MergeResult{Outcome: entity.MergeOutcomeNoShadow}, nil
	case 1:
	default:
		return nil, domainerrors.ErrAmbiguousIdentity.WithDetails(candidateDetails(candidates))
	}

	shadow := candidates[0]
	if !shadow.IsShadow {
		return &usecase.MergeResult{Outcome: entity.MergeOutcomeAlreadyReal, Profile: shadow}, nil
	}

	// 3. Rewrite the id in place; dependents follow through the cascade
	patch := entity.ProfilePatch{IsShadow: false}
	if name := strings.TrimSpace(metadata.FullName); name != "" {
		patch.FullName = &name
	}
	if err := profileRepo.UpdateID(ctx, shadow.ID, metadata.UserID, patch); err != nil {
		return nil, errors.Wrap(err, "failed to rewrite shadow profile id")
	}

	// 4. Verify the post-condition before committing
	after, err := profileRepo.FindByEmail(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify merge")
	}
	if len(after) != 1 {
		return nil, domainerrors.ErrMergeFailed.WithDetails("expected exactly one profile after merge")
	}
	merged := after[0]
	if merged.ID != metadata.UserID || merged.IsShadow || !sameRoles(shadow, merged) {
		return nil, domainerrors.ErrMergeFailed.WithDetails("merged profile does not match the expected state")
	}

	return &usecase.MergeResult{
		Outcome:  entity.MergeOutcomeMerged,
		Profile:  merged,
		ShadowID: shadow.ID,
	}, nil
}

func (srv *mergeService) publishMerged(ctx context.Context, key string, result *usecase.MergeResult) {
	event := &service.ProfileMergedEvent{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Email:     key,
		ShadowID:  result.ShadowID.String(),
		ProfileID: result.Profile.ID.String(),
		MergedAt:  srv.now().UTC(),
		IsStudent: result.Profile.IsStudent,
		IsTeacher: result.Profile.IsTeacher,
		IsAdmin:   result.Profile.IsAdmin,
		FullName:  result.Profile.FullName,
	}

	if err := srv.publisher.PublishProfileMerged(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish profile merged event", slog.Any("error", err), slog.String("email", key))
	}
}

func sameRoles(a, b *entity.Profile) bool {
	return a.IsStudent == b.IsStudent && a.IsTeacher == b.IsTeacher && a.IsAdmin == b.IsAdmin
}
