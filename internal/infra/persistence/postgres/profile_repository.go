package postgres

import (
	"context"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// profileRepository implements the repository.ProfileRepository interface.
// Identity reads always go to the primary: a replica lagging behind a just-created
// shadow profile would make the resolver report NotFound and create a duplicate.
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository is the constructor for profileRepository.
func NewProfileRepository(db *gorm.DB) repository.ProfileRepository {
	return &profileRepository{
		db: db,
	}
}

func (repo *profileRepository) primary(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).Clauses(dbresolver.Write)
}

// FindByID retrieves a profile by its unique ID.
func (repo *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var profileM model.ProfileModel

	if err := repo.primary(ctx).Where("id = ?", id).First(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find profile by id")
	}

	return toProfileDomain(&profileM), nil
}

// FindByEmail returns every profile matching email case-insensitively, oldest first.
func (repo *profileRepository) FindByEmail(ctx context.Context, email string) ([]*entity.Profile, error) {
	var profileMs []*model.ProfileModel

	if err := repo.primary(ctx).
		Where("lower(email) = ?", entity.NormalizeEmail(email)).
		Order("created_at ASC, id ASC").
		Find(&profileMs).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find profiles by email")
	}

	return toProfileDomains(profileMs), nil
}

// LockByEmail is FindByEmail with SELECT ... FOR UPDATE.
func (repo *profileRepository) LockByEmail(ctx context.Context, email string) ([]*entity.Profile, error) {
	var profileMs []*model.ProfileModel

	if err := repo.primary(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("lower(email) = ?", entity.NormalizeEmail(email)).
		Order("created_at ASC, id ASC").
		Find(&profileMs).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to lock profiles by email")
	}

	return toProfileDomains(profileMs), nil
}

// List returns a page of profiles ordered by email.
func (repo *profileRepository) List(ctx context.Context, limit, offset int) ([]*entity.Profile, error) {
	var profileMs []*model.ProfileModel

	if err := repo.db.WithContext(ctx).
		Order("email ASC").
		Limit(limit).
		Offset(offset).
		Find(&profileMs).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list profiles")
	}

	return toProfileDomains(profileMs), nil
}

// Insert persists a new profile.
func (repo *profileRepository) Insert(ctx context.Context, profile *entity.Profile) error {
	profileM := fromProfileDomain(profile)

	if err := repo.primary(ctx).Create(profileM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrProfileAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrProfileCreationFailed.WrapMessage("missing required profile information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to insert profile")
	}

	profile.ID = profileM.ID
	profile.CreatedAt = profileM.CreatedAt
	profile.UpdatedAt = profileM.UpdatedAt

	return nil
}

// InsertIfAbsent inserts with ON CONFLICT (email) DO NOTHING.
func (repo *profileRepository) InsertIfAbsent(ctx context.Context, profile *entity.Profile) (bool, error) {
	profileM := fromProfileDomain(profile)

	result := repo.primary(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(profileM)
	if result.Error != nil {
		if isNotNullConstraintViolation(result.Error) || isCheckConstraintViolation(result.Error) {
			return false, domainerrors.ErrProfileCreationFailed.WrapMessage("missing required profile information")
		}

		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to upsert profile")
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	profile.ID = profileM.ID
	profile.CreatedAt = profileM.CreatedAt
	profile.UpdatedAt = profileM.UpdatedAt

	return true, nil
}

// UpdateID rewrites the primary key of a shadow profile in place. The lessons foreign keys are
// declared ON UPDATE CASCADE, so dependents follow the new id within the same statement.
func (repo *profileRepository) UpdateID(ctx context.Context, oldID, newID uuid.UUID, patch entity.ProfilePatch) error {
	updates := map[string]any{
		"id":         newID,
		"is_shadow":  patch.IsShadow,
		"updated_at": gorm.Expr("now()"),
	}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}

	result := repo.primary(ctx).
		Model(&model.ProfileModel{}).
		Where("id = ? AND is_shadow = ?", oldID, true).
		UpdateColumns(updates)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return domainerrors.ErrMergeConflict.WrapMessage("account id already belongs to another profile")
		}
		if isForeignKeyConstraintViolation(result.Error) {
			return domainerrors.ErrMergeFailed.WrapMessage("dependent rows could not follow the id change")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to rewrite profile id")
	}

	if result.RowsAffected == 0 {
		return repository.ErrProfileNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toProfileDomain(data *model.ProfileModel) *entity.Profile {
	if data == nil {
		return nil
	}

	return &entity.Profile{
		ID:        data.ID,
		Email:     data.Email,
		FullName:  data.FullName,
		IsShadow:  data.IsShadow,
		IsStudent: data.IsStudent,
		IsTeacher: data.IsTeacher,
		IsAdmin:   data.IsAdmin,
		IsActive:  data.IsActive,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func toProfileDomains(data []*model.ProfileModel) []*entity.Profile {
	profiles := make([]*entity.Profile, 0, len(data))
	for _, profileM := range data {
		profiles = append(profiles, toProfileDomain(profileM))
	}

	return profiles
}

func fromProfileDomain(data *entity.Profile) *model.ProfileModel {
	if data == nil {
		return nil
	}

	id := data.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &model.ProfileModel{
		ID:        id,
		Email:     data.Email,
		FullName:  data.FullName,
		IsShadow:  data.IsShadow,
		IsStudent: data.IsStudent,
		IsTeacher: data.IsTeacher,
		IsAdmin:   data.IsAdmin,
		IsActive:  data.IsActive,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
