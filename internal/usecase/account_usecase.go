package usecase

import (
	"context"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
)

// AccountUsecase is the integration point with account provisioning.
type AccountUsecase interface {
	// OnAccountCreated merges a shadow profile with the same email into the new account.
	OnAccountCreated(ctx context.Context, email string, metadata entity.AccountMetadata) (*MergeResult, error)

	// RegisterProfile creates the profile of an administrator-created account. An existing
	// shadow profile for the email is merged instead of creating a second row.
	RegisterProfile(ctx context.Context, input *RegisterProfileInput) (*MergeResult, error)
}

// --- Input DTOs ---

// RegisterProfileInput defines the data required to register a real profile.
type RegisterProfileInput struct {
	UserID    uuid.UUID `json:"user_id" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	FullName  string    `json:"full_name" validate:"max=255"`
	IsStudent bool      `json:"is_student"`
	IsTeacher bool      `json:"is_teacher"`
	IsAdmin   bool      `json:"is_admin"`
}

// --- Output DTOs ---

// MergeResult describes what happened to the profile of a provisioned account.
type MergeResult struct {
	Outcome  entity.MergeOutcome
	Profile  *entity.Profile // The profile now associated with the email, if any.
	ShadowID uuid.UUID       // The id the shadow profile had before the merge.
}
