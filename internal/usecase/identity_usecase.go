// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
)

// IdentityUsecase resolves attendee emails to profiles and creates shadow profiles.
type IdentityUsecase interface {
	// Resolve maps an email to Matched, Ambiguous or NotFound. It never guesses.
	Resolve(ctx context.Context, email string) (entity.MatchResult, error)

	// EnsureShadowProfile returns the profile for the email, creating a shadow one if none exists.
	EnsureShadowProfile(ctx context.Context, input *ShadowProfileInput) (*ShadowProfileOutput, error)

	// CreateShadowProfile is the staff path: explicit role flags and an optional email.
	CreateShadowProfile(ctx context.Context, input *CreateShadowProfileInput) (*entity.Profile, error)
}

// --- Input DTOs ---

// ShadowProfileInput is what the importer knows about an unresolved attendee.
type ShadowProfileInput struct {
	Email     string
	FirstName string
	LastName  string
}

// CreateShadowProfileInput defines the data staff provide when creating a shadow profile by hand.
type CreateShadowProfileInput struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FullName  string `json:"full_name" validate:"required,max=255"`
	IsStudent bool   `json:"is_student"`
	IsTeacher bool   `json:"is_teacher"`
	IsAdmin   bool   `json:"is_admin"`
}

// --- Output DTOs ---

// ShadowProfileOutput reports the resolved profile id and whether it was created by this call.
type ShadowProfileOutput struct {
	ProfileID uuid.UUID
	Created   bool
}
