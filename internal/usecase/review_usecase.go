package usecase

import (
	"context"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
)

// ReviewUsecase backs the manual review tools used by operators.
type ReviewUsecase interface {
	// ListSkipped returns the events a run set aside; an empty reason lists all of them.
	ListSkipped(ctx context.Context, runID uuid.UUID, reason entity.SkipReason) ([]entity.SkippedEvent, error)

	// SuggestMatches ranks existing profiles by similarity to email and name. Suggestions are
	// for humans only and are never applied automatically.
	SuggestMatches(ctx context.Context, input *SuggestMatchesInput) ([]*MatchSuggestion, error)
}

// SuggestMatchesInput defines a similarity query.
type SuggestMatchesInput struct {
	Email string `query:"email" validate:"required"`
	Name  string `query:"name"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50"`
}

// MatchSuggestion is a candidate profile with its similarity score in [0, 1].
type MatchSuggestion struct {
	Profile       *entity.Profile
	Score         float64
	EmailDistance int
	NameDistance  int
}
