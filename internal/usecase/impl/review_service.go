package impl

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	deliverycontext "lessonsync/internal/delivery/context"
	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/usecase"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	defaultSuggestionLimit = 5
	suggestionPageSize     = 500
	minSuggestionScore     = 0.4
	emailWeight            = 0.7
)

// reviewService implements the ReviewUsecase interface.
type reviewService struct {
	txManager repository.TransactionManager
	logger    *slog.Logger
}

// NewReviewService is the constructor for reviewService.
func NewReviewService(txManager repository.TransactionManager, logger *slog.Logger) usecase.ReviewUsecase {
	return &reviewService{
		txManager: txManager,
		logger:    logger,
	}
}

func (srv *reviewService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListSkipped returns the review queue of a run.
func (srv *reviewService) ListSkipped(ctx context.Context, runID uuid.UUID, reason entity.SkipReason) ([]entity.SkippedEvent, error) {
	var events []entity.SkippedEvent
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		importRepo := repoFactory.NewImportRunRepository()
		if _, err := importRepo.FindByID(ctx, runID); err != nil {
			if errors.Is(err, repository.ErrImportRunNotFound) {
				return errors.Wrap(domainerrors.ErrImportRunNotFound, "import run not found")
			}

			return errors.Wrap(err, "failed to find import run")
		}

		found, err := importRepo.ListSkippedEvents(ctx, runID, reason)
		if err != nil {
			return errors.Wrap(err, "failed to list skipped events")
		}
		events = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// SuggestMatches scans every profile and ranks them by edit distance on email and name.
func (srv *reviewService) SuggestMatches(ctx context.Context, input *usecase.SuggestMatchesInput) ([]*usecase.MatchSuggestion, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email is required")
	}
	name := strings.ToLower(CleanDisplayName(input.Name))

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	var suggestions []*usecase.MatchSuggestion
	scanned := 0
	for offset := 0; ; offset += suggestionPageSize {
		var page []*entity.Profile
		err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			profiles, err := repoFactory.NewProfileRepository().List(ctx, suggestionPageSize, offset)
			page = profiles

			return err
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to list profiles")
		}

		for _, profile := range page {
			if suggestion := scoreProfile(profile, email, name); suggestion != nil {
				suggestions = append(suggestions, suggestion)
			}
		}
		scanned += len(page)

		if len(page) < suggestionPageSize {
			break
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}

		return suggestions[i].Profile.Email < suggestions[j].Profile.Email
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	srv.log(ctx).Debug("Computed match suggestions",
		slog.String("email", email),
		slog.Int("scanned", scanned),
		slog.Int("suggestions", len(suggestions)),
	)

	return suggestions, nil
}

// scoreProfile returns nil when the profile is not similar enough to be worth showing.
// Placeholder emails carry no signal, so those profiles are scored on name alone.
func scoreProfile(profile *entity.Profile, email, name string) *usecase.MatchSuggestion {
	suggestion := &usecase.MatchSuggestion{Profile: profile, EmailDistance: -1, NameDistance: -1}

	var emailScore, nameScore float64
	hasEmail := !profile.HasPlaceholderEmail()
	hasName := name != "" && profile.FullName != ""

	if hasEmail {
		suggestion.EmailDistance = levenshtein.ComputeDistance(email, entity.NormalizeEmail(profile.Email))
		emailScore = similarity(suggestion.EmailDistance, email, profile.Email)
	}
	if hasName {
		profileName := strings.ToLower(profile.FullName)
		suggestion.NameDistance = levenshtein.ComputeDistance(name, profileName)
		nameScore = similarity(suggestion.NameDistance, name, profileName)
	}

	switch {
	case hasEmail && hasName:
		suggestion.Score = emailWeight*emailScore + (1-emailWeight)*nameScore
	case hasEmail:
		suggestion.Score = emailScore
	case hasName:
		suggestion.Score = nameScore
	default:
		return nil
	}

	if suggestion.Score < minSuggestionScore {
		return nil
	}

	return suggestion
}

func similarity(distance int, a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}

	return 1 - float64(distance)/float64(longest)
}
