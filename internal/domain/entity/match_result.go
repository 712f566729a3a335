package entity

import "github.com/google/uuid"

// MatchResult is the outcome of resolving an email against the profile store.
// It is one of Matched, Ambiguous or NotFound; callers are expected to type-switch on it.
type MatchResult interface {
	matchResult()
}

// Matched means exactly one profile owns the email.
type Matched struct {
	ProfileID uuid.UUID
}

// Ambiguous means more than one profile matched; the email needs manual review.
type Ambiguous struct {
	CandidateIDs []uuid.UUID
}

// NotFound means no profile matched.
type NotFound struct{}

func (Matched) matchResult()   {}
func (Ambiguous) matchResult() {}
func (NotFound) matchResult()  {}
