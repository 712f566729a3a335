package handler

import (
	"time"

	"lessonsync/internal/domain/entity"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
)

// dateLayout is the format of the calendar days accepted by the import endpoints.
const dateLayout = time.DateOnly

// ProfileResponse is the JSON view of a profile.
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsShadow  bool      `json:"is_shadow"`
	IsStudent bool      `json:"is_student"`
	IsTeacher bool      `json:"is_teacher"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newProfileResponse(p *entity.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}

	return &ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		IsShadow:  p.IsShadow,
		IsStudent: p.IsStudent,
		IsTeacher: p.IsTeacher,
		IsAdmin:   p.IsAdmin,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// MergeResultResponse is the JSON view of a provisioning outcome.
type MergeResultResponse struct {
	Outcome  entity.MergeOutcome `json:"outcome"`
	ShadowID *uuid.UUID          `json:"shadow_id,omitempty"`
	Profile  *ProfileResponse    `json:"profile,omitempty"`
}

func newMergeResultResponse(r *usecase.MergeResult) *MergeResultResponse {
	resp := &MergeResultResponse{
		Outcome: r.Outcome,
		Profile: newProfileResponse(r.Profile),
	}
	if r.ShadowID != uuid.Nil {
		shadowID := r.ShadowID
		resp.ShadowID = &shadowID
	}

	return resp
}

// Resolution outcomes rendered by the resolve endpoint.
const (
	outcomeMatched   = "MATCHED"
	outcomeAmbiguous = "AMBIGUOUS"
	outcomeNotFound  = "NOT_FOUND"
)

// MatchResultResponse is the JSON view of an identity resolution.
type MatchResultResponse struct {
	Email        string      `json:"email"`
	Outcome      string      `json:"outcome"`
	ProfileID    *uuid.UUID  `json:"profile_id,omitempty"`
	CandidateIDs []uuid.UUID `json:"candidate_ids,omitempty"`
}

func newMatchResultResponse(email string, result entity.MatchResult) *MatchResultResponse {
	resp := &MatchResultResponse{Email: email, Outcome: outcomeNotFound}

	switch r := result.(type) {
	case entity.Matched:
		profileID := r.ProfileID
		resp.Outcome = outcomeMatched
		resp.ProfileID = &profileID
	case entity.Ambiguous:
		resp.Outcome = outcomeAmbiguous
		resp.CandidateIDs = r.CandidateIDs
	}

	return resp
}

// SkippedEventResponse is the JSON view of an event set aside by an import.
type SkippedEventResponse struct {
	ChunkLabel   string            `json:"chunk"`
	EventID      string            `json:"event_id"`
	Title        string            `json:"title,omitempty"`
	StartsAt     time.Time         `json:"starts_at"`
	Email        string            `json:"email,omitempty"`
	Reason       entity.SkipReason `json:"reason"`
	CandidateIDs []uuid.UUID       `json:"candidate_ids,omitempty"`
}

func newSkippedEventResponses(events []entity.SkippedEvent) []SkippedEventResponse {
	out := make([]SkippedEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, SkippedEventResponse{
			ChunkLabel:   e.ChunkLabel,
			EventID:      e.EventID,
			Title:        e.Title,
			StartsAt:     e.StartsAt,
			Email:        e.Email,
			Reason:       e.Reason,
			CandidateIDs: e.CandidateIDs,
		})
	}

	return out
}

// EventFailureResponse is the JSON view of an event that hit an invariant violation.
type EventFailureResponse struct {
	ChunkLabel string `json:"chunk"`
	EventID    string `json:"event_id"`
	Email      string `json:"email,omitempty"`
	Error      string `json:"error"`
}

// ChunkFailureResponse is the JSON view of a chunk that exhausted its retries.
type ChunkFailureResponse struct {
	Label    string `json:"chunk"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

// ImportSummaryResponse is the JSON view of a run summary.
type ImportSummaryResponse struct {
	LessonsCreated        int                    `json:"lessons_created"`
	ShadowProfilesCreated int                    `json:"shadow_profiles_created"`
	SkippedCount          int                    `json:"skipped_count"`
	SkippedByReason       map[string]int         `json:"skipped_by_reason"`
	FailedEvents          []EventFailureResponse `json:"failed_events"`
	FailedChunks          []ChunkFailureResponse `json:"failed_chunks"`
	CompletedChunks       []string               `json:"completed_chunks"`
}

// ImportRunResponse is the JSON view of an import run.
type ImportRunResponse struct {
	ID         uuid.UUID              `json:"id"`
	TeacherID  uuid.UUID              `json:"teacher_id"`
	RangeStart string                 `json:"range_start"`
	RangeEnd   string                 `json:"range_end"`
	Status     entity.ImportRunStatus `json:"status"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
	Summary    ImportSummaryResponse  `json:"summary"`
}

func newImportRunResponse(run *entity.ImportRun) *ImportRunResponse {
	summary := ImportSummaryResponse{
		LessonsCreated:        run.Summary.LessonsCreated,
		ShadowProfilesCreated: run.Summary.ShadowProfilesCreated,
		SkippedCount:          len(run.Summary.Skipped),
		SkippedByReason:       make(map[string]int),
		FailedEvents:          make([]EventFailureResponse, 0, len(run.Summary.FailedEvents)),
		FailedChunks:          make([]ChunkFailureResponse, 0, len(run.Summary.FailedChunks)),
		CompletedChunks:       append([]string{}, run.Summary.CompletedChunks...),
	}
	for _, s := range run.Summary.Skipped {
		summary.SkippedByReason[string(s.Reason)]++
	}
	for _, f := range run.Summary.FailedEvents {
		summary.FailedEvents = append(summary.FailedEvents, EventFailureResponse(f))
	}
	for _, f := range run.Summary.FailedChunks {
		summary.FailedChunks = append(summary.FailedChunks, ChunkFailureResponse(f))
	}

	return &ImportRunResponse{
		ID:         run.ID,
		TeacherID:  run.TeacherID,
		RangeStart: run.RangeStart.Format(dateLayout),
		RangeEnd:   run.RangeEnd.Format(dateLayout),
		Status:     run.Status,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary:    summary,
	}
}

// SuggestionResponse is the JSON view of a review suggestion.
type SuggestionResponse struct {
	Profile       *ProfileResponse `json:"profile"`
	Score         float64          `json:"score"`
	EmailDistance int              `json:"email_distance"`
	NameDistance  int              `json:"name_distance"`
}

func newSuggestionResponses(suggestions []*usecase.MatchSuggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, SuggestionResponse{
			Profile:       newProfileResponse(s.Profile),
			Score:         s.Score,
			EmailDistance: s.EmailDistance,
			NameDistance:  s.NameDistance,
		})
	}

	return out
}
