package handler

import (
	"log/slog"
	"net/http"

	"lessonsync/internal/delivery/http/response"
	"lessonsync/internal/domain/entity"
	"lessonsync/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ReviewHandlerParams holds dependencies for ReviewHandler, injected by Fx.
type ReviewHandlerParams struct {
	fx.In

	ReviewUC usecase.ReviewUsecase
	Logger   *slog.Logger
}

// ReviewHandler backs the manual review tools.
type ReviewHandler struct {
	reviewUC usecase.ReviewUsecase
	logger   *slog.Logger
}

// NewReviewHandler is the constructor for ReviewHandler
func NewReviewHandler(params ReviewHandlerParams) *ReviewHandler {
	return &ReviewHandler{
		reviewUC: params.ReviewUC,
		logger:   params.Logger,
	}
}

// ListSkippedRequest filters the skipped events of a run.
type ListSkippedRequest struct {
	Reason string `query:"reason" validate:"omitempty,oneof=NOT_A_LESSON NO_ATTENDEE AMBIGUOUS_MATCH ALREADY_IMPORTED"`
}

// ListSkipped returns the events a run set aside.
func (h *ReviewHandler) ListSkipped(c echo.Context) error {
	runID, err := parseIDParam(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	var req ListSkippedRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid review query")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	events, err := h.reviewUC.ListSkipped(c.Request().Context(), runID, entity.SkipReason(req.Reason))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newSkippedEventResponses(events), "")
}

// SuggestMatches ranks existing profiles by similarity for a human reviewer.
func (h *ReviewHandler) SuggestMatches(c echo.Context) error {
	var req usecase.SuggestMatchesInput
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid suggestion query")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	suggestions, err := h.reviewUC.SuggestMatches(c.Request().Context(), &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newSuggestionResponses(suggestions), "")
}
