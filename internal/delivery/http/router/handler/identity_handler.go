package handler

import (
	"log/slog"
	"net/http"

	"lessonsync/internal/delivery/http/response"
	"lessonsync/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// IdentityHandlerParams holds dependencies for IdentityHandler, injected by Fx.
type IdentityHandlerParams struct {
	fx.In

	IdentityUC usecase.IdentityUsecase
	Logger     *slog.Logger
}

// IdentityHandler exposes email resolution and staff-created shadow profiles.
type IdentityHandler struct {
	identityUC usecase.IdentityUsecase
	logger     *slog.Logger
}

// NewIdentityHandler is the constructor for IdentityHandler
func NewIdentityHandler(params IdentityHandlerParams) *IdentityHandler {
	return &IdentityHandler{
		identityUC: params.IdentityUC,
		logger:     params.Logger,
	}
}

// ResolveRequest is the query of the resolve endpoint.
type ResolveRequest struct {
	Email string `query:"email" validate:"required"`
}

// Resolve maps an email to Matched, Ambiguous or NotFound.
func (h *IdentityHandler) Resolve(c echo.Context) error {
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid resolve query")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.identityUC.Resolve(c.Request().Context(), req.Email)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newMatchResultResponse(req.Email, result), "")
}

// CreateShadowProfile creates a shadow profile on behalf of staff.
func (h *IdentityHandler) CreateShadowProfile(c echo.Context) error {
	var req usecase.CreateShadowProfileInput
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid shadow profile input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	profile, err := h.identityUC.CreateShadowProfile(c.Request().Context(), &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, newProfileResponse(profile), "Shadow profile created")
}
